// Package mailer sends transactional email. Three transports are available: the ZeptoMail HTTP API,
// plain SMTP and a log-only sender used when no provider is configured.
package mailer

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Message is a single outgoing HTML email.
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
}

// Sender delivers a Message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// From identifies the sending mailbox.
type From struct {
	Address string
	Name    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("recipient email address cannot be empty")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return errors.New("email subject cannot be empty")
	}
	return nil
}

// LogSender only logs the message. Used in development when neither ZeptoMail nor SMTP is set up.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("Email not sent: no mail provider configured",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}
