package mailer

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
)

// SMTPConfig holds the credentials for an SMTP relay.
type SMTPConfig struct {
	Host string
	Port int
	User string
	Pass string
}

// SMTPSender sends mail through an authenticated SMTP relay.
type SMTPSender struct {
	cfg  SMTPConfig
	from From
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg SMTPConfig, from From) *SMTPSender {
	return &SMTPSender{cfg: cfg, from: from, send: smtp.SendMail}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if s.from.Address == "" {
		return fmt.Errorf("sender email address cannot be empty")
	}
	if s.cfg.Host == "" {
		return fmt.Errorf("SMTP host must be provided")
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var auth smtp.Auth
	if s.cfg.User != "" {
		auth = smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	}

	if err := s.send(addr, auth, s.from.Address, []string{msg.To}, buildMIME(s.from, msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func buildMIME(from From, msg Message) []byte {
	fromHeader := from.Address
	if from.Name != "" {
		fromHeader = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", from.Name), from.Address)
	}
	return []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", msg.To, fromHeader, mime.QEncoding.Encode("utf-8", msg.Subject), msg.HTML))
}
