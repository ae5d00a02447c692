package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type zeptoAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type zeptoRecipient struct {
	EmailAddress zeptoAddress `json:"email_address"`
}

type zeptoRequest struct {
	From     zeptoAddress     `json:"from"`
	To       []zeptoRecipient `json:"to"`
	Subject  string           `json:"subject"`
	HTMLBody string           `json:"htmlbody"`
}

// ZeptoSender sends mail through the ZeptoMail v1.1 HTTP API.
type ZeptoSender struct {
	endpoint string
	token    string
	from     From
	client   *http.Client
}

// NewZeptoSender creates a ZeptoSender. baseURL is the API origin, e.g. https://api.zeptomail.in/.
func NewZeptoSender(baseURL, token string, from From) *ZeptoSender {
	return &ZeptoSender{
		endpoint: strings.TrimRight(baseURL, "/") + "/v1.1/email",
		token:    token,
		from:     from,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *ZeptoSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if s.token == "" {
		return fmt.Errorf("zeptomail token is not configured")
	}

	body, err := json.Marshal(zeptoRequest{
		From:     zeptoAddress{Address: s.from.Address, Name: s.from.Name},
		To:       []zeptoRecipient{{EmailAddress: zeptoAddress{Address: msg.To, Name: msg.ToName}}},
		Subject:  msg.Subject,
		HTMLBody: msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("failed to encode zeptomail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build zeptomail request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Zoho-enczapikey "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("zeptomail returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}
