package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"unicode/utf8"
)

const maxGreetingName = 80

var magicLinkTmpl = template.Must(template.New("magic-link").Parse(`<!doctype html>
<html>
  <body style="font-family:Arial,sans-serif;color:#1f2937">
    <p>Hi there,</p>
    <p>Click the button below to sign in to JyotAI. The link can be used once.</p>
    <p><a href="{{.Link}}" style="display:inline-block;padding:10px 18px;background:#6d28d9;color:#fff;border-radius:6px;text-decoration:none">Sign in</a></p>
    <p>If you did not request this email you can ignore it.</p>
    <p>Need help? Write to <a href="mailto:{{.Support}}">{{.Support}}</a>.</p>
  </body>
</html>`))

var predictionReadyTmpl = template.Must(template.New("prediction-ready").Parse(`<!doctype html>
<html>
  <body style="font-family:Arial,sans-serif;color:#1f2937">
    <p>Namaste {{.Name}},</p>
    <p>Your JyotAI reading is ready.</p>
    <p><a href="{{.Link}}" style="display:inline-block;padding:10px 18px;background:#6d28d9;color:#fff;border-radius:6px;text-decoration:none">View your reading</a></p>
    <p>Questions? Write to <a href="mailto:{{.Support}}">{{.Support}}</a>.</p>
  </body>
</html>`))

// GreetingName returns the name used in salutations: "there" when empty, truncated when very long.
func GreetingName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	if utf8.RuneCountInString(name) > maxGreetingName {
		return string([]rune(name)[:maxGreetingName]) + "…"
	}
	return name
}

// MagicLinkEmail renders the sign-in email for link.
func MagicLinkEmail(to, link, support string) (Message, error) {
	var buf bytes.Buffer
	err := magicLinkTmpl.Execute(&buf, struct {
		Link    template.URL
		Support string
	}{Link: template.URL(link), Support: support})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render magic link email: %w", err)
	}
	return Message{To: to, Subject: "Your JyotAI sign-in link", HTML: buf.String()}, nil
}

// PredictionReadyEmail renders the notification sent after a reading is saved.
func PredictionReadyEmail(to, name, baseURL, predictionID, support string) (Message, error) {
	link := strings.TrimRight(baseURL, "/") + "/predictions/" + predictionID
	var buf bytes.Buffer
	err := predictionReadyTmpl.Execute(&buf, struct {
		Name    string
		Link    string
		Support string
	}{Name: GreetingName(name), Link: link, Support: support})
	if err != nil {
		return Message{}, fmt.Errorf("failed to render prediction email: %w", err)
	}
	return Message{To: to, ToName: name, Subject: "Your JyotAI reading is ready", HTML: buf.String()}, nil
}
