// Package mailer sends transactional email over SMTP.
// Development setups point it at Mailtrap (smtp.mailtrap.io:2525); any SMTP relay that
// accepts PLAIN auth works.
package mailer

import (
	"bytes"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"
)

// Config holds the SMTP relay settings.
type Config struct {
	Host   string
	Port   string
	User   string
	Pass   string
	Sender string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends email through a single SMTP relay.
type Mailer struct {
	cfg  Config
	send SendFunc
}

// New validates cfg and returns a Mailer. send defaults to smtp.SendMail.
func New(cfg Config, send SendFunc) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == "" {
		return nil, fmt.Errorf("SMTP host and port must be provided")
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("sender email address cannot be empty")
	}
	if cfg.User == "" || cfg.Pass == "" {
		return nil, fmt.Errorf("SMTP username and password must be provided")
	}
	if send == nil {
		send = smtp.SendMail
	}
	return &Mailer{cfg: cfg, send: send}, nil
}

// SendEmail sends one message. The Content-Type is text/html when body looks like HTML
// (contains <html> or <p>) and text/plain otherwise.
func (m *Mailer) SendEmail(recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}

	contentType := "text/plain; charset=UTF-8"
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html>") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=UTF-8"
	}

	message := []byte(fmt.Sprintf("To: %s\r\n"+
		"From: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: %s\r\n"+
		"\r\n"+
		"%s\r\n", recipient, m.cfg.Sender, subject, contentType, body))

	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := m.send(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.Sender, []string{recipient}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// WelcomeData fills the welcome template.
type WelcomeData struct {
	Name     string
	ShopName string
	Goal     string
}

const welcomeSubject = "Welcome to Vyap"

var welcomeTemplate = template.Must(template.New("welcome").Parse(
	`<html><body>
<p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
<p>{{if .ShopName}}{{.ShopName}} is{{else}}Your shop is{{end}} all set up on Vyap.</p>
{{- if .Goal}}
<p>We'll help you with: {{.Goal}}.</p>
{{- end}}
<p>You can change your business details any time from your profile.</p>
</body></html>`))

// RenderWelcome returns the subject and HTML body of the welcome email.
func RenderWelcome(data WelcomeData) (string, string, error) {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("failed to render welcome email: %w", err)
	}
	return welcomeSubject, buf.String(), nil
}

// SendWelcome renders and sends the welcome email.
func (m *Mailer) SendWelcome(recipient string, data WelcomeData) error {
	subject, body, err := RenderWelcome(data)
	if err != nil {
		return err
	}
	return m.SendEmail(recipient, subject, body)
}
