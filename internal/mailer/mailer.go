// Package mailer sends the welcome email that carries a provisioned user's password reset link.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"flowproject-backend-go/internal/models"
)

// Config holds the SMTP settings.
type Config struct {
	Host   string
	Port   int
	User   string
	Pass   string
	Sender string
}

// Dialer is implemented by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer renders and sends welcome emails.
type Mailer struct {
	dialer Dialer
	sender string
}

// New creates a Mailer that sends through the configured SMTP server.
func New(cfg Config) (*Mailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host cannot be empty")
	}
	if cfg.Sender == "" {
		return nil, fmt.Errorf("sender email address cannot be empty")
	}
	return NewWithDialer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass), cfg.Sender), nil
}

// NewWithDialer is used by tests.
func NewWithDialer(d Dialer, sender string) *Mailer {
	return &Mailer{dialer: d, sender: sender}
}

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<html><body>
<p>Olá, {{.Name}}!</p>
<p>Sua conta no FlowProject foi criada para a empresa <strong>{{.CompanyID}}</strong>.</p>
<p>Defina sua senha pelo link abaixo:</p>
<p><a href="{{.ResetLink}}">Definir senha</a></p>
</body></html>`))

// WelcomeMessage builds the message for evt.
func (m *Mailer) WelcomeMessage(evt models.UserProvisionedEvent) (*gomail.Message, error) {
	if evt.Email == "" {
		return nil, fmt.Errorf("recipient email address cannot be empty")
	}
	var body bytes.Buffer
	if err := welcomeTmpl.Execute(&body, evt); err != nil {
		return nil, fmt.Errorf("failed to render welcome email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.sender)
	msg.SetAddressHeader("To", evt.Email, evt.Name)
	msg.SetHeader("Subject", "Bem-vindo ao FlowProject")
	msg.SetBody("text/html", body.String())
	return msg, nil
}

// SendWelcome renders and sends the welcome email.
func (m *Mailer) SendWelcome(_ context.Context, evt models.UserProvisionedEvent) error {
	msg, err := m.WelcomeMessage(evt)
	if err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send welcome email to %s: %w", evt.Email, err)
	}
	return nil
}
