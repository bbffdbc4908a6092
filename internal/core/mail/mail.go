// Package mail renders the HTML notification templates and delivers them
// over SMTP.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"lostfound/internal/core/config"
)

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

type SMTPSender struct {
	client   *gomail.Client
	from     string
	fromName string
}

func NewSMTPSender(c config.Mail) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(c.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if c.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(c.Username),
			gomail.WithPassword(c.Password),
		)
	}
	client, err := gomail.NewClient(c.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	from := c.From
	if from == "" {
		from = c.Username
	}
	return &SMTPSender{client: client, from: from, fromName: c.FromName}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) error {
	m := gomail.NewMsg()
	if err := m.FromFormat(s.fromName, s.from); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	if err := m.To(to); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(gomail.TypeTextHTML, html)
	return s.client.DialAndSendWithContext(ctx, m)
}

// LogSender writes messages to the log instead of sending them. It is used
// when no relay host is configured.
type LogSender struct{ Log *zap.Logger }

func (s LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.Log.Info("mail not sent, no relay configured", zap.String("to", to), zap.String("subject", subject))
	return nil
}

type Mailer struct {
	r *Renderer
	s Sender
}

func NewMailer(r *Renderer, s Sender) *Mailer { return &Mailer{r: r, s: s} }

// New wires the renderer and the configured sender.
func New(app config.App, c config.Mail, l *zap.Logger) (*Mailer, error) {
	r, err := NewRenderer(c.FromName, app.ClientURL)
	if err != nil {
		return nil, err
	}
	if c.Host == "" {
		return NewMailer(r, LogSender{Log: l}), nil
	}
	s, err := NewSMTPSender(c)
	if err != nil {
		return nil, err
	}
	return NewMailer(r, s), nil
}

func (m *Mailer) Known(name Template) bool { return m.r.Known(name) }

func (m *Mailer) Send(ctx context.Context, to string, name Template, data map[string]any) error {
	subject, body, err := m.r.Render(name, data)
	if err != nil {
		return err
	}
	return m.s.Send(ctx, to, subject, body)
}
