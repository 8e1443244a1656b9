// Package mailer sends transactional email through an SMTP relay or Amazon SES.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rashmi7205/admin-fam-tree/pkg/config"
	"go.uber.org/zap"
)

// Message is one outbound email with an HTML body and a plain text alternative
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return errors.New("mailer: recipient is required")
	}
	if strings.ContainsAny(m.To+m.ToName+m.Subject, "\r\n") {
		return errors.New("mailer: header values must not contain line breaks")
	}
	return nil
}

// Mailer is implemented by every mail transport
type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Provider() string
}

// New builds the mailer selected by cfg.Provider. Without a from address
// mail is disabled and messages are dropped with a log line.
func New(ctx context.Context, cfg *config.MailConfig, log *zap.Logger) (Mailer, error) {
	if cfg.From == "" {
		log.Warn("Email disabled: SMTP_FROM not configured")
		return &Disabled{log: log}, nil
	}

	switch cfg.Provider {
	case "smtp", "":
		if cfg.SMTPHost == "" {
			return nil, errors.New("mailer: SMTP_HOST is required for the smtp provider")
		}
		return NewSMTP(cfg), nil
	case "ses":
		return NewSES(ctx, cfg)
	default:
		return nil, fmt.Errorf("mailer: unknown provider %q", cfg.Provider)
	}
}

func formatAddress(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Disabled drops every message
type Disabled struct {
	log *zap.Logger
}

func (d *Disabled) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	d.log.Info("Email disabled, skipping send", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func (d *Disabled) Provider() string { return "disabled" }
