// Package mailer sends email over SMTP and dispatches notifications
// asynchronously so a slow mail server never holds up a request.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Email is one outbound message.
type Email struct {
	To       []string `json:"to"`
	Subject  string   `json:"subject"`
	HTMLBody string   `json:"htmlBody"`
	TextBody string   `json:"textBody,omitempty"`
	// From overrides the sender's default address when set.
	From string `json:"from,omitempty"`
}

// Sender delivers an Email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// SMTPConfig configures SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// SMTPSender sends through a gomail dialer.
type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

// NewSMTPSender returns an SMTP sender. The dialer is built once and reused.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTPSender{
		dialer:   gomail.NewDialer(cfg.Host, port, cfg.User, cfg.Pass),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

// Send builds the MIME message and dials the server. gomail has no context
// support, so the dial runs in a goroutine and Send returns when ctx ends.
func (s *SMTPSender) Send(ctx context.Context, e Email) error {
	if len(e.To) == 0 {
		return errors.New("mailer: no recipients")
	}
	m := gomail.NewMessage()
	from := e.From
	if from == "" {
		from = s.from
	}
	if s.fromName != "" {
		m.SetAddressHeader("From", from, s.fromName)
	} else {
		m.SetHeader("From", from)
	}
	m.SetHeader("To", e.To...)
	m.SetHeader("Subject", e.Subject)
	if e.TextBody != "" {
		m.SetBody("text/plain", e.TextBody)
		m.AddAlternative("text/html", e.HTMLBody)
	} else {
		m.SetBody("text/html", e.HTMLBody)
	}

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", strings.Join(e.To, ","), err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogSender writes messages to the log instead of sending them. Used when no
// SMTP host is configured.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, e Email) error {
	s.Log.Info("email (smtp disabled)",
		zap.Strings("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("text", e.TextBody))
	return nil
}
