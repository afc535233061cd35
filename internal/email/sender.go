// Package email sends transactional mail over SMTP.
package email

import (
	"context"
	"fmt"

	"studio_sales_backend/platform/config"
	"studio_sales_backend/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers outbound mail.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends mail through a configured SMTP relay.
type SMTPSender struct {
	cfg config.EmailConfig
	log *logger.Logger
}

// NewSMTPSender creates an SMTP-backed sender.
func NewSMTPSender(cfg config.EmailConfig, log *logger.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log}
}

// Send delivers the message. A fresh client per send keeps connection state
// out of the sender; volume is low enough that pooling is not worth it.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMsg()
	if err := m.FromFormat(s.cfg.GetEmailFromName(), s.cfg.GetEmailFromAddress()); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	}

	client, err := gomail.NewClient(s.cfg.GetSMTPHost(),
		gomail.WithPort(s.cfg.GetSMTPPort()),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.cfg.GetSMTPUsername()),
		gomail.WithPassword(s.cfg.GetSMTPPassword()),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.Info("email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

// NoopSender drops mail, used when SMTP is not configured.
type NoopSender struct {
	log *logger.Logger
}

// NewNoopSender creates a sender that only logs.
func NewNoopSender(log *logger.Logger) *NoopSender {
	return &NoopSender{log: log}
}

// Send logs the message instead of delivering it.
func (s *NoopSender) Send(_ context.Context, msg Message) error {
	s.log.Info("email suppressed (smtp not configured)", "to", msg.To, "subject", msg.Subject)
	return nil
}
