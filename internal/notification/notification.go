// Package notification subscribes to domain events and sends the resulting
// emails. Delivery failures are logged and never propagate back into the
// operation that raised the event.
package notification

import (
	"context"
	"fmt"

	"studio_sales_backend/internal/email"
	"studio_sales_backend/internal/events"
	"studio_sales_backend/platform/config"
	"studio_sales_backend/platform/logger"
)

// Notifier maps domain events onto outbound emails.
type Notifier struct {
	sender email.Sender
	cfg    config.NotificationConfig
	log    *logger.Logger
}

// New creates a notifier.
func New(sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Notifier {
	return &Notifier{sender: sender, cfg: cfg, log: log}
}

// Register subscribes the notifier to the events it handles.
func (n *Notifier) Register(bus events.Bus) {
	bus.Subscribe(events.QuoteSubmitted{}.EventName(), events.HandlerFunc(n.onQuoteSubmitted))
	bus.Subscribe(events.CallRequested{}.EventName(), events.HandlerFunc(n.onCallRequested))
	bus.Subscribe(events.DepositLinkCreated{}.EventName(), events.HandlerFunc(n.onDepositLinkCreated))
	bus.Subscribe(events.DepositPaid{}.EventName(), events.HandlerFunc(n.onDepositPaid))
}

func (n *Notifier) onQuoteSubmitted(ctx context.Context, event events.Event) error {
	e, ok := event.(events.QuoteSubmitted)
	if !ok {
		return nil
	}
	notify := n.cfg.GetStudioNotifyAddress()
	if notify == "" {
		return nil
	}

	return n.send(ctx, email.Message{
		To:      notify,
		Subject: fmt.Sprintf("New quote request: %s", e.ProjectType),
		TextBody: fmt.Sprintf(
			"%s (%s) submitted a quote request for a %s project.\n\nReview it: %s/admin/quotes/%s\n",
			e.LeadName, e.LeadEmail, e.ProjectType, n.cfg.GetAppBaseURL(), e.QuoteID,
		),
	})
}

func (n *Notifier) onCallRequested(ctx context.Context, event events.Event) error {
	e, ok := event.(events.CallRequested)
	if !ok {
		return nil
	}
	notify := n.cfg.GetStudioNotifyAddress()
	if notify == "" {
		return nil
	}

	return n.send(ctx, email.Message{
		To:      notify,
		Subject: fmt.Sprintf("Call requested by %s", e.LeadName),
		TextBody: fmt.Sprintf(
			"%s asked for an intro call.\n\nEmail: %s\nPhone: %s\nQuote: %s/admin/quotes/%s\n",
			e.LeadName, e.LeadEmail, e.LeadPhone, n.cfg.GetAppBaseURL(), e.QuoteID,
		),
	})
}

func (n *Notifier) onDepositLinkCreated(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DepositLinkCreated)
	if !ok {
		return nil
	}

	return n.send(ctx, email.Message{
		To:      e.LeadEmail,
		Subject: "Your project deposit link",
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nTo get your project started, please pay the deposit of %d using the secure link below:\n\n%s\n\nThanks!\n",
			e.LeadName, e.DepositAmount, e.CheckoutURL,
		),
	})
}

func (n *Notifier) onDepositPaid(ctx context.Context, event events.Event) error {
	e, ok := event.(events.DepositPaid)
	if !ok {
		return nil
	}

	return n.send(ctx, email.Message{
		To:      e.LeadEmail,
		Subject: "Deposit received",
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nWe received your deposit of %d. Your project is now in motion and we will be in touch shortly.\n\nThanks!\n",
			e.LeadName, e.DepositAmount,
		),
	})
}

func (n *Notifier) send(ctx context.Context, msg email.Message) error {
	if err := n.sender.Send(ctx, msg); err != nil {
		n.log.Error("notification email failed", "to", msg.To, "subject", msg.Subject, "error", err.Error())
		return err
	}
	return nil
}
