// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"studio_sales_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Quotes Domain Events
// =============================================================================

// QuoteSubmitted is published when a public intake submission creates a quote.
type QuoteSubmitted struct {
	BaseEvent
	QuoteID     uuid.UUID `json:"quoteId"`
	LeadID      uuid.UUID `json:"leadId"`
	ProjectType string    `json:"projectType"`
	LeadEmail   string    `json:"leadEmail"`
	LeadName    string    `json:"leadName"`
}

func (e QuoteSubmitted) EventName() string { return "quotes.quote.submitted" }

// CallRequested is published when a lead asks for an intro call on their quote.
type CallRequested struct {
	BaseEvent
	QuoteID   uuid.UUID `json:"quoteId"`
	LeadID    uuid.UUID `json:"leadId"`
	LeadEmail string    `json:"leadEmail"`
	LeadName  string    `json:"leadName"`
	LeadPhone string    `json:"leadPhone"`
}

func (e CallRequested) EventName() string { return "quotes.call.requested" }

// QuoteStatusChanged is published whenever a quote moves to a new status,
// whether by lifecycle progression or an admin override.
type QuoteStatusChanged struct {
	BaseEvent
	QuoteID   uuid.UUID `json:"quoteId"`
	LeadID    uuid.UUID `json:"leadId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	Actor     string    `json:"actor"` // "system", "admin", "customer"
	Reason    string    `json:"reason,omitempty"`
}

func (e QuoteStatusChanged) EventName() string { return "quotes.quote.status_changed" }

// ScopeLocked is published when an admin locks the project scope and price.
type ScopeLocked struct {
	BaseEvent
	QuoteID    uuid.UUID `json:"quoteId"`
	LeadID     uuid.UUID `json:"leadId"`
	FinalPrice int64     `json:"finalPrice"`
	AdminID    uuid.UUID `json:"adminId"`
}

func (e ScopeLocked) EventName() string { return "quotes.scope.locked" }

// =============================================================================
// Reports Domain Events
// =============================================================================

// ReportGenerated is published when a pricing intelligence report is created.
type ReportGenerated struct {
	BaseEvent
	ReportID uuid.UUID `json:"reportId"`
	QuoteID  uuid.UUID `json:"quoteId"`
	Score    int       `json:"score"`
	Tier     string    `json:"tier"`
	Trigger  string    `json:"trigger"` // "submission", "call_request", "backfill", "manual"
}

func (e ReportGenerated) EventName() string { return "reports.report.generated" }

// ReportGenerationFailed is published when report generation cannot complete.
// The owning quote operation is expected to succeed regardless.
type ReportGenerationFailed struct {
	BaseEvent
	QuoteID      uuid.UUID `json:"quoteId"`
	Trigger      string    `json:"trigger"`
	ErrorMessage string    `json:"errorMessage"`
}

func (e ReportGenerationFailed) EventName() string { return "reports.report.generation_failed" }

// =============================================================================
// Payments Domain Events
// =============================================================================

// DepositLinkCreated is published when a checkout session for the deposit
// has been created and attached to the quote.
type DepositLinkCreated struct {
	BaseEvent
	QuoteID       uuid.UUID `json:"quoteId"`
	LeadID        uuid.UUID `json:"leadId"`
	SessionID     string    `json:"sessionId"`
	CheckoutURL   string    `json:"checkoutUrl"`
	DepositAmount int64     `json:"depositAmount"`
	LeadEmail     string    `json:"leadEmail"`
	LeadName      string    `json:"leadName"`
}

func (e DepositLinkCreated) EventName() string { return "payments.deposit.link_created" }

// DepositPaid is published when a deposit payment is confirmed.
type DepositPaid struct {
	BaseEvent
	QuoteID       uuid.UUID `json:"quoteId"`
	LeadID        uuid.UUID `json:"leadId"`
	SessionID     string    `json:"sessionId"`
	DepositAmount int64     `json:"depositAmount"`
	LeadEmail     string    `json:"leadEmail"`
	LeadName      string    `json:"leadName"`
}

func (e DepositPaid) EventName() string { return "payments.deposit.paid" }
