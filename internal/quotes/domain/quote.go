package domain

import (
	"time"

	"studio_sales_backend/internal/reports/scoring"

	"github.com/google/uuid"
)

// Quote is the central aggregate. The former open-ended annotation record is
// split into typed sub-records, each owned by exactly one write path:
// Scope (scope lock), Deposit (link creation), Payment (confirmation),
// History (every administrative action).
type Quote struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	ProjectType    string
	Intake         scoring.Intake
	EstimateLow    int64
	EstimateTarget int64
	EstimateHigh   int64
	Status         Status
	DepositStatus  DepositStatus
	DepositPaidAt  *time.Time
	FinalPrice     *int64
	DepositAmount  *int64
	Scope          *ScopeSnapshot
	Deposit        *DepositSession
	Payment        *PaymentRecord
	History        []HistoryEntry
	LatestReportID *uuid.UUID
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScopeSnapshot describes the agreed deliverables. Immutable once Locked.
type ScopeSnapshot struct {
	Summary      string     `json:"summary"`
	Deliverables []string   `json:"deliverables"`
	Locked       bool       `json:"locked"`
	LockedAt     *time.Time `json:"lockedAt,omitempty"`
}

// DepositSession references the external checkout session for the deposit.
type DepositSession struct {
	SessionID string    `json:"sessionId"`
	URL       string    `json:"url"`
	Amount    int64     `json:"amount"`
	CreatedAt time.Time `json:"createdAt"`
}

// PaymentRecord is the confirmed payment, keyed by the provider session id.
// A second merge for the same session id is a no-op.
type PaymentRecord struct {
	SessionID  string    `json:"sessionId"`
	Amount     int64     `json:"amount"`
	Currency   string    `json:"currency"`
	PayerEmail string    `json:"payerEmail"`
	PaidAt     time.Time `json:"paidAt"`
}

// ApplyStatus sets the pipeline status. Setting deposit_paid (directly or
// via an admin override) always forces the deposit sub-status to paid and
// stamps the paid timestamp.
func (q *Quote) ApplyStatus(status Status, now time.Time) {
	q.Status = status
	if status == StatusDepositPaid {
		q.DepositStatus = DepositPaid
		if q.DepositPaidAt == nil {
			at := now
			q.DepositPaidAt = &at
		}
	}
}

// HasPaymentForSession reports whether a payment with the given provider
// session id has already been merged.
func (q *Quote) HasPaymentForSession(sessionID string) bool {
	return q.Payment != nil && q.Payment.SessionID == sessionID
}
