// Package transport defines the request and response shapes for the quotes
// module.
package transport

import (
	"time"

	"studio_sales_backend/internal/quotes/domain"
	"studio_sales_backend/internal/reports/scoring"

	"github.com/google/uuid"
)

// =============================================================================
// Requests
// =============================================================================

// IntakeRequest carries the normalized categorical answers from the intake
// form. Allowed values are enforced by the scoring engine as well; the tags
// catch malformed input before it reaches the domain.
type IntakeRequest struct {
	Pages        string `json:"pages" validate:"required,oneof=1 2-3 4-5 6-10"`
	Booking      string `json:"booking" validate:"required,oneof=none external builtin unsure"`
	Payments     string `json:"payments" validate:"required,oneof=none link system unsure"`
	Automation   string `json:"automation" validate:"required,oneof=none basic advanced unsure"`
	Integrations string `json:"integrations" validate:"required,oneof=none 1-2 3+"`
	Content      string `json:"content" validate:"required,oneof=ready partial not-ready"`
	Stakeholders string `json:"stakeholders" validate:"required,oneof=1 2-3 4+"`
	Timeline     string `json:"timeline" validate:"required,oneof='4+ weeks' '2-3 weeks' under-14"`
}

// ToIntake converts the request to the scoring input type.
func (r IntakeRequest) ToIntake() scoring.Intake {
	return scoring.Intake{
		Pages:        r.Pages,
		Booking:      r.Booking,
		Payments:     r.Payments,
		Automation:   r.Automation,
		Integrations: r.Integrations,
		Content:      r.Content,
		Stakeholders: r.Stakeholders,
		Timeline:     r.Timeline,
	}
}

// SubmitQuoteRequest is the public intake submission.
type SubmitQuoteRequest struct {
	Name        string        `json:"name" validate:"required,min=1,max=200"`
	Email       string        `json:"email" validate:"required,email"`
	Phone       string        `json:"phone" validate:"omitempty,max=50"`
	ProjectType string        `json:"projectType" validate:"required,min=1,max=100"`
	Intake      IntakeRequest `json:"intake" validate:"required"`
}

// LockScopeRequest locks the scope snapshot and optionally sets the final
// price override. ExpectedVersion enables first-writer-wins semantics from
// the admin UI.
type LockScopeRequest struct {
	Summary         string   `json:"summary" validate:"required,min=1,max=2000"`
	Deliverables    []string `json:"deliverables" validate:"required,min=1,dive,min=1,max=500"`
	FinalPrice      *int64   `json:"finalPrice" validate:"omitempty,min=0"`
	ExpectedVersion *int64   `json:"expectedVersion" validate:"omitempty,min=1"`
}

// OverrideStatusRequest is the admin escape hatch: any enumerated status can
// be set, journaled as a status_override action.
type OverrideStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=new awaiting_call pie_ready scope_locked deposit_sent deposit_paid in_progress delivered closed_won closed_lost"`
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

// CreateDepositRequest requests a checkout session for the deposit.
type CreateDepositRequest struct {
	DepositAmount *int64 `json:"depositAmount" validate:"omitempty,min=1"`
	FinalPrice    *int64 `json:"finalPrice" validate:"omitempty,min=0"`
}

// ConfirmDepositRequest reconciles a provider session back onto its quote.
type ConfirmDepositRequest struct {
	SessionID string `json:"sessionId" validate:"required,min=1,max=255"`
}

// =============================================================================
// Responses
// =============================================================================

// HistoryEntryResponse is one journal entry.
type HistoryEntryResponse struct {
	At      time.Time              `json:"at"`
	Action  string                 `json:"action"`
	Status  string                 `json:"status"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// QuoteResponse is the full admin view of a quote.
type QuoteResponse struct {
	ID             uuid.UUID              `json:"id"`
	LeadID         uuid.UUID              `json:"leadId"`
	ProjectType    string                 `json:"projectType"`
	Intake         scoring.Intake         `json:"intake"`
	EstimateLow    int64                  `json:"estimateLow"`
	EstimateTarget int64                  `json:"estimateTarget"`
	EstimateHigh   int64                  `json:"estimateHigh"`
	Status         string                 `json:"status"`
	DepositStatus  string                 `json:"depositStatus,omitempty"`
	DepositPaidAt  *time.Time             `json:"depositPaidAt,omitempty"`
	FinalPrice     *int64                 `json:"finalPrice,omitempty"`
	DepositAmount  *int64                 `json:"depositAmount,omitempty"`
	Scope          *domain.ScopeSnapshot  `json:"scope,omitempty"`
	Deposit        *domain.DepositSession `json:"deposit,omitempty"`
	Payment        *domain.PaymentRecord  `json:"payment,omitempty"`
	History        []HistoryEntryResponse `json:"history"`
	LatestReportID *uuid.UUID             `json:"latestReportId,omitempty"`
	Version        int64                  `json:"version"`
	CreatedAt      time.Time              `json:"createdAt"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// QuoteListResponse is a paginated quote listing.
type QuoteListResponse struct {
	Items      []QuoteResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// SubmitQuoteResponse acknowledges a public intake submission. Evaluation
// failures do not fail the submission; they surface in Warning.
type SubmitQuoteResponse struct {
	QuoteID uuid.UUID `json:"quoteId"`
	Status  string    `json:"status"`
	Warning string    `json:"warning,omitempty"`
}

// RequestCallResponse acknowledges a call request. As with submission, a
// failed evaluation is reported as a warning, never as an overall error.
type RequestCallResponse struct {
	QuoteID uuid.UUID `json:"quoteId"`
	Status  string    `json:"status"`
	Warning string    `json:"warning,omitempty"`
}

// DepositResponse describes the checkout session created for the deposit.
type DepositResponse struct {
	Status        string `json:"status"`
	DepositURL    string `json:"depositUrl"`
	SessionID     string `json:"sessionId"`
	DepositAmount int64  `json:"depositAmount"`
}

// ConfirmDepositResponse reports the reconciliation outcome.
type ConfirmDepositResponse struct {
	QuoteID   uuid.UUID `json:"quoteId"`
	Status    string    `json:"status"`
	Paid      bool      `json:"paid"`
	SessionID string    `json:"sessionId"`
}

// ToQuoteResponse maps the domain aggregate to its admin view.
func ToQuoteResponse(q *domain.Quote) QuoteResponse {
	history := make([]HistoryEntryResponse, 0, len(q.History))
	for _, entry := range q.History {
		history = append(history, HistoryEntryResponse{
			At:      entry.At,
			Action:  entry.Action,
			Status:  string(entry.Status),
			Payload: entry.Payload,
		})
	}

	return QuoteResponse{
		ID:             q.ID,
		LeadID:         q.LeadID,
		ProjectType:    q.ProjectType,
		Intake:         q.Intake,
		EstimateLow:    q.EstimateLow,
		EstimateTarget: q.EstimateTarget,
		EstimateHigh:   q.EstimateHigh,
		Status:         string(q.Status),
		DepositStatus:  string(q.DepositStatus),
		DepositPaidAt:  q.DepositPaidAt,
		FinalPrice:     q.FinalPrice,
		DepositAmount:  q.DepositAmount,
		Scope:          q.Scope,
		Deposit:        q.Deposit,
		Payment:        q.Payment,
		History:        history,
		LatestReportID: q.LatestReportID,
		Version:        q.Version,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}
