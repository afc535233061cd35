// Package transport defines request/response DTOs for the reports module.
package transport

import (
	"time"

	"studio_sales_backend/internal/reports/repository"
	"studio_sales_backend/internal/reports/scoring"

	"github.com/google/uuid"
)

// GenerateRequest asks for a fresh report for a single quote.
type GenerateRequest struct {
	QuoteID string `json:"quoteId" validate:"required,uuid"`
}

// BackfillRequest starts a batch generation run.
// Async runs are enqueued to the background worker instead of blocking the
// request.
type BackfillRequest struct {
	Mode  string `json:"mode" validate:"required,oneof=all_missing all"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=10000"`
	Async bool   `json:"async"`
}

// BackfillEnqueuedResponse confirms an async run was queued.
type BackfillEnqueuedResponse struct {
	Enqueued bool   `json:"enqueued"`
	Mode     string `json:"mode"`
	Limit    int    `json:"limit"`
}

// ReportResponse is the API view of a stored report.
type ReportResponse struct {
	ID         uuid.UUID       `json:"id"`
	QuoteID    uuid.UUID       `json:"quoteId"`
	Score      int             `json:"score"`
	Tier       string          `json:"tier"`
	Confidence string          `json:"confidence"`
	Summary    string          `json:"summary"`
	Pricing    scoring.Pricing `json:"pricing"`
	Risks      []string        `json:"risks"`
	Pitch      scoring.Pitch   `json:"pitch"`
	Intake     scoring.Intake  `json:"intake"`
	Trigger    string          `json:"trigger"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// ReportListResponse wraps a quote's report history, newest first.
type ReportListResponse struct {
	Items []ReportResponse `json:"items"`
	Total int              `json:"total"`
}

// ToReportResponse maps a database report to its API view.
func ToReportResponse(report *repository.Report) ReportResponse {
	return ReportResponse{
		ID:         report.ID,
		QuoteID:    report.QuoteID,
		Score:      report.Score,
		Tier:       report.Tier,
		Confidence: report.Confidence,
		Summary:    report.Summary,
		Pricing:    report.Pricing,
		Risks:      report.Risks,
		Pitch:      report.Pitch,
		Intake:     report.Intake,
		Trigger:    report.Trigger,
		CreatedAt:  report.CreatedAt,
	}
}
