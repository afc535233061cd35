// Package service implements report generation and the idempotency/backfill
// controller around the scoring engine.
package service

import (
	"context"
	"errors"
	"time"

	"studio_sales_backend/internal/events"
	"studio_sales_backend/internal/reports/repository"
	"studio_sales_backend/internal/reports/scoring"
	"studio_sales_backend/platform/apperr"
	"studio_sales_backend/platform/logger"

	"github.com/google/uuid"
)

// Generation triggers, recorded on every report row.
const (
	TriggerSubmission  = "submission"
	TriggerCallRequest = "call_request"
	TriggerManual      = "manual"
	TriggerBackfill    = "backfill"
)

// Backfill modes.
const (
	ModeAllMissing = "all_missing"
	ModeAll        = "all"
)

// errAlreadyEvaluated marks a quote a lower-level helper declined because a
// canonical report appeared between candidate selection and generation.
// These land in the skipped count, never in the error list.
var errAlreadyEvaluated = errors.New("quote already has a canonical report")

// QuoteSnapshot is the read view of a quote the generator needs.
type QuoteSnapshot struct {
	ID             uuid.UUID
	LatestReportID *uuid.UUID
	Intake         scoring.Intake
	CreatedAt      time.Time
}

// QuoteStore is the quote surface the reports module depends on,
// implemented by the quotes module through an adapter.
type QuoteStore interface {
	// Snapshot returns the current quote state.
	Snapshot(ctx context.Context, quoteID uuid.UUID) (*QuoteSnapshot, error)
	// ListCandidates returns up to limit quotes ordered by creation time.
	ListCandidates(ctx context.Context, limit int) ([]QuoteSnapshot, error)
	// ApplyReport repoints the quote's canonical report and refreshes its
	// estimate bounds.
	ApplyReport(ctx context.Context, quoteID, reportID uuid.UUID, pricing scoring.Pricing) error
}

// ReportStore persists immutable report rows.
type ReportStore interface {
	Insert(ctx context.Context, report *repository.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Report, error)
	ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]repository.Report, error)
}

// ItemError records a single failed quote inside a batch run.
type ItemError struct {
	QuoteID uuid.UUID `json:"quoteId"`
	Error   string    `json:"error"`
}

// BackfillResult is the three-way batch outcome consumed by dashboards:
// created, skipped, and errored are distinct and must stay that way.
type BackfillResult struct {
	Processed int         `json:"processed"`
	Created   int         `json:"created"`
	Skipped   int         `json:"skipped"`
	Errors    []ItemError `json:"errors"`
}

// Service generates reports and runs backfills.
type Service struct {
	reports ReportStore
	quotes  QuoteStore
	engine  *scoring.Engine
	bus     events.Bus
	log     *logger.Logger
	now     func() time.Time
}

// New creates the reports service. The quote store is wired afterwards by
// the composition root.
func New(reports ReportStore, engine *scoring.Engine, log *logger.Logger) *Service {
	return &Service{
		reports: reports,
		engine:  engine,
		log:     log,
		now:     time.Now,
	}
}

// SetQuoteStore wires the quotes module (via adapter).
func (s *Service) SetQuoteStore(store QuoteStore) { s.quotes = store }

// SetEventBus wires the domain event bus.
func (s *Service) SetEventBus(bus events.Bus) { s.bus = bus }

// GetByID fetches a single report.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*repository.Report, error) {
	return s.reports.GetByID(ctx, id)
}

// ListByQuote returns every report generated for a quote, newest first.
func (s *Service) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]repository.Report, error) {
	return s.reports.ListByQuote(ctx, quoteID)
}

// Generate creates a new immutable report for the quote and repoints its
// canonical report. Regeneration uses the same path, only the trigger differs.
func (s *Service) Generate(ctx context.Context, quoteID uuid.UUID, trigger string) (*repository.Report, error) {
	snapshot, err := s.quotes.Snapshot(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, snapshot, trigger)
}

func (s *Service) generate(ctx context.Context, snapshot *QuoteSnapshot, trigger string) (*repository.Report, error) {
	result, err := s.engine.Evaluate(snapshot.Intake)
	if err != nil {
		return nil, apperr.Validation(err.Error())
	}

	report := &repository.Report{
		ID:         uuid.New(),
		QuoteID:    snapshot.ID,
		Score:      result.Score,
		Tier:       result.Tier,
		Confidence: result.Confidence,
		Summary:    result.Summary,
		Pricing:    result.Pricing,
		Risks:      result.Risks,
		Pitch:      result.Pitch,
		Intake:     snapshot.Intake,
		Trigger:    trigger,
		CreatedAt:  s.now(),
	}
	if err := s.reports.Insert(ctx, report); err != nil {
		return nil, err
	}
	if err := s.quotes.ApplyReport(ctx, snapshot.ID, report.ID, result.Pricing); err != nil {
		return nil, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.ReportGenerated{
			BaseEvent: events.NewBaseEvent(),
			ReportID:  report.ID,
			QuoteID:   snapshot.ID,
			Score:     report.Score,
			Tier:      report.Tier,
			Trigger:   trigger,
		})
	}
	return report, nil
}

// generateMissing re-reads the quote and declines when a canonical report
// already exists, closing the race between candidate selection and
// generation during all_missing runs.
func (s *Service) generateMissing(ctx context.Context, quoteID uuid.UUID) (*repository.Report, error) {
	snapshot, err := s.quotes.Snapshot(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if snapshot.LatestReportID != nil {
		return nil, errAlreadyEvaluated
	}
	return s.generate(ctx, snapshot, TriggerBackfill)
}

// Backfill runs batch generation. Candidates are processed strictly
// sequentially; one quote's failure never aborts the batch. Quotes that
// already have a report are filtered out up front in all_missing mode and
// left untouched.
func (s *Service) Backfill(ctx context.Context, mode string, limit int) (*BackfillResult, error) {
	if mode != ModeAllMissing && mode != ModeAll {
		return nil, apperr.Validation("mode must be all_missing or all")
	}

	candidates, err := s.quotes.ListCandidates(ctx, limit)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Errors: []ItemError{}}
	for _, candidate := range candidates {
		if mode == ModeAllMissing && candidate.LatestReportID != nil {
			continue
		}
		result.Processed++

		var genErr error
		if mode == ModeAllMissing {
			_, genErr = s.generateMissing(ctx, candidate.ID)
		} else {
			_, genErr = s.generate(ctx, &candidate, TriggerBackfill)
		}

		switch {
		case genErr == nil:
			result.Created++
		case errors.Is(genErr, errAlreadyEvaluated):
			result.Skipped++
		default:
			result.Errors = append(result.Errors, ItemError{
				QuoteID: candidate.ID,
				Error:   genErr.Error(),
			})
			s.log.BatchItemError("report_backfill", candidate.ID.String(), genErr)
		}
	}

	s.log.Info("report backfill finished",
		"mode", mode,
		"processed", result.Processed,
		"created", result.Created,
		"skipped", result.Skipped,
		"errored", len(result.Errors),
	)
	return result, nil
}
