// Package service implements the quote lifecycle: intake submission, call
// requests, scope locking, admin overrides, and the deposit reconciliation
// in service_deposits.go.
package service

import (
	"context"
	"fmt"
	"time"

	"studio_sales_backend/internal/events"
	"studio_sales_backend/internal/quotes/domain"
	"studio_sales_backend/internal/quotes/repository"
	"studio_sales_backend/internal/quotes/transport"
	"studio_sales_backend/internal/reports/scoring"
	"studio_sales_backend/platform/apperr"
	"studio_sales_backend/platform/logger"

	"github.com/google/uuid"
)

// casRetries bounds reload-and-retry for system writers (report pointer
// updates, payment callbacks) racing on the same quote.
const casRetries = 3

// Lead is the minimal contact view the quote lifecycle needs.
type Lead struct {
	ID    uuid.UUID
	Name  string
	Email string
	Phone string
}

// LeadDirectory resolves contact identities. Implemented by the leads module
// through an adapter.
type LeadDirectory interface {
	LookupOrCreate(ctx context.Context, name, email, phone string) (Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
}

// ReportGenerator triggers evaluation report generation. Implemented by the
// reports module through an adapter.
type ReportGenerator interface {
	Generate(ctx context.Context, quoteID uuid.UUID, trigger string) error
}

// QuoteStore is the narrow persistence surface used internally; the concrete
// repository satisfies it and tests substitute a fake.
type QuoteStore interface {
	Create(ctx context.Context, q *domain.Quote) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error)
	GetByDepositSession(ctx context.Context, sessionID string) (*domain.Quote, error)
	List(ctx context.Context, params repository.ListParams) ([]domain.Quote, int, error)
	ListCandidates(ctx context.Context, limit int) ([]domain.Quote, error)
	UpdateCAS(ctx context.Context, q *domain.Quote, expectedVersion int64) error
}

// Service implements the quote lifecycle operations.
type Service struct {
	repo     QuoteStore
	leads    LeadDirectory
	reports  ReportGenerator
	checkout CheckoutGateway
	bus      events.Bus
	log      *logger.Logger
	now      func() time.Time
}

// New creates the quotes service.
func New(repo QuoteStore, leads LeadDirectory, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		leads: leads,
		log:   log,
		now:   time.Now,
	}
}

// SetEventBus wires the domain event bus.
func (s *Service) SetEventBus(bus events.Bus) { s.bus = bus }

// SetReportGenerator wires the reports module (via adapter, breaking the
// dependency cycle between quotes and reports).
func (s *Service) SetReportGenerator(gen ReportGenerator) { s.reports = gen }

// SetCheckoutGateway wires the external checkout provider client.
func (s *Service) SetCheckoutGateway(gw CheckoutGateway) { s.checkout = gw }

// Get fetches a quote by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns a page of quotes.
func (s *Service) List(ctx context.Context, params repository.ListParams) ([]domain.Quote, int, error) {
	return s.repo.List(ctx, params)
}

// ListCandidates returns up to limit quotes in creation order, for batch
// report runs.
func (s *Service) ListCandidates(ctx context.Context, limit int) ([]domain.Quote, error) {
	return s.repo.ListCandidates(ctx, limit)
}

// CreateFromIntake creates a quote from a public intake submission and
// triggers the initial evaluation. A failed evaluation never fails the
// submission; it is surfaced in the response warning field.
func (s *Service) CreateFromIntake(ctx context.Context, req transport.SubmitQuoteRequest) (*transport.SubmitQuoteResponse, error) {
	lead, err := s.leads.LookupOrCreate(ctx, req.Name, req.Email, req.Phone)
	if err != nil {
		return nil, err
	}

	intake := req.Intake.ToIntake()
	if err := intake.Validate(); err != nil {
		return nil, apperr.Validation(err.Error())
	}

	now := s.now()
	quote := &domain.Quote{
		ID:          uuid.New(),
		LeadID:      lead.ID,
		ProjectType: req.ProjectType,
		Intake:      intake,
		Status:      domain.StatusNew,
		History:     domain.AppendHistory(nil, now, domain.ActionQuoteCreated, domain.StatusNew, nil),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, quote); err != nil {
		return nil, err
	}

	s.publish(ctx, events.QuoteSubmitted{
		BaseEvent:   events.NewBaseEvent(),
		QuoteID:     quote.ID,
		LeadID:      lead.ID,
		ProjectType: quote.ProjectType,
		LeadEmail:   lead.Email,
		LeadName:    lead.Name,
	})

	warning := s.generateReport(ctx, quote.ID, "submission")

	status := quote.Status
	if refreshed, err := s.repo.GetByID(ctx, quote.ID); err == nil {
		status = refreshed.Status
	}

	return &transport.SubmitQuoteResponse{
		QuoteID: quote.ID,
		Status:  string(status),
		Warning: warning,
	}, nil
}

// RequestCall records a lead's intro-call request and regenerates the
// evaluation. Evaluation failure is reported as a warning, never as an
// overall error: the call request itself must succeed.
func (s *Service) RequestCall(ctx context.Context, quoteID uuid.UUID) (*transport.RequestCallResponse, error) {
	quote, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expected := quote.Version
	if quote.Status == domain.StatusNew {
		quote.ApplyStatus(domain.StatusAwaitingCall, now)
	}
	quote.History = domain.AppendHistory(quote.History, now, domain.ActionCallRequested, quote.Status, nil)
	quote.UpdatedAt = now
	if err := s.repo.UpdateCAS(ctx, quote, expected); err != nil {
		return nil, err
	}

	lead, leadErr := s.leads.GetByID(ctx, quote.LeadID)
	if leadErr == nil {
		s.publish(ctx, events.CallRequested{
			BaseEvent: events.NewBaseEvent(),
			QuoteID:   quote.ID,
			LeadID:    quote.LeadID,
			LeadEmail: lead.Email,
			LeadName:  lead.Name,
			LeadPhone: lead.Phone,
		})
	}

	warning := s.generateReport(ctx, quote.ID, "call_request")

	status := quote.Status
	if refreshed, err := s.repo.GetByID(ctx, quote.ID); err == nil {
		status = refreshed.Status
	}

	return &transport.RequestCallResponse{
		QuoteID: quote.ID,
		Status:  string(status),
		Warning: warning,
	}, nil
}

// LockScope locks the scope snapshot. The snapshot is immutable once locked.
// Locking never regresses a quote that already reached the deposit stage.
func (s *Service) LockScope(ctx context.Context, quoteID uuid.UUID, adminID uuid.UUID, req transport.LockScopeRequest) (*domain.Quote, error) {
	quote, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion != nil && *req.ExpectedVersion != quote.Version {
		return nil, apperr.Conflict("quote was modified concurrently, reload and retry")
	}
	if quote.Scope != nil && quote.Scope.Locked {
		return nil, apperr.Conflict("scope is already locked")
	}

	now := s.now()
	expected := quote.Version
	oldStatus := quote.Status

	quote.Scope = &domain.ScopeSnapshot{
		Summary:      req.Summary,
		Deliverables: req.Deliverables,
		Locked:       true,
		LockedAt:     &now,
	}
	if req.FinalPrice != nil {
		quote.FinalPrice = req.FinalPrice
	}
	quote.ApplyStatus(domain.ScopeLockStatus(quote.Status), now)

	payload := map[string]interface{}{}
	if req.FinalPrice != nil {
		payload["finalPrice"] = *req.FinalPrice
	}
	quote.History = domain.AppendHistory(quote.History, now, domain.ActionScopeLocked, quote.Status, payload)
	quote.UpdatedAt = now

	if err := s.repo.UpdateCAS(ctx, quote, expected); err != nil {
		return nil, err
	}

	s.publish(ctx, events.ScopeLocked{
		BaseEvent:  events.NewBaseEvent(),
		QuoteID:    quote.ID,
		LeadID:     quote.LeadID,
		FinalPrice: domain.ResolveFinalPrice(nil, quote),
		AdminID:    adminID,
	})
	s.publishStatusChange(ctx, quote, oldStatus, "admin", "scope locked")

	return quote, nil
}

// OverrideStatus is the admin escape hatch: any enumerated status can be
// set. The transition is journaled as a status_override so audits can tell
// manual correction from automatic progress. Setting deposit_paid forces the
// deposit sub-status and timestamp as for any other path.
func (s *Service) OverrideStatus(ctx context.Context, quoteID, adminID uuid.UUID, status domain.Status, reason string) (*domain.Quote, error) {
	if !status.IsValid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown status %q", status))
	}

	quote, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expected := quote.Version
	oldStatus := quote.Status

	quote.ApplyStatus(status, now)
	payload := map[string]interface{}{
		"from":    string(oldStatus),
		"to":      string(status),
		"adminId": adminID.String(),
	}
	if reason != "" {
		payload["reason"] = reason
	}
	quote.History = domain.AppendHistory(quote.History, now, domain.ActionStatusOverride, quote.Status, payload)
	quote.UpdatedAt = now

	if err := s.repo.UpdateCAS(ctx, quote, expected); err != nil {
		return nil, err
	}

	s.publishStatusChange(ctx, quote, oldStatus, "admin", reason)
	return quote, nil
}

// UpdatePricing merges pricing overrides (final price, deposit amount) onto
// the quote and journals the change.
func (s *Service) UpdatePricing(ctx context.Context, quoteID, adminID uuid.UUID, finalPrice, depositAmount *int64) (*domain.Quote, error) {
	if finalPrice == nil && depositAmount == nil {
		return nil, apperr.Validation("at least one of finalPrice or depositAmount is required")
	}

	quote, err := s.repo.GetByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expected := quote.Version
	payload := map[string]interface{}{"adminId": adminID.String()}
	if finalPrice != nil {
		quote.FinalPrice = finalPrice
		payload["finalPrice"] = *finalPrice
	}
	if depositAmount != nil {
		quote.DepositAmount = depositAmount
		payload["depositAmount"] = *depositAmount
	}
	quote.History = domain.AppendHistory(quote.History, now, domain.ActionPricingOverride, quote.Status, payload)
	quote.UpdatedAt = now

	if err := s.repo.UpdateCAS(ctx, quote, expected); err != nil {
		return nil, err
	}
	return quote, nil
}

// ApplyReport repoints the quote's canonical report, refreshes the estimate
// bounds from the report pricing, and advances pre-lock quotes to pie_ready.
// Called by the reports module; retries on CAS conflicts since report
// generation legitimately races with other writers during backfill.
func (s *Service) ApplyReport(ctx context.Context, quoteID, reportID uuid.UUID, pricing scoring.Pricing) error {
	return s.mutateWithRetry(ctx, quoteID, func(quote *domain.Quote) {
		now := s.now()
		quote.LatestReportID = &reportID
		quote.EstimateLow = pricing.Minimum
		quote.EstimateTarget = pricing.Target
		quote.EstimateHigh = pricing.Target + pricing.Target/4
		quote.ApplyStatus(domain.ReportReadyStatus(quote.Status), now)
		quote.History = domain.AppendHistory(quote.History, now, domain.ActionReportGenerated, quote.Status, map[string]interface{}{
			"reportId": reportID.String(),
		})
		quote.UpdatedAt = now
	})
}

// generateReport runs the evaluation and converts any failure into a warning
// string for the caller's response.
func (s *Service) generateReport(ctx context.Context, quoteID uuid.UUID, trigger string) string {
	if s.reports == nil {
		return ""
	}
	if err := s.reports.Generate(ctx, quoteID, trigger); err != nil {
		s.log.BatchItemError("report_generate", quoteID.String(), err)
		s.publish(ctx, events.ReportGenerationFailed{
			BaseEvent:    events.NewBaseEvent(),
			QuoteID:      quoteID,
			Trigger:      trigger,
			ErrorMessage: err.Error(),
		})
		return fmt.Sprintf("evaluation could not be completed: %s", err.Error())
	}
	return ""
}

// mutateWithRetry runs a read-modify-CAS cycle, reloading on conflict.
func (s *Service) mutateWithRetry(ctx context.Context, quoteID uuid.UUID, mutate func(*domain.Quote)) error {
	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		quote, err := s.repo.GetByID(ctx, quoteID)
		if err != nil {
			return err
		}
		expected := quote.Version
		mutate(quote)
		err = s.repo.UpdateCAS(ctx, quote, expected)
		if err == nil {
			return nil
		}
		if !apperr.Is(err, apperr.KindConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus != nil {
		s.bus.Publish(ctx, event)
	}
}

func (s *Service) publishStatusChange(ctx context.Context, quote *domain.Quote, oldStatus domain.Status, actor, reason string) {
	if oldStatus == quote.Status {
		return
	}
	s.publish(ctx, events.QuoteStatusChanged{
		BaseEvent: events.NewBaseEvent(),
		QuoteID:   quote.ID,
		LeadID:    quote.LeadID,
		OldStatus: string(oldStatus),
		NewStatus: string(quote.Status),
		Actor:     actor,
		Reason:    reason,
	})
}
