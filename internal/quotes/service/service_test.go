package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"studio_sales_backend/internal/quotes/domain"
	"studio_sales_backend/internal/quotes/repository"
	"studio_sales_backend/internal/quotes/transport"
	"studio_sales_backend/internal/reports/scoring"
	"studio_sales_backend/platform/apperr"
	"studio_sales_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeQuoteRepo is an in-memory QuoteStore with real CAS semantics.
type fakeQuoteRepo struct {
	quotes map[uuid.UUID]*domain.Quote
}

func newFakeQuoteRepo() *fakeQuoteRepo {
	return &fakeQuoteRepo{quotes: map[uuid.UUID]*domain.Quote{}}
}

func (f *fakeQuoteRepo) Create(_ context.Context, q *domain.Quote) error {
	q.Version = 1
	stored := *q
	f.quotes[q.ID] = &stored
	return nil
}

func (f *fakeQuoteRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Quote, error) {
	stored, ok := f.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	q := *stored
	return &q, nil
}

func (f *fakeQuoteRepo) GetByDepositSession(_ context.Context, sessionID string) (*domain.Quote, error) {
	for _, stored := range f.quotes {
		if stored.Deposit != nil && stored.Deposit.SessionID == sessionID {
			q := *stored
			return &q, nil
		}
	}
	return nil, apperr.NotFound("quote not found")
}

func (f *fakeQuoteRepo) List(_ context.Context, _ repository.ListParams) ([]domain.Quote, int, error) {
	out := []domain.Quote{}
	for _, stored := range f.quotes {
		out = append(out, *stored)
	}
	return out, len(out), nil
}

func (f *fakeQuoteRepo) ListCandidates(_ context.Context, limit int) ([]domain.Quote, error) {
	out := []domain.Quote{}
	for _, stored := range f.quotes {
		if len(out) == limit {
			break
		}
		out = append(out, *stored)
	}
	return out, nil
}

func (f *fakeQuoteRepo) UpdateCAS(_ context.Context, q *domain.Quote, expectedVersion int64) error {
	stored, ok := f.quotes[q.ID]
	if !ok {
		return apperr.NotFound("quote not found")
	}
	if stored.Version != expectedVersion {
		return apperr.Conflict("quote was modified concurrently, reload and retry")
	}
	updated := *q
	updated.Version = expectedVersion + 1
	f.quotes[q.ID] = &updated
	q.Version = updated.Version
	return nil
}

type fakeLeadDirectory struct {
	leads map[uuid.UUID]Lead
}

func newFakeLeadDirectory() *fakeLeadDirectory {
	return &fakeLeadDirectory{leads: map[uuid.UUID]Lead{}}
}

func (f *fakeLeadDirectory) LookupOrCreate(_ context.Context, name, email, phone string) (Lead, error) {
	for _, lead := range f.leads {
		if lead.Email == email {
			return lead, nil
		}
	}
	lead := Lead{ID: uuid.New(), Name: name, Email: email, Phone: phone}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeLeadDirectory) GetByID(_ context.Context, id uuid.UUID) (Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeLeadDirectory) add(email string) Lead {
	lead := Lead{ID: uuid.New(), Name: "Dana", Email: email, Phone: "+15551234567"}
	f.leads[lead.ID] = lead
	return lead
}

type fakeReportGenerator struct {
	calls []string
	err   error
}

func (f *fakeReportGenerator) Generate(_ context.Context, quoteID uuid.UUID, trigger string) error {
	f.calls = append(f.calls, trigger)
	return f.err
}

type fakeCheckout struct {
	sessions map[string]*CheckoutSession
	created  []CreateSessionParams
	getErr   error
}

func newFakeCheckout() *fakeCheckout {
	return &fakeCheckout{sessions: map[string]*CheckoutSession{}}
}

func (f *fakeCheckout) CreateSession(_ context.Context, params CreateSessionParams) (*CheckoutSession, error) {
	f.created = append(f.created, params)
	session := &CheckoutSession{
		ID:            "cs_" + uuid.NewString()[:8],
		URL:           "https://checkout.test/session",
		PaymentStatus: "unpaid",
		Amount:        params.Amount,
		Currency:      "usd",
		CustomerEmail: params.CustomerEmail,
		QuoteRef:      params.QuoteID.String(),
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeCheckout) GetSession(_ context.Context, sessionID string) (*CheckoutSession, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, apperr.NotFound("session not found")
	}
	return session, nil
}

func (f *fakeCheckout) markPaid(sessionID string) {
	f.sessions[sessionID].PaymentStatus = PaymentStatusPaid
}

func validIntakeRequest() transport.IntakeRequest {
	return transport.IntakeRequest{
		Pages:        "4-5",
		Booking:      "builtin",
		Payments:     "system",
		Automation:   "basic",
		Integrations: "1-2",
		Content:      "partial",
		Stakeholders: "2-3",
		Timeline:     "2-3 weeks",
	}
}

func newTestService() (*Service, *fakeQuoteRepo, *fakeLeadDirectory) {
	repo := newFakeQuoteRepo()
	leads := newFakeLeadDirectory()
	svc := New(repo, leads, logger.New("test"))
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo, leads
}

func seedQuote(repo *fakeQuoteRepo, lead Lead, status domain.Status) *domain.Quote {
	q := &domain.Quote{
		ID:             uuid.New(),
		LeadID:         lead.ID,
		ProjectType:    "portfolio",
		Status:         status,
		EstimateTarget: 1000,
		History:        []domain.HistoryEntry{},
		Version:        1,
	}
	stored := *q
	repo.quotes[q.ID] = &stored
	return q
}

func TestCreateFromIntake_CreatesQuoteWithJournal(t *testing.T) {
	svc, repo, _ := newTestService()

	resp, err := svc.CreateFromIntake(context.Background(), transport.SubmitQuoteRequest{
		Name:        "Dana",
		Email:       "dana@example.com",
		ProjectType: "webshop",
		Intake:      validIntakeRequest(),
	})
	if err != nil {
		t.Fatalf("CreateFromIntake: %v", err)
	}
	if resp.Status != string(domain.StatusNew) {
		t.Errorf("status = %q, want new", resp.Status)
	}
	if resp.Warning != "" {
		t.Errorf("warning = %q, want empty", resp.Warning)
	}

	quote := repo.quotes[resp.QuoteID]
	if quote == nil {
		t.Fatal("quote not persisted")
	}
	if len(quote.History) != 1 || quote.History[0].Action != domain.ActionQuoteCreated {
		t.Errorf("history = %+v, want single quote_created entry", quote.History)
	}
}

func TestCreateFromIntake_EvaluationFailureBecomesWarning(t *testing.T) {
	svc, repo, _ := newTestService()
	gen := &fakeReportGenerator{err: errors.New("engine exploded")}
	svc.SetReportGenerator(gen)

	resp, err := svc.CreateFromIntake(context.Background(), transport.SubmitQuoteRequest{
		Name:        "Dana",
		Email:       "dana@example.com",
		ProjectType: "webshop",
		Intake:      validIntakeRequest(),
	})
	if err != nil {
		t.Fatalf("CreateFromIntake: %v", err)
	}
	if resp.Warning == "" {
		t.Error("expected warning when evaluation fails")
	}
	if _, ok := repo.quotes[resp.QuoteID]; !ok {
		t.Error("submission must survive evaluation failure")
	}
	if len(gen.calls) != 1 || gen.calls[0] != "submission" {
		t.Errorf("generator calls = %v", gen.calls)
	}
}

func TestRequestCall_AdvancesOnlyFromNew(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")

	fresh := seedQuote(repo, lead, domain.StatusNew)
	resp, err := svc.RequestCall(context.Background(), fresh.ID)
	if err != nil {
		t.Fatalf("RequestCall: %v", err)
	}
	if resp.Status != string(domain.StatusAwaitingCall) {
		t.Errorf("status = %q, want awaiting_call", resp.Status)
	}

	// A quote past intake keeps its status but still journals the request.
	locked := seedQuote(repo, lead, domain.StatusScopeLocked)
	resp, err = svc.RequestCall(context.Background(), locked.ID)
	if err != nil {
		t.Fatalf("RequestCall: %v", err)
	}
	if resp.Status != string(domain.StatusScopeLocked) {
		t.Errorf("status = %q, want scope_locked unchanged", resp.Status)
	}
	stored := repo.quotes[locked.ID]
	if len(stored.History) != 1 || stored.History[0].Action != domain.ActionCallRequested {
		t.Errorf("history = %+v, want call_requested entry", stored.History)
	}
}

func TestLockScope_SetsSnapshotAndPrice(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	quote := seedQuote(repo, lead, domain.StatusPieReady)

	price := int64(1200)
	updated, err := svc.LockScope(context.Background(), quote.ID, uuid.New(), transport.LockScopeRequest{
		Summary:      "Five page portfolio",
		Deliverables: []string{"design", "build", "launch"},
		FinalPrice:   &price,
	})
	if err != nil {
		t.Fatalf("LockScope: %v", err)
	}
	if updated.Status != domain.StatusScopeLocked {
		t.Errorf("status = %q, want scope_locked", updated.Status)
	}
	if updated.Scope == nil || !updated.Scope.Locked {
		t.Fatal("scope snapshot not locked")
	}
	if updated.FinalPrice == nil || *updated.FinalPrice != 1200 {
		t.Error("final price not stored")
	}
}

func TestLockScope_NeverRegressesDepositStage(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")

	for _, status := range []domain.Status{domain.StatusDepositSent, domain.StatusDepositPaid, domain.StatusInProgress} {
		quote := seedQuote(repo, lead, status)
		updated, err := svc.LockScope(context.Background(), quote.ID, uuid.New(), transport.LockScopeRequest{
			Summary:      "Late scope lock",
			Deliverables: []string{"build"},
		})
		if err != nil {
			t.Fatalf("LockScope at %s: %v", status, err)
		}
		if updated.Status != status {
			t.Errorf("status regressed from %s to %s", status, updated.Status)
		}
		if updated.Scope == nil || !updated.Scope.Locked {
			t.Errorf("scope snapshot missing at %s", status)
		}
	}
}

func TestLockScope_RejectsSecondLock(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	quote := seedQuote(repo, lead, domain.StatusPieReady)

	req := transport.LockScopeRequest{Summary: "Scope", Deliverables: []string{"build"}}
	if _, err := svc.LockScope(context.Background(), quote.ID, uuid.New(), req); err != nil {
		t.Fatalf("first LockScope: %v", err)
	}
	_, err := svc.LockScope(context.Background(), quote.ID, uuid.New(), req)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second LockScope error = %v, want conflict", err)
	}
}

func TestLockScope_StaleExpectedVersion(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	quote := seedQuote(repo, lead, domain.StatusPieReady)

	stale := int64(7)
	_, err := svc.LockScope(context.Background(), quote.ID, uuid.New(), transport.LockScopeRequest{
		Summary:         "Scope",
		Deliverables:    []string{"build"},
		ExpectedVersion: &stale,
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("error = %v, want conflict", err)
	}
}

func TestOverrideStatus_JournalsTransition(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	quote := seedQuote(repo, lead, domain.StatusNew)
	adminID := uuid.New()

	updated, err := svc.OverrideStatus(context.Background(), quote.ID, adminID, domain.StatusClosedLost, "went with competitor")
	if err != nil {
		t.Fatalf("OverrideStatus: %v", err)
	}
	if updated.Status != domain.StatusClosedLost {
		t.Errorf("status = %q", updated.Status)
	}

	entry := updated.History[len(updated.History)-1]
	if entry.Action != domain.ActionStatusOverride {
		t.Fatalf("action = %q, want status_override", entry.Action)
	}
	if entry.Payload["from"] != "new" || entry.Payload["to"] != "closed_lost" {
		t.Errorf("payload = %+v", entry.Payload)
	}
	if entry.Payload["reason"] != "went with competitor" {
		t.Errorf("payload reason = %v", entry.Payload["reason"])
	}
}

func TestOverrideStatus_DepositPaidForcesSubStatus(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	quote := seedQuote(repo, lead, domain.StatusDepositSent)

	updated, err := svc.OverrideStatus(context.Background(), quote.ID, uuid.New(), domain.StatusDepositPaid, "paid by bank transfer")
	if err != nil {
		t.Fatalf("OverrideStatus: %v", err)
	}
	if updated.DepositStatus != domain.DepositPaid {
		t.Errorf("deposit status = %q, want paid", updated.DepositStatus)
	}
	if updated.DepositPaidAt == nil {
		t.Error("deposit paid timestamp not stamped")
	}
}

func TestApplyReport_SetsEstimatesAndAdvances(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	quote := seedQuote(repo, lead, domain.StatusNew)
	reportID := uuid.New()

	err := svc.ApplyReport(context.Background(), quote.ID, reportID, scoring.Pricing{Target: 4500, Minimum: 3500})
	if err != nil {
		t.Fatalf("ApplyReport: %v", err)
	}

	stored := repo.quotes[quote.ID]
	if stored.LatestReportID == nil || *stored.LatestReportID != reportID {
		t.Error("canonical report not set")
	}
	if stored.EstimateLow != 3500 || stored.EstimateTarget != 4500 || stored.EstimateHigh != 5625 {
		t.Errorf("estimates = %d/%d/%d", stored.EstimateLow, stored.EstimateTarget, stored.EstimateHigh)
	}
	if stored.Status != domain.StatusPieReady {
		t.Errorf("status = %q, want pie_ready", stored.Status)
	}
}

func TestApplyReport_DoesNotAdvancePastIntake(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	quote := seedQuote(repo, lead, domain.StatusScopeLocked)

	err := svc.ApplyReport(context.Background(), quote.ID, uuid.New(), scoring.Pricing{Target: 2000, Minimum: 1500})
	if err != nil {
		t.Fatalf("ApplyReport: %v", err)
	}
	if repo.quotes[quote.ID].Status != domain.StatusScopeLocked {
		t.Errorf("status = %q, want scope_locked unchanged", repo.quotes[quote.ID].Status)
	}
}

func TestCreateDeposit_DefaultAmountFromEstimate(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	checkout := newFakeCheckout()
	svc.SetCheckoutGateway(checkout)

	quote := seedQuote(repo, lead, domain.StatusScopeLocked)
	// EstimateTarget 1000 -> deposit max(100, round(1000*0.30)) = 300.
	resp, err := svc.CreateDeposit(context.Background(), quote.ID, transport.CreateDepositRequest{})
	if err != nil {
		t.Fatalf("CreateDeposit: %v", err)
	}
	if resp.DepositAmount != 300 {
		t.Errorf("deposit amount = %d, want 300", resp.DepositAmount)
	}
	if resp.Status != string(domain.StatusDepositSent) {
		t.Errorf("status = %q, want deposit_sent", resp.Status)
	}

	stored := repo.quotes[quote.ID]
	if stored.Deposit == nil || stored.Deposit.SessionID != resp.SessionID {
		t.Error("deposit session not stored")
	}
	if stored.DepositStatus != domain.DepositPending {
		t.Errorf("deposit status = %q, want pending", stored.DepositStatus)
	}
}

func TestCreateDeposit_RequestOverridesWinResolution(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	checkout := newFakeCheckout()
	svc.SetCheckoutGateway(checkout)

	quote := seedQuote(repo, lead, domain.StatusScopeLocked)
	storedDeposit := int64(450)
	repo.quotes[quote.ID].DepositAmount = &storedDeposit

	requested := int64(500)
	resp, err := svc.CreateDeposit(context.Background(), quote.ID, transport.CreateDepositRequest{DepositAmount: &requested})
	if err != nil {
		t.Fatalf("CreateDeposit: %v", err)
	}
	if resp.DepositAmount != 500 {
		t.Errorf("deposit amount = %d, want requested 500", resp.DepositAmount)
	}
}

func TestCreateDeposit_RefusesWithoutEmail(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := Lead{ID: uuid.New(), Name: "No Email"}
	leads.leads[lead.ID] = lead
	svc.SetCheckoutGateway(newFakeCheckout())

	quote := seedQuote(repo, lead, domain.StatusScopeLocked)
	_, err := svc.CreateDeposit(context.Background(), quote.ID, transport.CreateDepositRequest{})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestCreateDeposit_DoesNotRegressPaidQuote(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	checkout := newFakeCheckout()
	svc.SetCheckoutGateway(checkout)

	quote := seedQuote(repo, lead, domain.StatusDepositPaid)
	repo.quotes[quote.ID].DepositStatus = domain.DepositPaid

	resp, err := svc.CreateDeposit(context.Background(), quote.ID, transport.CreateDepositRequest{})
	if err != nil {
		t.Fatalf("CreateDeposit: %v", err)
	}
	if resp.Status != string(domain.StatusDepositPaid) {
		t.Errorf("status = %q, must stay deposit_paid", resp.Status)
	}
	if repo.quotes[quote.ID].DepositStatus != domain.DepositPaid {
		t.Error("paid sub-status was regressed")
	}
}

func TestConfirmDeposit_PaidSessionMergesOnce(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	checkout := newFakeCheckout()
	svc.SetCheckoutGateway(checkout)

	quote := seedQuote(repo, lead, domain.StatusScopeLocked)
	created, err := svc.CreateDeposit(context.Background(), quote.ID, transport.CreateDepositRequest{})
	if err != nil {
		t.Fatalf("CreateDeposit: %v", err)
	}
	checkout.markPaid(created.SessionID)

	first, err := svc.ConfirmDeposit(context.Background(), &quote.ID, created.SessionID)
	if err != nil {
		t.Fatalf("first ConfirmDeposit: %v", err)
	}
	if !first.Paid || first.Status != string(domain.StatusDepositPaid) {
		t.Errorf("first result = %+v", first)
	}

	stored := repo.quotes[quote.ID]
	if stored.Payment == nil || stored.Payment.SessionID != created.SessionID {
		t.Fatal("payment record not merged")
	}
	firstPaidAt := stored.DepositPaidAt
	historyLen := len(stored.History)

	// Replay: same session id confirms again without any state change.
	second, err := svc.ConfirmDeposit(context.Background(), &quote.ID, created.SessionID)
	if err != nil {
		t.Fatalf("second ConfirmDeposit: %v", err)
	}
	if !second.Paid {
		t.Error("replay must still report paid")
	}
	stored = repo.quotes[quote.ID]
	if len(stored.History) != historyLen {
		t.Error("replay appended history")
	}
	if stored.DepositPaidAt != firstPaidAt && !stored.DepositPaidAt.Equal(*firstPaidAt) {
		t.Error("replay changed paid timestamp")
	}
}

func TestConfirmDeposit_UnpaidSessionChangesNothing(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	checkout := newFakeCheckout()
	svc.SetCheckoutGateway(checkout)

	quote := seedQuote(repo, lead, domain.StatusScopeLocked)
	created, err := svc.CreateDeposit(context.Background(), quote.ID, transport.CreateDepositRequest{})
	if err != nil {
		t.Fatalf("CreateDeposit: %v", err)
	}

	resp, err := svc.ConfirmDeposit(context.Background(), &quote.ID, created.SessionID)
	if err != nil {
		t.Fatalf("ConfirmDeposit: %v", err)
	}
	if resp.Paid {
		t.Error("unpaid session reported as paid")
	}
	if repo.quotes[quote.ID].Payment != nil {
		t.Error("payment merged for unpaid session")
	}
	if repo.quotes[quote.ID].Status != domain.StatusDepositSent {
		t.Errorf("status = %q, want deposit_sent unchanged", repo.quotes[quote.ID].Status)
	}
}

func TestConfirmDeposit_ResolvesQuoteBySession(t *testing.T) {
	svc, repo, leads := newTestService()
	lead := leads.add("dana@example.com")
	checkout := newFakeCheckout()
	svc.SetCheckoutGateway(checkout)

	quote := seedQuote(repo, lead, domain.StatusScopeLocked)
	created, err := svc.CreateDeposit(context.Background(), quote.ID, transport.CreateDepositRequest{})
	if err != nil {
		t.Fatalf("CreateDeposit: %v", err)
	}
	checkout.markPaid(created.SessionID)

	// No quote id, as on the public checkout return route.
	resp, err := svc.ConfirmDeposit(context.Background(), nil, created.SessionID)
	if err != nil {
		t.Fatalf("ConfirmDeposit: %v", err)
	}
	if resp.QuoteID != quote.ID {
		t.Errorf("resolved quote = %s, want %s", resp.QuoteID, quote.ID)
	}
	if !resp.Paid {
		t.Error("expected paid")
	}
}
