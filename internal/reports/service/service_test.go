package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"studio_sales_backend/internal/reports/repository"
	"studio_sales_backend/internal/reports/scoring"
	"studio_sales_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeReportStore struct {
	inserted  []*repository.Report
	insertErr map[uuid.UUID]error
}

func (f *fakeReportStore) Insert(_ context.Context, report *repository.Report) error {
	if err := f.insertErr[report.QuoteID]; err != nil {
		return err
	}
	f.inserted = append(f.inserted, report)
	return nil
}

func (f *fakeReportStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Report, error) {
	for _, r := range f.inserted {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeReportStore) ListByQuote(_ context.Context, quoteID uuid.UUID) ([]repository.Report, error) {
	out := []repository.Report{}
	for _, r := range f.inserted {
		if r.QuoteID == quoteID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeQuoteStore struct {
	quotes  map[uuid.UUID]*QuoteSnapshot
	order   []uuid.UUID
	applied []uuid.UUID
}

func (f *fakeQuoteStore) Snapshot(_ context.Context, quoteID uuid.UUID) (*QuoteSnapshot, error) {
	snapshot, ok := f.quotes[quoteID]
	if !ok {
		return nil, errors.New("quote not found")
	}
	snap := *snapshot
	return &snap, nil
}

func (f *fakeQuoteStore) ListCandidates(_ context.Context, limit int) ([]QuoteSnapshot, error) {
	out := []QuoteSnapshot{}
	for _, id := range f.order {
		if len(out) == limit {
			break
		}
		out = append(out, *f.quotes[id])
	}
	return out, nil
}

func (f *fakeQuoteStore) ApplyReport(_ context.Context, quoteID, reportID uuid.UUID, _ scoring.Pricing) error {
	snapshot, ok := f.quotes[quoteID]
	if !ok {
		return errors.New("quote not found")
	}
	id := reportID
	snapshot.LatestReportID = &id
	f.applied = append(f.applied, quoteID)
	return nil
}

func validIntake() scoring.Intake {
	return scoring.Intake{
		Pages:        "2-3",
		Booking:      "none",
		Payments:     "none",
		Automation:   "none",
		Integrations: "none",
		Content:      "ready",
		Stakeholders: "1",
		Timeline:     "4+ weeks",
	}
}

func newTestService(t *testing.T, quotes *fakeQuoteStore) (*Service, *fakeReportStore) {
	t.Helper()
	reports := &fakeReportStore{insertErr: map[uuid.UUID]error{}}
	svc := New(reports, scoring.New(scoring.DefaultRules()), logger.New("test"))
	svc.SetQuoteStore(quotes)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, reports
}

func TestGenerate_PersistsAndAppliesReport(t *testing.T) {
	quoteID := uuid.New()
	quotes := &fakeQuoteStore{
		quotes: map[uuid.UUID]*QuoteSnapshot{
			quoteID: {ID: quoteID, Intake: validIntake()},
		},
	}
	svc, reports := newTestService(t, quotes)

	report, err := svc.Generate(context.Background(), quoteID, TriggerManual)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if report.Trigger != TriggerManual {
		t.Errorf("trigger = %q, want %q", report.Trigger, TriggerManual)
	}
	if len(reports.inserted) != 1 {
		t.Fatalf("inserted %d reports, want 1", len(reports.inserted))
	}
	latest := quotes.quotes[quoteID].LatestReportID
	if latest == nil || *latest != report.ID {
		t.Error("quote not repointed to new report")
	}
}

func TestGenerate_RegenerationAppendsNewRow(t *testing.T) {
	quoteID := uuid.New()
	quotes := &fakeQuoteStore{
		quotes: map[uuid.UUID]*QuoteSnapshot{
			quoteID: {ID: quoteID, Intake: validIntake()},
		},
	}
	svc, reports := newTestService(t, quotes)

	first, err := svc.Generate(context.Background(), quoteID, TriggerSubmission)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, err := svc.Generate(context.Background(), quoteID, TriggerManual)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}

	if first.ID == second.ID {
		t.Error("regeneration reused report id")
	}
	if len(reports.inserted) != 2 {
		t.Errorf("inserted %d reports, want 2", len(reports.inserted))
	}
	latest := quotes.quotes[quoteID].LatestReportID
	if latest == nil || *latest != second.ID {
		t.Error("canonical report not repointed to second report")
	}
}

func TestBackfill_AllMissingThreeWayResult(t *testing.T) {
	// A already has a report, B is missing one, C fails during insert.
	existingReport := uuid.New()
	idA, idB, idC := uuid.New(), uuid.New(), uuid.New()
	quotes := &fakeQuoteStore{
		quotes: map[uuid.UUID]*QuoteSnapshot{
			idA: {ID: idA, LatestReportID: &existingReport, Intake: validIntake()},
			idB: {ID: idB, Intake: validIntake()},
			idC: {ID: idC, Intake: validIntake()},
		},
		order: []uuid.UUID{idA, idB, idC},
	}
	svc, reports := newTestService(t, quotes)
	reports.insertErr[idC] = errors.New("connection reset")

	result, err := svc.Backfill(context.Background(), ModeAllMissing, 100)
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}

	if result.Processed != 2 {
		t.Errorf("processed = %d, want 2", result.Processed)
	}
	if result.Created != 1 {
		t.Errorf("created = %d, want 1", result.Created)
	}
	if result.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", result.Skipped)
	}
	if len(result.Errors) != 1 || result.Errors[0].QuoteID != idC {
		t.Fatalf("errors = %+v, want single entry for failing quote", result.Errors)
	}

	// A must be untouched: same canonical report, no ApplyReport call.
	if *quotes.quotes[idA].LatestReportID != existingReport {
		t.Error("quote with existing report was repointed")
	}
	if quotes.quotes[idB].LatestReportID == nil {
		t.Error("missing-report quote was not backfilled")
	}
}

func TestBackfill_SkipsQuoteEvaluatedMidRun(t *testing.T) {
	// The candidate list says the quote has no report, but by the time it is
	// re-read one exists. That is a skip, not an error.
	quoteID := uuid.New()
	raceReport := uuid.New()
	quotes := &fakeQuoteStore{
		quotes: map[uuid.UUID]*QuoteSnapshot{
			quoteID: {ID: quoteID, LatestReportID: &raceReport, Intake: validIntake()},
		},
		order: []uuid.UUID{quoteID},
	}
	// Present the candidate as missing a report.
	stale := *quotes.quotes[quoteID]
	stale.LatestReportID = nil
	staleStore := &staleListQuoteStore{inner: quotes, stale: []QuoteSnapshot{stale}}

	svc, reports := newTestService(t, quotes)
	svc.SetQuoteStore(staleStore)

	result, err := svc.Backfill(context.Background(), ModeAllMissing, 100)
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if result.Processed != 1 || result.Skipped != 1 || result.Created != 0 {
		t.Errorf("result = %+v, want processed=1 skipped=1 created=0", result)
	}
	if len(result.Errors) != 0 {
		t.Errorf("errors = %+v, want none", result.Errors)
	}
	if len(reports.inserted) != 0 {
		t.Error("skipped quote still produced a report row")
	}
}

func TestBackfill_AllModeRegeneratesEverything(t *testing.T) {
	existing := uuid.New()
	idA, idB := uuid.New(), uuid.New()
	quotes := &fakeQuoteStore{
		quotes: map[uuid.UUID]*QuoteSnapshot{
			idA: {ID: idA, LatestReportID: &existing, Intake: validIntake()},
			idB: {ID: idB, Intake: validIntake()},
		},
		order: []uuid.UUID{idA, idB},
	}
	svc, reports := newTestService(t, quotes)

	result, err := svc.Backfill(context.Background(), ModeAll, 100)
	if err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	if result.Processed != 2 || result.Created != 2 {
		t.Errorf("result = %+v, want processed=2 created=2", result)
	}
	if len(reports.inserted) != 2 {
		t.Errorf("inserted %d reports, want 2", len(reports.inserted))
	}
	if *quotes.quotes[idA].LatestReportID == existing {
		t.Error("all mode did not repoint the quote that already had a report")
	}
}

func TestBackfill_RejectsUnknownMode(t *testing.T) {
	svc, _ := newTestService(t, &fakeQuoteStore{quotes: map[uuid.UUID]*QuoteSnapshot{}})
	if _, err := svc.Backfill(context.Background(), "everything", 10); err == nil {
		t.Fatal("expected validation error for unknown mode")
	}
}

// staleListQuoteStore serves a stale candidate list while delegating
// everything else to the live store.
type staleListQuoteStore struct {
	inner *fakeQuoteStore
	stale []QuoteSnapshot
}

func (s *staleListQuoteStore) Snapshot(ctx context.Context, quoteID uuid.UUID) (*QuoteSnapshot, error) {
	return s.inner.Snapshot(ctx, quoteID)
}

func (s *staleListQuoteStore) ListCandidates(_ context.Context, _ int) ([]QuoteSnapshot, error) {
	return s.stale, nil
}

func (s *staleListQuoteStore) ApplyReport(ctx context.Context, quoteID, reportID uuid.UUID, pricing scoring.Pricing) error {
	return s.inner.ApplyReport(ctx, quoteID, reportID, pricing)
}
