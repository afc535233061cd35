// Package adapters wires modules together through their narrow interfaces,
// so no domain module imports another module's service package directly.
package adapters

import (
	"context"

	leadsvc "studio_sales_backend/internal/leads/service"
	quotesvc "studio_sales_backend/internal/quotes/service"
	reportsvc "studio_sales_backend/internal/reports/service"
	"studio_sales_backend/internal/reports/scoring"

	"github.com/google/uuid"
)

// LeadDirectory adapts the leads service to the quotes module.
type LeadDirectory struct {
	leads *leadsvc.Service
}

// NewLeadDirectory creates the leads adapter.
func NewLeadDirectory(leads *leadsvc.Service) *LeadDirectory {
	return &LeadDirectory{leads: leads}
}

// LookupOrCreate resolves or registers a contact for an intake submission.
func (a *LeadDirectory) LookupOrCreate(ctx context.Context, name, email, phone string) (quotesvc.Lead, error) {
	lead, err := a.leads.LookupOrCreate(ctx, name, email, phone)
	if err != nil {
		return quotesvc.Lead{}, err
	}
	return quotesvc.Lead{ID: lead.ID, Name: lead.Name, Email: lead.Email, Phone: lead.Phone}, nil
}

// GetByID fetches a contact.
func (a *LeadDirectory) GetByID(ctx context.Context, id uuid.UUID) (quotesvc.Lead, error) {
	lead, err := a.leads.GetByID(ctx, id)
	if err != nil {
		return quotesvc.Lead{}, err
	}
	return quotesvc.Lead{ID: lead.ID, Name: lead.Name, Email: lead.Email, Phone: lead.Phone}, nil
}

// ReportGenerator adapts the reports service to the quotes module.
type ReportGenerator struct {
	reports *reportsvc.Service
}

// NewReportGenerator creates the reports adapter.
func NewReportGenerator(reports *reportsvc.Service) *ReportGenerator {
	return &ReportGenerator{reports: reports}
}

// Generate produces a report for the quote.
func (a *ReportGenerator) Generate(ctx context.Context, quoteID uuid.UUID, trigger string) error {
	_, err := a.reports.Generate(ctx, quoteID, trigger)
	return err
}

// QuoteStore adapts the quotes service to the reports module.
type QuoteStore struct {
	quotes *quotesvc.Service
}

// NewQuoteStore creates the quotes adapter.
func NewQuoteStore(quotes *quotesvc.Service) *QuoteStore {
	return &QuoteStore{quotes: quotes}
}

// Snapshot returns the read view the generator evaluates.
func (a *QuoteStore) Snapshot(ctx context.Context, quoteID uuid.UUID) (*reportsvc.QuoteSnapshot, error) {
	quote, err := a.quotes.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	return &reportsvc.QuoteSnapshot{
		ID:             quote.ID,
		LatestReportID: quote.LatestReportID,
		Intake:         quote.Intake,
		CreatedAt:      quote.CreatedAt,
	}, nil
}

// ListCandidates returns up to limit quotes in creation order.
func (a *QuoteStore) ListCandidates(ctx context.Context, limit int) ([]reportsvc.QuoteSnapshot, error) {
	quotes, err := a.quotes.ListCandidates(ctx, limit)
	if err != nil {
		return nil, err
	}
	snapshots := make([]reportsvc.QuoteSnapshot, 0, len(quotes))
	for i := range quotes {
		snapshots = append(snapshots, reportsvc.QuoteSnapshot{
			ID:             quotes[i].ID,
			LatestReportID: quotes[i].LatestReportID,
			Intake:         quotes[i].Intake,
			CreatedAt:      quotes[i].CreatedAt,
		})
	}
	return snapshots, nil
}

// ApplyReport repoints the quote's canonical report and refreshes estimates.
func (a *QuoteStore) ApplyReport(ctx context.Context, quoteID, reportID uuid.UUID, pricing scoring.Pricing) error {
	return a.quotes.ApplyReport(ctx, quoteID, reportID, pricing)
}

// Compile-time interface checks.
var (
	_ quotesvc.LeadDirectory   = (*LeadDirectory)(nil)
	_ quotesvc.ReportGenerator = (*ReportGenerator)(nil)
	_ reportsvc.QuoteStore     = (*QuoteStore)(nil)
)
