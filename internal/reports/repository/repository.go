// Package repository provides database access for evaluation reports.
// Reports are immutable: inserted once, never updated, only superseded.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio_sales_backend/internal/reports/scoring"
	"studio_sales_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Report is the database model for an immutable scoring result, including a
// snapshot of the raw inputs it was computed from.
type Report struct {
	ID         uuid.UUID       `db:"id"`
	QuoteID    uuid.UUID       `db:"quote_id"`
	Score      int             `db:"score"`
	Tier       string          `db:"tier"`
	Confidence string          `db:"confidence"`
	Summary    string          `db:"summary"`
	Pricing    scoring.Pricing `db:"pricing"`
	Risks      []string        `db:"risks"`
	Pitch      scoring.Pitch   `db:"pitch"`
	Intake     scoring.Intake  `db:"intake"`
	Trigger    string          `db:"generated_by"`
	CreatedAt  time.Time       `db:"created_at"`
}

const reportNotFoundMsg = "report not found"

const reportColumns = `
	id, quote_id, score, tier, confidence, summary,
	pricing, risks, pitch, intake, generated_by, created_at`

// Repository provides database operations for reports.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new reports repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert persists a new report row.
func (r *Repository) Insert(ctx context.Context, report *Report) error {
	query := `
		INSERT INTO reports (
			id, quote_id, score, tier, confidence, summary,
			pricing, risks, pitch, intake, generated_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if _, err := r.pool.Exec(ctx, query,
		report.ID, report.QuoteID, report.Score, report.Tier, report.Confidence, report.Summary,
		report.Pricing, report.Risks, report.Pitch, report.Intake, report.Trigger, report.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// GetByID fetches a report by primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+reportColumns+` FROM reports WHERE id = $1`, id)

	report, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(reportNotFoundMsg)
		}
		return nil, err
	}
	return report, nil
}

// ListByQuote returns every report for a quote, newest first.
func (r *Repository) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]Report, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT`+reportColumns+` FROM reports WHERE quote_id = $1 ORDER BY created_at DESC`, quoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report rows: %w", err)
	}
	return reports, nil
}

func scanReport(row pgx.Row) (*Report, error) {
	var report Report
	err := row.Scan(
		&report.ID, &report.QuoteID, &report.Score, &report.Tier, &report.Confidence, &report.Summary,
		&report.Pricing, &report.Risks, &report.Pitch, &report.Intake, &report.Trigger, &report.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan report: %w", err)
	}
	return &report, nil
}
