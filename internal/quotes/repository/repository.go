// Package repository provides database access for the quote aggregate.
package repository

import (
	"context"
	"errors"
	"fmt"

	"studio_sales_backend/internal/quotes/domain"
	"studio_sales_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	quoteNotFoundMsg = "quote not found"
	quoteStaleMsg    = "quote was modified concurrently, reload and retry"
)

const quoteColumns = `
	id, lead_id, project_type, intake,
	estimate_low, estimate_target, estimate_high,
	status, deposit_status, deposit_paid_at,
	final_price, deposit_amount,
	scope, deposit, payment, history,
	latest_report_id, version, created_at, updated_at`

// ListParams contains parameters for listing quotes.
type ListParams struct {
	Status   *domain.Status
	Page     int
	PageSize int
}

// Repository provides database operations for quotes.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new quotes repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new quote with version 1.
func (r *Repository) Create(ctx context.Context, q *domain.Quote) error {
	query := `
		INSERT INTO quotes (
			id, lead_id, project_type, intake,
			estimate_low, estimate_target, estimate_high,
			status, deposit_status, deposit_paid_at,
			final_price, deposit_amount,
			scope, deposit, payment, history,
			latest_report_id, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	q.Version = 1
	if _, err := r.pool.Exec(ctx, query,
		q.ID, q.LeadID, q.ProjectType, q.Intake,
		q.EstimateLow, q.EstimateTarget, q.EstimateHigh,
		q.Status, q.DepositStatus, q.DepositPaidAt,
		q.FinalPrice, q.DepositAmount,
		q.Scope, q.Deposit, q.Payment, q.History,
		q.LatestReportID, q.Version, q.CreatedAt, q.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

// GetByID fetches a quote by primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+quoteColumns+` FROM quotes WHERE id = $1`, id)
	return scanQuote(row)
}

// GetByDepositSession fetches the quote whose deposit record references the
// given provider session id.
func (r *Repository) GetByDepositSession(ctx context.Context, sessionID string) (*domain.Quote, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+quoteColumns+` FROM quotes WHERE deposit->>'sessionId' = $1`, sessionID)
	return scanQuote(row)
}

// List returns a page of quotes, newest first, with the total count.
func (r *Repository) List(ctx context.Context, params ListParams) ([]domain.Quote, int, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 25
	}

	where := ""
	args := []interface{}{}
	if params.Status != nil {
		where = " WHERE status = $1"
		args = append(args, *params.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM quotes`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count quotes: %w", err)
	}

	query := fmt.Sprintf(`SELECT%s FROM quotes%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	quotes, err := scanQuotes(rows)
	if err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

// ListCandidates returns up to limit quotes ordered by creation time, the
// candidate order required by backfill.
func (r *Repository) ListCandidates(ctx context.Context, limit int) ([]domain.Quote, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT`+quoteColumns+` FROM quotes ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate quotes: %w", err)
	}
	defer rows.Close()

	return scanQuotes(rows)
}

// UpdateCAS persists every mutable field of the quote, conditional on the
// version the caller read. On success the in-memory version is bumped; a
// stale version yields a conflict error so the caller can reload and retry.
func (r *Repository) UpdateCAS(ctx context.Context, q *domain.Quote, expectedVersion int64) error {
	query := `
		UPDATE quotes SET
			status = $2, deposit_status = $3, deposit_paid_at = $4,
			final_price = $5, deposit_amount = $6,
			scope = $7, deposit = $8, payment = $9, history = $10,
			latest_report_id = $11,
			estimate_low = $12, estimate_target = $13, estimate_high = $14,
			version = $15, updated_at = $16
		WHERE id = $1 AND version = $17`

	result, err := r.pool.Exec(ctx, query,
		q.ID, q.Status, q.DepositStatus, q.DepositPaidAt,
		q.FinalPrice, q.DepositAmount,
		q.Scope, q.Deposit, q.Payment, q.History,
		q.LatestReportID,
		q.EstimateLow, q.EstimateTarget, q.EstimateHigh,
		expectedVersion+1, q.UpdatedAt, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM quotes WHERE id = $1)`, q.ID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check quote existence: %w", err)
		}
		if !exists {
			return apperr.NotFound(quoteNotFoundMsg)
		}
		return apperr.Conflict(quoteStaleMsg)
	}

	q.Version = expectedVersion + 1
	return nil
}

func scanQuote(row pgx.Row) (*domain.Quote, error) {
	var q domain.Quote
	err := row.Scan(
		&q.ID, &q.LeadID, &q.ProjectType, &q.Intake,
		&q.EstimateLow, &q.EstimateTarget, &q.EstimateHigh,
		&q.Status, &q.DepositStatus, &q.DepositPaidAt,
		&q.FinalPrice, &q.DepositAmount,
		&q.Scope, &q.Deposit, &q.Payment, &q.History,
		&q.LatestReportID, &q.Version, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(quoteNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	if q.History == nil {
		q.History = []domain.HistoryEntry{}
	}
	return &q, nil
}

func scanQuotes(rows pgx.Rows) ([]domain.Quote, error) {
	quotes := []domain.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read quote rows: %w", err)
	}
	return quotes, nil
}
