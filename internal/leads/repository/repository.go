// Package repository provides database access for lead contact records.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studio_sales_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Lead is the database model for a contact identity. Leads are looked up by
// email and shared across quotes, never owned by one.
type Lead struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const leadNotFoundMsg = "lead not found"

// Repository provides database operations for leads.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID fetches a lead by primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	return r.scanOne(ctx, `SELECT id, name, email, phone, created_at, updated_at FROM leads WHERE id = $1`, id)
}

// GetByEmail fetches a lead by its normalized email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Lead, error) {
	return r.scanOne(ctx, `SELECT id, name, email, phone, created_at, updated_at FROM leads WHERE email = $1`, email)
}

// Create inserts a new lead.
func (r *Repository) Create(ctx context.Context, lead *Lead) error {
	query := `
		INSERT INTO leads (id, name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := r.pool.Exec(ctx, query,
		lead.ID, lead.Name, lead.Email, lead.Phone, lead.CreatedAt, lead.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}
	return nil
}

// Update persists name/phone changes for an existing lead.
func (r *Repository) Update(ctx context.Context, lead *Lead) error {
	query := `UPDATE leads SET name = $2, phone = $3, updated_at = $4 WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, lead.ID, lead.Name, lead.Phone, lead.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(leadNotFoundMsg)
	}
	return nil
}

func (r *Repository) scanOne(ctx context.Context, query string, arg interface{}) (*Lead, error) {
	var lead Lead
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.CreatedAt, &lead.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(leadNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to fetch lead: %w", err)
	}
	return &lead, nil
}
