// Package service provides the lead directory: contact identities looked up
// or created by email.
package service

import (
	"context"
	"strings"
	"time"

	"studio_sales_backend/internal/leads/repository"
	"studio_sales_backend/platform/apperr"
	"studio_sales_backend/platform/phone"

	"github.com/google/uuid"
)

// Service manages lead contact records.
type Service struct {
	repo *repository.Repository
}

// New creates the lead directory service.
func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// GetByID fetches a lead by id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*repository.Lead, error) {
	return s.repo.GetByID(ctx, id)
}

// LookupOrCreate finds the lead for the given email or creates one. Name and
// phone updates on an existing lead are merged in when they add information.
func (s *Service) LookupOrCreate(ctx context.Context, name, email, rawPhone string) (*repository.Lead, error) {
	normalizedEmail := NormalizeEmail(email)
	if normalizedEmail == "" {
		return nil, apperr.Validation("a valid email address is required")
	}
	normalizedPhone := phone.NormalizeE164(rawPhone)

	existing, err := s.repo.GetByEmail(ctx, normalizedEmail)
	if err == nil {
		changed := false
		if name != "" && existing.Name != name {
			existing.Name = name
			changed = true
		}
		if normalizedPhone != "" && existing.Phone != normalizedPhone {
			existing.Phone = normalizedPhone
			changed = true
		}
		if changed {
			existing.UpdatedAt = time.Now()
			if err := s.repo.Update(ctx, existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	now := time.Now()
	lead := &repository.Lead{
		ID:        uuid.New(),
		Name:      name,
		Email:     normalizedEmail,
		Phone:     normalizedPhone,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// NormalizeEmail lowercases and trims an email address, returning "" when
// the result is not plausibly deliverable.
func NormalizeEmail(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	at := strings.Index(normalized, "@")
	if at <= 0 || at == len(normalized)-1 || !strings.Contains(normalized[at+1:], ".") {
		return ""
	}
	return normalized
}
