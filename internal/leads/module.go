// Package leads provides lead (contact) management. The module has no HTTP
// surface of its own; other modules reach it through adapters.
package leads

import (
	"studio_sales_backend/internal/leads/repository"
	"studio_sales_backend/internal/leads/service"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the leads domain module.
type Module struct {
	service *service.Service
}

// NewModule creates a new leads module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{service: svc}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the service layer for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}
