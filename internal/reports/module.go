// Package reports provides the scoring and report generation module.
package reports

import (
	apphttp "studio_sales_backend/internal/http"
	"studio_sales_backend/internal/reports/handler"
	"studio_sales_backend/internal/reports/repository"
	"studio_sales_backend/internal/reports/scoring"
	"studio_sales_backend/internal/reports/service"
	"studio_sales_backend/platform/logger"
	"studio_sales_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the reports domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new reports module. The quote store and event bus are
// injected afterwards by the composition root via the service setters.
func NewModule(pool *pgxpool.Pool, engine *scoring.Engine, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, engine, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "reports"
}

// Service returns the service layer for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// SetScheduler enables async backfill runs over the task queue.
func (m *Module) SetScheduler(scheduler handler.BackfillScheduler) {
	m.handler.SetScheduler(scheduler)
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	reports := ctx.Admin.Group("/reports")
	m.handler.RegisterRoutes(reports)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
