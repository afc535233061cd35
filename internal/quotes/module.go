// Package quotes provides the quote lifecycle domain module.
package quotes

import (
	apphttp "studio_sales_backend/internal/http"
	"studio_sales_backend/internal/quotes/handler"
	"studio_sales_backend/internal/quotes/repository"
	"studio_sales_backend/internal/quotes/service"
	"studio_sales_backend/platform/logger"
	"studio_sales_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the quotes domain module.
type Module struct {
	handler       *handler.Handler
	publicHandler *handler.PublicHandler
	service       *service.Service
}

// NewModule creates a new quotes module with all dependencies wired.
// The report generator and checkout gateway are injected afterwards by the
// composition root via the service setters.
func NewModule(pool *pgxpool.Pool, leads service.LeadDirectory, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, leads, log)
	h := handler.New(svc, val)
	ph := handler.NewPublicHandler(svc, val)

	return &Module{
		handler:       h,
		publicHandler: ph,
		service:       svc,
	}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "quotes"
}

// Service returns the service layer for cross-module wiring.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	quotes := ctx.Admin.Group("/quotes")
	m.handler.RegisterRoutes(quotes)

	// Public routes: no auth middleware, stricter rate limit.
	publicQuotes := ctx.V1.Group("/public/quotes")
	publicQuotes.Use(ctx.IntakeRateLimiter.RateLimit())
	m.publicHandler.RegisterRoutes(publicQuotes)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
