// Package handler exposes the reports module over HTTP. All routes are
// admin-only.
package handler

import (
	"context"
	"net/http"

	"studio_sales_backend/internal/reports/service"
	"studio_sales_backend/internal/reports/transport"
	"studio_sales_backend/platform/httpkit"
	"studio_sales_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultBackfillLimit = 500

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// BackfillScheduler enqueues a backfill run onto the background worker.
type BackfillScheduler interface {
	EnqueueBackfill(ctx context.Context, mode string, limit int) error
}

// Handler handles admin HTTP requests for reports.
type Handler struct {
	svc       *service.Service
	val       *validator.Validator
	scheduler BackfillScheduler
}

// New creates a new reports handler. The scheduler is optional and wired by
// the composition root when a task queue is configured.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// SetScheduler enables async backfill runs.
func (h *Handler) SetScheduler(scheduler BackfillScheduler) {
	h.scheduler = scheduler
}

// RegisterRoutes registers the report routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generate", h.Generate)
	rg.POST("/backfill", h.Backfill)
	rg.GET("/:id", h.GetByID)
	rg.GET("/quote/:quoteId", h.ListByQuote)
}

// Generate produces a fresh report for one quote.
func (h *Handler) Generate(c *gin.Context) {
	var req transport.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	quoteID, err := uuid.Parse(req.QuoteID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid quote id", nil)
		return
	}

	report, err := h.svc.Generate(c.Request.Context(), quoteID, service.TriggerManual)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.ToReportResponse(report))
}

// Backfill runs a batch generation pass, synchronously by default or queued
// to the worker when async is requested.
func (h *Handler) Backfill(c *gin.Context) {
	var req transport.BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultBackfillLimit
	}

	if req.Async {
		if h.scheduler == nil {
			httpkit.Error(c, http.StatusBadRequest, "async backfill is not configured", nil)
			return
		}
		if err := h.scheduler.EnqueueBackfill(c.Request.Context(), req.Mode, req.Limit); err != nil {
			httpkit.HandleError(c, err)
			return
		}
		httpkit.JSON(c, http.StatusAccepted, transport.BackfillEnqueuedResponse{
			Enqueued: true,
			Mode:     req.Mode,
			Limit:    req.Limit,
		})
		return
	}

	result, err := h.svc.Backfill(c.Request.Context(), req.Mode, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// GetByID returns a single report.
func (h *Handler) GetByID(c *gin.Context) {
	reportID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid report id", nil)
		return
	}

	report, err := h.svc.GetByID(c.Request.Context(), reportID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToReportResponse(report))
}

// ListByQuote returns all reports ever generated for a quote, newest first.
func (h *Handler) ListByQuote(c *gin.Context) {
	quoteID, err := uuid.Parse(c.Param("quoteId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid quote id", nil)
		return
	}

	reports, err := h.svc.ListByQuote(c.Request.Context(), quoteID)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.ReportResponse, 0, len(reports))
	for i := range reports {
		items = append(items, transport.ToReportResponse(&reports[i]))
	}
	httpkit.OK(c, transport.ReportListResponse{Items: items, Total: len(items)})
}
