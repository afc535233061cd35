// Package handler exposes the quotes module over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"studio_sales_backend/internal/quotes/domain"
	"studio_sales_backend/internal/quotes/repository"
	"studio_sales_backend/internal/quotes/service"
	"studio_sales_backend/internal/quotes/transport"
	"studio_sales_backend/platform/httpkit"
	"studio_sales_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidQuoteID   = "invalid quote id"
)

// Handler handles admin HTTP requests for quotes.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new quotes admin handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the admin quote routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.GetByID)
	rg.POST("/:id/scope-lock", h.LockScope)
	rg.PATCH("/:id/status", h.OverrideStatus)
	rg.PATCH("/:id/pricing", h.UpdatePricing)
	rg.POST("/:id/deposit", h.CreateDeposit)
	rg.POST("/:id/deposit/confirm", h.ConfirmDeposit)
	rg.GET("/:id/deposit/qr", h.DepositQR)
}

// List returns a page of quotes, optionally filtered by status.
func (h *Handler) List(c *gin.Context) {
	params := repository.ListParams{}
	if raw := c.Query("status"); raw != "" {
		status := domain.Status(raw)
		if !status.IsValid() {
			httpkit.Error(c, http.StatusBadRequest, "unknown status filter", nil)
			return
		}
		params.Status = &status
	}
	params.Page = queryInt(c, "page", 1)
	params.PageSize = queryInt(c, "pageSize", 25)

	quotes, total, err := h.svc.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.QuoteResponse, 0, len(quotes))
	for i := range quotes {
		items = append(items, transport.ToQuoteResponse(&quotes[i]))
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	httpkit.OK(c, transport.QuoteListResponse{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	})
}

// GetByID returns a single quote with its full history.
func (h *Handler) GetByID(c *gin.Context) {
	quoteID, ok := parseQuoteID(c)
	if !ok {
		return
	}

	quote, err := h.svc.Get(c.Request.Context(), quoteID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToQuoteResponse(quote))
}

// LockScope locks the scope snapshot.
func (h *Handler) LockScope(c *gin.Context) {
	quoteID, ok := parseQuoteID(c)
	if !ok {
		return
	}
	adminID, ok := mustGetUserID(c)
	if !ok {
		return
	}

	var req transport.LockScopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	quote, err := h.svc.LockScope(c.Request.Context(), quoteID, adminID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToQuoteResponse(quote))
}

// OverrideStatus sets any enumerated status, journaled as an override.
func (h *Handler) OverrideStatus(c *gin.Context) {
	quoteID, ok := parseQuoteID(c)
	if !ok {
		return
	}
	adminID, ok := mustGetUserID(c)
	if !ok {
		return
	}

	var req transport.OverrideStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	quote, err := h.svc.OverrideStatus(c.Request.Context(), quoteID, adminID, domain.Status(req.Status), req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToQuoteResponse(quote))
}

// UpdatePricing merges pricing overrides onto the quote.
func (h *Handler) UpdatePricing(c *gin.Context) {
	quoteID, ok := parseQuoteID(c)
	if !ok {
		return
	}
	adminID, ok := mustGetUserID(c)
	if !ok {
		return
	}

	var req struct {
		FinalPrice    *int64 `json:"finalPrice" validate:"omitempty,min=0"`
		DepositAmount *int64 `json:"depositAmount" validate:"omitempty,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	quote, err := h.svc.UpdatePricing(c.Request.Context(), quoteID, adminID, req.FinalPrice, req.DepositAmount)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToQuoteResponse(quote))
}

// CreateDeposit opens a checkout session for the deposit.
func (h *Handler) CreateDeposit(c *gin.Context) {
	quoteID, ok := parseQuoteID(c)
	if !ok {
		return
	}

	var req transport.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.CreateDeposit(c.Request.Context(), quoteID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// ConfirmDeposit reconciles a provider session against this quote.
func (h *Handler) ConfirmDeposit(c *gin.Context) {
	quoteID, ok := parseQuoteID(c)
	if !ok {
		return
	}

	var req transport.ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.ConfirmDeposit(c.Request.Context(), &quoteID, req.SessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// DepositQR renders the deposit link as a PNG QR code.
func (h *Handler) DepositQR(c *gin.Context) {
	quoteID, ok := parseQuoteID(c)
	if !ok {
		return
	}

	png, err := h.svc.DepositQR(c.Request.Context(), quoteID)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func parseQuoteID(c *gin.Context) (uuid.UUID, bool) {
	quoteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidQuoteID, nil)
		return uuid.Nil, false
	}
	return quoteID, true
}

func mustGetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(httpkit.ContextUserIDKey)
	if !exists {
		httpkit.Error(c, http.StatusUnauthorized, "missing user identity", nil)
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	if !ok {
		httpkit.Error(c, http.StatusUnauthorized, "invalid user identity", nil)
		return uuid.Nil, false
	}
	return userID, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
