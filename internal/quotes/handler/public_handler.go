package handler

import (
	"net/http"

	"studio_sales_backend/internal/quotes/service"
	"studio_sales_backend/internal/quotes/transport"
	"studio_sales_backend/platform/httpkit"
	"studio_sales_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// PublicHandler handles unauthenticated customer-facing quote routes.
type PublicHandler struct {
	svc *service.Service
	val *validator.Validator
}

// NewPublicHandler creates the public quotes handler.
func NewPublicHandler(svc *service.Service, val *validator.Validator) *PublicHandler {
	return &PublicHandler{svc: svc, val: val}
}

// RegisterRoutes registers the public quote routes.
func (h *PublicHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Submit)
	rg.POST("/:id/request-call", h.RequestCall)
	rg.GET("/checkout/return", h.CheckoutReturn)
}

// Submit accepts a public intake submission and creates a quote.
func (h *PublicHandler) Submit(c *gin.Context) {
	var req transport.SubmitQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.CreateFromIntake(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, resp)
}

// RequestCall records an intro-call request for a submitted quote.
func (h *PublicHandler) RequestCall(c *gin.Context) {
	quoteID, ok := parseQuoteID(c)
	if !ok {
		return
	}

	resp, err := h.svc.RequestCall(c.Request.Context(), quoteID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// CheckoutReturn is the provider redirect target after checkout. It
// reconciles the referenced session; reconciliation is idempotent, so
// refreshing the return page is harmless.
func (h *PublicHandler) CheckoutReturn(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		httpkit.Error(c, http.StatusBadRequest, "missing session_id", nil)
		return
	}

	resp, err := h.svc.ConfirmDeposit(c.Request.Context(), nil, sessionID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}
