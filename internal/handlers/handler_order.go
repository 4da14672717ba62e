package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/crestline/billing_ledger/internal/apperrors"
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
	"github.com/crestline/billing_ledger/internal/dto"
	"github.com/crestline/billing_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// orderHandler handles credit application and reversal against single orders.
type orderHandler struct {
	creditService   portssvc.CreditSvcFacade
	reversalService portssvc.ReversalSvcFacade
}

// newOrderHandler creates a new orderHandler.
func newOrderHandler(cs portssvc.CreditSvcFacade, rs portssvc.ReversalSvcFacade) *orderHandler {
	return &orderHandler{
		creditService:   cs,
		reversalService: rs,
	}
}

// registerOrderRoutes registers the per-order allocation and credit routes.
func registerOrderRoutes(rg *gin.RouterGroup, creditService portssvc.CreditSvcFacade, reversalService portssvc.ReversalSvcFacade) {
	h := newOrderHandler(creditService, reversalService)

	orders := rg.Group("/orders")
	{
		orders.POST("/:orderNumber/allocation", h.allocateCreditToOrder)
		orders.DELETE("/:orderNumber/allocation", h.reverseInvoice)
		orders.POST("/:orderNumber/credit", h.applyCredit)
		orders.DELETE("/:orderNumber/credit", h.reverseAppliedCredit)
	}
}

// allocateCreditToOrder applies as much available credit as the order still
// needs. Partial coverage succeeds; the remainder is reported back.
func (h *orderHandler) allocateCreditToOrder(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderNumber := c.Param("orderNumber")
	actor := middleware.GetActorFromContext(c)

	resp, err := h.creditService.AllocateCreditToOrder(c.Request.Context(), orderNumber, actor)
	if err != nil {
		h.writeCreditError(c, logger, orderNumber, err, "Failed to allocate credit to order")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// applyCredit applies up to the requested amount of unallocated credit to the
// order, oldest payments first.
func (h *orderHandler) applyCredit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderNumber := c.Param("orderNumber")

	var req dto.ApplyCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ApplyCredit", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	resp, err := h.creditService.ApplyCredit(c.Request.Context(), orderNumber, req, actor)
	if err != nil {
		h.writeCreditError(c, logger, orderNumber, err, "Failed to apply credit")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// reverseAppliedCredit reverses every applied direct application against the
// order. Zero reversed applications is a no-op success, not an error.
func (h *orderHandler) reverseAppliedCredit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderNumber := c.Param("orderNumber")
	companyCode := c.Query("companyCode")
	if companyCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "companyCode query parameter is required"})
		return
	}

	actor := middleware.GetActorFromContext(c)
	resp, err := h.creditService.ReverseAppliedCredit(c.Request.Context(), companyCode, orderNumber, actor)
	if err != nil {
		h.writeCreditError(c, logger, orderNumber, err, "Failed to reverse applied credit")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// reverseInvoice reverses a settled order, restoring credit to its funding
// payments. The optional body selects the target status and carries the
// reason; an empty body reverses to PENDING.
func (h *orderHandler) reverseInvoice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderNumber := c.Param("orderNumber")

	var req dto.ReverseInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		logger.Warn("Failed to bind JSON for ReverseInvoice", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if req.ReversedBy == "" {
		req.ReversedBy = middleware.GetActorFromContext(c)
	}

	resp, err := h.reversalService.ReverseObligation(c.Request.Context(), orderNumber, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Obligation not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to reverse invoice", slog.String("order_number", orderNumber), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse invoice"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// writeCreditError maps credit workflow failures onto HTTP statuses.
func (h *orderHandler) writeCreditError(c *gin.Context, logger *slog.Logger, orderNumber string, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Obligation not found"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrInsufficientCredit):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConcurrencyConflict), errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error(fallback, slog.String("order_number", orderNumber), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
