package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/crestline/billing_ledger/internal/apperrors"
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
	"github.com/crestline/billing_ledger/internal/dto"
	"github.com/crestline/billing_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// obligationHandler handles HTTP requests related to obligations.
type obligationHandler struct {
	obligationService portssvc.ObligationSvcFacade
}

// newObligationHandler creates a new obligationHandler.
func newObligationHandler(os portssvc.ObligationSvcFacade) *obligationHandler {
	return &obligationHandler{
		obligationService: os,
	}
}

// registerObligationRoutes registers routes related to obligations.
func registerObligationRoutes(rg *gin.RouterGroup, obligationService portssvc.ObligationSvcFacade) {
	h := newObligationHandler(obligationService)

	obligations := rg.Group("/obligations")
	{
		obligations.POST("", h.createObligation)
		obligations.GET("/:orderNumber", h.getObligation)
	}
}

// createObligation records a new debt with status PENDING.
func (h *obligationHandler) createObligation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateObligationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateObligation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	obligation, err := h.obligationService.CreateObligation(c.Request.Context(), req, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Attempted to create duplicate obligation", slog.String("order_number", req.OrderNumber))
			c.JSON(http.StatusConflict, gin.H{"error": "Order number already exists"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create obligation", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create obligation"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToObligationResponse(obligation))
}

// getObligation returns one obligation by order number.
func (h *obligationHandler) getObligation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	orderNumber := c.Param("orderNumber")

	obligation, err := h.obligationService.GetObligation(c.Request.Context(), orderNumber)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Obligation not found"})
		} else {
			logger.Error("Failed to get obligation", slog.String("order_number", orderNumber), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve obligation"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToObligationResponse(obligation))
}
