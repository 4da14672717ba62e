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

// settlementHandler handles HTTP requests for settlement batches.
type settlementHandler struct {
	settlementService portssvc.SettlementSvcFacade
}

// newSettlementHandler creates a new settlementHandler.
func newSettlementHandler(ss portssvc.SettlementSvcFacade) *settlementHandler {
	return &settlementHandler{
		settlementService: ss,
	}
}

// registerSettlementRoutes registers the settlement batch route.
func registerSettlementRoutes(rg *gin.RouterGroup, settlementService portssvc.SettlementSvcFacade) {
	h := newSettlementHandler(settlementService)
	rg.POST("/settlements", h.settleInvoices)
}

// settleInvoices runs one settlement batch. The request must carry exactly
// one of the three selector shapes; the shape is resolved here, once, before
// the workflow runs. Per-obligation failures ride inside the results, so the
// batch itself answers 200 even when individual items failed.
func (h *settlementHandler) settleInvoices(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SettleInvoicesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for SettleInvoices", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	selector, err := req.Resolve()
	if err != nil {
		logger.Warn("Ambiguous settlement request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	results, err := h.settlementService.SettleInvoices(c.Request.Context(), *selector, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Settlement batch failed", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Settlement batch failed"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.SettleInvoicesResponse{Results: results})
}
