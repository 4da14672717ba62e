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

// ledgerHandler serves the running-balance ledger statement.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newLedgerHandler creates a new ledgerHandler.
func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{
		ledgerService: ls,
	}
}

// registerLedgerRoutes registers the ledger statement route.
func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)
	rg.GET("/ledger", h.getLedger)
}

// getLedger rebuilds and returns the ledger for one company (or ALL),
// optionally windowed by from/to dates.
func (h *ledgerHandler) getLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var query dto.LedgerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	statement, err := h.ledgerService.BuildLedger(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to build ledger", slog.String("company_code", query.CompanyCode), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build ledger"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToLedgerStatementResponse(statement))
}
