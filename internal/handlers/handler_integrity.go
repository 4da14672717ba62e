package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
	"github.com/crestline/billing_ledger/internal/dto"
	"github.com/crestline/billing_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// integrityHandler serves the read-only integrity scan.
type integrityHandler struct {
	integrityService portssvc.IntegritySvcFacade
}

// newIntegrityHandler creates a new integrityHandler.
func newIntegrityHandler(is portssvc.IntegritySvcFacade) *integrityHandler {
	return &integrityHandler{
		integrityService: is,
	}
}

// registerIntegrityRoutes registers the integrity diagnostic route.
func registerIntegrityRoutes(rg *gin.RouterGroup, integrityService portssvc.IntegritySvcFacade) {
	h := newIntegrityHandler(integrityService)
	rg.GET("/integrity", h.diagnose)
}

// diagnose scans the stores and reports every invariant violation found.
// Strictly read-only.
func (h *integrityHandler) diagnose(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	report, err := h.integrityService.Diagnose(c.Request.Context())
	if err != nil {
		logger.Error("Integrity scan failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Integrity scan failed"})
		return
	}

	c.JSON(http.StatusOK, dto.ToIntegrityReportResponse(report))
}
