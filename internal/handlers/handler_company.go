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

// companyHandler serves the per-company read side: credit position, payment
// and obligation listings, and the audit trail.
type companyHandler struct {
	paymentService    portssvc.PaymentSvcFacade
	obligationService portssvc.ObligationSvcFacade
	auditService      portssvc.AuditPublisher
}

// newCompanyHandler creates a new companyHandler.
func newCompanyHandler(ps portssvc.PaymentSvcFacade, os portssvc.ObligationSvcFacade, as portssvc.AuditPublisher) *companyHandler {
	return &companyHandler{
		paymentService:    ps,
		obligationService: os,
		auditService:      as,
	}
}

// registerCompanyRoutes registers the per-company query routes.
func registerCompanyRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade, obligationService portssvc.ObligationSvcFacade, auditService portssvc.AuditPublisher) {
	h := newCompanyHandler(paymentService, obligationService, auditService)

	companies := rg.Group("/companies/:companyCode")
	{
		companies.GET("/credit", h.getAvailableCredit)
		companies.GET("/payments", h.listPayments)
		companies.GET("/obligations", h.listObligations)
		companies.GET("/audit-events", h.listAuditEvents)
	}
}

// getAvailableCredit returns the company's aggregate credit position.
func (h *companyHandler) getAvailableCredit(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyCode := c.Param("companyCode")

	summary, err := h.paymentService.GetAvailableCredit(c.Request.Context(), companyCode)
	if err != nil {
		logger.Error("Failed to get credit summary", slog.String("company_code", companyCode), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve credit summary"})
		return
	}

	c.JSON(http.StatusOK, dto.ToCreditSummaryResponse(summary))
}

// listPayments returns the company's non-deleted payments, paginated.
func (h *companyHandler) listPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyCode := c.Param("companyCode")

	var params dto.ListPaymentsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), companyCode, params)
	if err != nil {
		logger.Error("Failed to list payments", slog.String("company_code", companyCode), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list payments"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListPaymentsResponse(payments))
}

// listObligations returns the company's obligations, optionally filtered by
// payment status.
func (h *companyHandler) listObligations(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyCode := c.Param("companyCode")

	var params dto.ListObligationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	obligations, err := h.obligationService.ListObligations(c.Request.Context(), companyCode, params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to list obligations", slog.String("company_code", companyCode), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list obligations"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToListObligationsResponse(obligations))
}

// listAuditEvents returns the company's recent audit trail, newest first.
func (h *companyHandler) listAuditEvents(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyCode := c.Param("companyCode")

	var params dto.ListAuditEventsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	events, err := h.auditService.Recent(c.Request.Context(), companyCode, params.Limit)
	if err != nil {
		logger.Error("Failed to list audit events", slog.String("company_code", companyCode), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": dto.ToAuditEventResponses(events)})
}
