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

// paymentHandler handles HTTP requests related to payment capture and credit.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

// newPaymentHandler creates a new paymentHandler.
func newPaymentHandler(ps portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{
		paymentService: ps,
	}
}

// registerPaymentRoutes registers routes related to payments.
func registerPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade) {
	h := newPaymentHandler(paymentService)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.capturePayment)
		payments.POST("/notifications", h.captureNotification)
		payments.GET("/:paymentID", h.getPayment)
		payments.DELETE("/:paymentID", h.deletePayment)
		payments.GET("/:paymentID/applications", h.listCreditApplications)
	}
}

// capturePayment records a credit deposit. When the body carries an external
// transaction reference the capture is idempotent on it.
func (h *paymentHandler) capturePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CapturePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CapturePayment", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	resp, err := h.paymentService.CapturePayment(c.Request.Context(), req, actor)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Validation error capturing payment", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else if errors.Is(err, apperrors.ErrConcurrencyConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to capture payment", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to capture payment"})
		}
		return
	}

	status := http.StatusCreated
	if resp.Idempotent {
		status = http.StatusOK
	}
	c.JSON(status, resp)
}

// captureNotification is the gateway webhook. Redelivery of the same external
// reference returns the already-captured payment with a 200; a failure is a
// 5xx so the gateway retries.
func (h *paymentHandler) captureNotification(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var notif dto.GatewayNotification
	if err := c.ShouldBindJSON(&notif); err != nil {
		logger.Warn("Failed to bind JSON for gateway notification", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification format: " + err.Error()})
		return
	}

	resp, err := h.paymentService.CaptureNotification(c.Request.Context(), notif)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to process gateway notification",
				slog.String("external_ref", notif.ExternalTransactionRef),
				slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process notification"})
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// getPayment returns one payment by ID, soft-deleted ones included.
func (h *paymentHandler) getPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("paymentID")

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		} else {
			logger.Error("Failed to get payment", slog.String("payment_id", paymentID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve payment"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}

// deletePayment soft-deletes a payment. Payments still funding active
// allocations are rejected with 409.
func (h *paymentHandler) deletePayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("paymentID")
	actor := middleware.GetActorFromContext(c)

	if err := h.paymentService.DeletePayment(c.Request.Context(), paymentID, actor); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		} else if errors.Is(err, apperrors.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to delete payment", slog.String("payment_id", paymentID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete payment"})
		}
		return
	}

	c.Status(http.StatusNoContent)
}

// listCreditApplications returns the applied-credit trail of one payment.
func (h *paymentHandler) listCreditApplications(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("paymentID")

	apps, err := h.paymentService.ListCreditApplications(c.Request.Context(), paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		} else {
			logger.Error("Failed to list credit applications", slog.String("payment_id", paymentID), slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list credit applications"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": dto.ToCreditApplicationResponses(apps)})
}
