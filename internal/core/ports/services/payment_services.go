package services

import (
	"context"

	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/crestline/billing_ledger/internal/dto"
)

// PaymentSvcFacade exposes payment capture and credit queries.
type PaymentSvcFacade interface {
	// CapturePayment records a credit deposit. When the request carries an
	// external transaction reference the capture is idempotent on it.
	CapturePayment(ctx context.Context, req dto.CapturePaymentRequest, actor string) (*dto.CapturePaymentResponse, error)

	// CaptureNotification is the webhook-driven capture path. Two deliveries
	// of the same external reference yield exactly one payment.
	CaptureNotification(ctx context.Context, notif dto.GatewayNotification) (*dto.CapturePaymentResponse, error)

	// GetAvailableCredit returns the company's aggregate credit position.
	GetAvailableCredit(ctx context.Context, companyCode string) (*domain.CreditSummary, error)

	// GetPayment returns one payment by ID.
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ListPayments returns a company's non-deleted payments, paginated.
	ListPayments(ctx context.Context, companyCode string, params dto.ListPaymentsParams) ([]domain.Payment, error)

	// DeletePayment soft-deletes a payment. Payments still funding active
	// allocations cannot be deleted.
	DeletePayment(ctx context.Context, paymentID string, actor string) error

	// ListCreditApplications returns the applied-credit trail of one payment.
	ListCreditApplications(ctx context.Context, paymentID string) ([]domain.CreditApplication, error)
}
