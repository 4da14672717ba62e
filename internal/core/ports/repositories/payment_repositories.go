package repositories

import (
	"context"
	"time"

	"github.com/crestline/billing_ledger/internal/core/domain"
)

// PaymentReader defines read operations for payment data.
type PaymentReader interface {
	// FindPaymentByID retrieves a payment by its unique identifier,
	// including soft-deleted payments.
	FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// FindPaymentsByIDs retrieves a batch of payments keyed by ID,
	// including soft-deleted payments.
	FindPaymentsByIDs(ctx context.Context, paymentIDs []string) (map[string]domain.Payment, error)

	// FindPaymentByExternalRef retrieves the non-deleted payment carrying the
	// given external transaction reference, or ErrNotFound.
	FindPaymentByExternalRef(ctx context.Context, externalRef string) (*domain.Payment, error)

	// ListUnallocatedPayments returns non-deleted payments with unallocated
	// credit for a company, oldest capture first, ties broken by payment ID.
	// This ordering is load-bearing for FIFO allocation.
	ListUnallocatedPayments(ctx context.Context, companyCode string) ([]domain.Payment, error)

	// ListPaymentsByCompany returns non-deleted payments for a company,
	// newest first, paginated.
	ListPaymentsByCompany(ctx context.Context, companyCode string, limit, offset int) ([]domain.Payment, error)

	// ListAllPayments returns every payment in the store, including deleted
	// ones. Used by the ledger builder and the integrity scan.
	ListAllPayments(ctx context.Context) ([]domain.Payment, error)

	// GetCreditSummary sums amount and allocated over a company's non-deleted
	// payments.
	GetCreditSummary(ctx context.Context, companyCode string) (*domain.CreditSummary, error)

	// ListCreditApplications projects the per-payment audit trail of credit
	// applied to obligations from active allocation funding slices.
	ListCreditApplications(ctx context.Context, paymentID string) ([]domain.CreditApplication, error)
}

// PaymentWriter defines write operations for payment data.
type PaymentWriter interface {
	// SavePayment inserts a new captured payment.
	SavePayment(ctx context.Context, payment domain.Payment) error

	// CaptureIdempotent inserts the payment unless a non-deleted payment
	// already carries its external transaction reference, in which case the
	// existing payment is returned. The check and the insert are a single
	// atomic operation; created reports whether a new row was written.
	CaptureIdempotent(ctx context.Context, payment domain.Payment) (existing *domain.Payment, created bool, err error)

	// MarkPaymentDeleted soft-deletes a payment, excluding it from allocation
	// and credit-sum queries while preserving history.
	MarkPaymentDeleted(ctx context.Context, paymentID string, deletedBy string, deletedAt time.Time) error
}

// PaymentRepositoryFacade combines all payment repository interfaces.
type PaymentRepositoryFacade interface {
	PaymentReader
	PaymentWriter
}

// PaymentRepositoryWithTx extends PaymentRepositoryFacade with transaction capabilities.
type PaymentRepositoryWithTx interface {
	PaymentRepositoryFacade
	TransactionManager
}
