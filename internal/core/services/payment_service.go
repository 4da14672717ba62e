package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/crestline/billing_ledger/internal/apperrors"
	"github.com/crestline/billing_ledger/internal/core/domain"
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
	"github.com/crestline/billing_ledger/internal/dto"
	"github.com/crestline/billing_ledger/internal/middleware"
)

var (
	ErrAmountNotPositive = errors.New("payment amount must be positive")
	ErrPaymentAllocated  = errors.New("payment still funds active allocations")
)

// paymentService provides payment capture and credit queries, including the
// idempotent capture path used by gateway webhooks.
type paymentService struct {
	BaseService
	paymentRepo    portsrepo.PaymentRepositoryWithTx
	audit          portssvc.AuditPublisher
	captureTimeout time.Duration
}

// NewPaymentService creates a new PaymentService. captureTimeout bounds the
// webhook-driven capture path; zero disables the bound.
func NewPaymentService(paymentRepo portsrepo.PaymentRepositoryWithTx, audit portssvc.AuditPublisher, captureTimeout time.Duration) portssvc.PaymentSvcFacade {
	return &paymentService{
		paymentRepo:    paymentRepo,
		audit:          audit,
		captureTimeout: captureTimeout,
	}
}

var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// CapturePayment records a credit deposit with allocated=0 and
// unallocated=amount. With an external transaction reference the capture is
// idempotent: a replay returns the already-captured payment.
func (s *paymentService) CapturePayment(ctx context.Context, req dto.CapturePaymentRequest, actor string) (*dto.CapturePaymentResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrAmountNotPositive)
	}
	if req.CompanyCode == "" {
		return nil, fmt.Errorf("%w: companyCode is required", apperrors.ErrValidation)
	}

	now := time.Now().UTC()
	payment := domain.Payment{
		PaymentID:              uuid.NewString(),
		CompanyCode:            req.CompanyCode,
		Amount:                 req.Amount,
		Allocated:              decimal.Zero,
		Unallocated:            req.Amount,
		Method:                 req.Method,
		Reference:              req.Reference,
		ExternalTransactionRef: req.ExternalTransactionRef,
		Status:                 domain.PaymentActive,
		CapturedAt:             now,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}

	var (
		captured   *domain.Payment
		idempotent bool
	)
	if req.ExternalTransactionRef != nil && *req.ExternalTransactionRef != "" {
		existing, created, err := s.paymentRepo.CaptureIdempotent(ctx, payment)
		if err != nil {
			s.LogError(ctx, err, "Failed to capture payment", slog.String("company_code", req.CompanyCode))
			return nil, fmt.Errorf("failed to capture payment: %w", err)
		}
		captured = existing
		idempotent = !created
	} else {
		if err := s.paymentRepo.SavePayment(ctx, payment); err != nil {
			s.LogError(ctx, err, "Failed to save payment", slog.String("company_code", req.CompanyCode))
			return nil, fmt.Errorf("failed to save payment: %w", err)
		}
		captured = &payment
	}

	summary, err := s.GetAvailableCredit(ctx, captured.CompanyCode)
	if err != nil {
		return nil, err
	}

	if !idempotent {
		s.audit.Publish(ctx, domain.AuditEvent{
			EventID:     uuid.NewString(),
			Action:      domain.AuditCapturePayment,
			CompanyCode: captured.CompanyCode,
			Actor:       actor,
			Details: map[string]any{
				"paymentID": captured.PaymentID,
				"amount":    captured.Amount.String(),
				"method":    captured.Method,
			},
			OccurredAt: now,
		})
	}

	s.LogInfo(ctx, "Payment captured",
		slog.String("payment_id", captured.PaymentID),
		slog.String("company_code", captured.CompanyCode),
		slog.Bool("idempotent", idempotent))

	return &dto.CapturePaymentResponse{
		Payment:       dto.ToPaymentResponse(captured),
		Idempotent:    idempotent,
		CreditSummary: dto.ToCreditSummaryResponse(summary),
	}, nil
}

// CaptureNotification handles a gateway capture webhook. The existence check
// and the insert are one atomic operation in the store, so concurrent
// deliveries of the same reference yield exactly one payment. The call is
// bounded by the configured capture timeout and fails closed: on timeout the
// payment counts as not-yet-captured and the gateway retry is safe.
func (s *paymentService) CaptureNotification(ctx context.Context, notif dto.GatewayNotification) (*dto.CapturePaymentResponse, error) {
	if notif.ExternalTransactionRef == "" {
		return nil, fmt.Errorf("%w: externalTransactionRef is required", apperrors.ErrValidation)
	}

	if s.captureTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.captureTimeout)
		defer cancel()
	}

	ref := notif.ExternalTransactionRef
	resp, err := s.CapturePayment(ctx, dto.CapturePaymentRequest{
		CompanyCode:            notif.CompanyCode,
		Amount:                 notif.Amount,
		Method:                 notif.Method,
		Reference:              "gateway:" + ref,
		ExternalTransactionRef: &ref,
	}, middleware.DefaultActor)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.LogWarn(ctx, "Capture notification timed out, treating as not captured",
				slog.String("external_ref", ref))
			return nil, fmt.Errorf("%w: capture timed out, retry safe", apperrors.ErrInternal)
		}
		return nil, err
	}
	return resp, nil
}

// GetAvailableCredit sums amount and allocated over the company's non-deleted
// payments. A negative available balance cannot arise from correct operation
// and is logged as an integrity fault for the diagnostic scan to pick up.
func (s *paymentService) GetAvailableCredit(ctx context.Context, companyCode string) (*domain.CreditSummary, error) {
	if companyCode == "" {
		return nil, fmt.Errorf("%w: companyCode is required", apperrors.ErrValidation)
	}

	summary, err := s.paymentRepo.GetCreditSummary(ctx, companyCode)
	if err != nil {
		s.LogError(ctx, err, "Failed to get credit summary", slog.String("company_code", companyCode))
		return nil, fmt.Errorf("failed to get credit summary for %s: %w", companyCode, err)
	}

	if summary.Available.IsNegative() {
		s.LogError(ctx, apperrors.ErrInternal, "Negative available credit detected, store integrity fault",
			slog.String("company_code", companyCode),
			slog.String("available", summary.Available.String()))
	}

	return summary, nil
}

// GetPayment returns one payment by ID.
func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find payment", slog.String("payment_id", paymentID))
		}
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	return payment, nil
}

// ListPayments returns a company's non-deleted payments, paginated.
func (s *paymentService) ListPayments(ctx context.Context, companyCode string, params dto.ListPaymentsParams) ([]domain.Payment, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	payments, err := s.paymentRepo.ListPaymentsByCompany(ctx, companyCode, limit, params.Offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list payments", slog.String("company_code", companyCode))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// DeletePayment soft-deletes a payment. The payment is excluded from future
// allocation and credit queries but its history is preserved. Payments with
// outstanding allocated credit must be reversed first.
func (s *paymentService) DeletePayment(ctx context.Context, paymentID string, actor string) error {
	payment, err := s.paymentRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	if payment.IsDeleted() {
		return nil
	}
	if payment.Allocated.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrPaymentAllocated)
	}

	now := time.Now().UTC()
	if err := s.paymentRepo.MarkPaymentDeleted(ctx, paymentID, actor, now); err != nil {
		s.LogError(ctx, err, "Failed to soft-delete payment", slog.String("payment_id", paymentID))
		return fmt.Errorf("failed to delete payment %s: %w", paymentID, err)
	}

	s.LogInfo(ctx, "Payment soft-deleted", slog.String("payment_id", paymentID), slog.String("actor", actor))
	return nil
}

// ListCreditApplications returns the applied-credit audit trail of one
// payment, projected from active allocation funding slices.
func (s *paymentService) ListCreditApplications(ctx context.Context, paymentID string) ([]domain.CreditApplication, error) {
	if _, err := s.paymentRepo.FindPaymentByID(ctx, paymentID); err != nil {
		return nil, fmt.Errorf("failed to find payment %s: %w", paymentID, err)
	}
	apps, err := s.paymentRepo.ListCreditApplications(ctx, paymentID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list credit applications", slog.String("payment_id", paymentID))
		return nil, fmt.Errorf("failed to list credit applications: %w", err)
	}
	return apps, nil
}
