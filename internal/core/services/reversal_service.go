package services

import (
	"context"
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
)

// reversalService undoes settlements: credit flows back to the payments that
// funded the allocation, the allocation is retained as REVERSED for audit,
// and the obligation is reset. Reversed allocations are never hard-deleted.
type reversalService struct {
	BaseService
	paymentRepo    portsrepo.PaymentRepositoryWithTx
	obligationRepo portsrepo.ObligationRepositoryWithTx
	allocationRepo portsrepo.AllocationRepositoryWithTx
	audit          portssvc.AuditPublisher
}

// NewReversalService creates a new ReversalService.
func NewReversalService(
	paymentRepo portsrepo.PaymentRepositoryWithTx,
	obligationRepo portsrepo.ObligationRepositoryWithTx,
	allocationRepo portsrepo.AllocationRepositoryWithTx,
	audit portssvc.AuditPublisher,
) portssvc.ReversalSvcFacade {
	return &reversalService{
		paymentRepo:    paymentRepo,
		obligationRepo: obligationRepo,
		allocationRepo: allocationRepo,
		audit:          audit,
	}
}

var _ portssvc.ReversalSvcFacade = (*reversalService)(nil)

// ReverseObligation reverses every applied allocation referencing the
// obligation. The store may hold more than one applied allocation per
// obligation (historical duplicate settlements); all of them are reversed.
// Already-reversed allocations are skipped, which makes repeated calls
// no-ops rather than errors.
func (s *reversalService) ReverseObligation(ctx context.Context, orderNumber string, req dto.ReverseInvoiceRequest) (*dto.ReverseInvoiceResponse, error) {
	targetStatus := domain.ObligationPending
	if req.TargetStatus != "" {
		targetStatus = domain.ObligationStatus(req.TargetStatus)
		if targetStatus != domain.ObligationPending && targetStatus != domain.ObligationBadDebt {
			return nil, fmt.Errorf("%w: targetStatus must be PENDING or BAD_DEBT", apperrors.ErrValidation)
		}
	}
	reversedBy := req.ReversedBy
	if reversedBy == "" {
		reversedBy = "system"
	}

	obligation, err := s.obligationRepo.FindObligationByID(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to find obligation %s: %w", orderNumber, err)
	}

	allocations, err := s.allocationRepo.FindAllocationsByObligation(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations for %s: %w", orderNumber, err)
	}

	applied := make([]domain.Allocation, 0, len(allocations))
	for i := range allocations {
		if allocations[i].Status == domain.AllocationApplied {
			applied = append(applied, allocations[i])
		}
	}

	summaryFor := func() (*dto.ReverseInvoiceResponse, error) {
		summary, err := s.paymentRepo.GetCreditSummary(ctx, obligation.CompanyCode)
		if err != nil {
			return nil, fmt.Errorf("failed to get credit summary for %s: %w", obligation.CompanyCode, err)
		}
		return &dto.ReverseInvoiceResponse{
			OrderNumber:   orderNumber,
			NewStatus:     string(obligation.PaymentStatus),
			CreditSummary: dto.ToCreditSummaryResponse(summary),
		}, nil
	}

	if len(applied) == 0 {
		// Everything already reversed (or never settled): a no-op, not an
		// error. The obligation keeps its current status.
		s.LogInfo(ctx, "No applied allocations to reverse", slog.String("order_number", orderNumber))
		resp, err := summaryFor()
		if err != nil {
			return nil, err
		}
		resp.AmountRestored = decimal.Zero
		return resp, nil
	}

	restored, allocationIDs, err := s.computeRestores(ctx, applied)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.allocationRepo.ApplyReversal(ctx, portsrepo.ReversalUpdate{
		ObligationID:  orderNumber,
		AllocationIDs: allocationIDs,
		NewStatus:     targetStatus,
		ReversedAt:    now,
		ReversedBy:    reversedBy,
		Reason:        req.Reason,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to commit reversal", slog.String("order_number", orderNumber))
		return nil, fmt.Errorf("failed to reverse obligation %s: %w", orderNumber, err)
	}

	s.audit.Publish(ctx, domain.AuditEvent{
		EventID:     uuid.NewString(),
		Action:      domain.AuditReverseInvoice,
		CompanyCode: obligation.CompanyCode,
		Actor:       reversedBy,
		Details: map[string]any{
			"orderNumber":         orderNumber,
			"amountRestored":      restored.String(),
			"allocationsReversed": len(allocationIDs),
			"targetStatus":        string(targetStatus),
			"reason":              req.Reason,
		},
		OccurredAt: now,
	})

	summary, err := s.paymentRepo.GetCreditSummary(ctx, obligation.CompanyCode)
	if err != nil {
		return nil, fmt.Errorf("reversed %s but failed to refresh credit summary: %w", orderNumber, err)
	}

	s.LogInfo(ctx, "Obligation reversed",
		slog.String("order_number", orderNumber),
		slog.String("amount_restored", restored.String()),
		slog.Int("allocations_reversed", len(allocationIDs)),
		slog.String("new_status", string(targetStatus)))

	return &dto.ReverseInvoiceResponse{
		OrderNumber:         orderNumber,
		AmountRestored:      restored,
		NewStatus:           string(targetStatus),
		AllocationsReversed: len(allocationIDs),
		CreditSummary:       dto.ToCreditSummaryResponse(summary),
	}, nil
}

// computeRestores totals the credit the reversal hands back and collects the
// allocation ids to flip. Soft-deleted payments keep their history but get no
// credit back, so their slices are excluded from the reported total; the
// store applies the same rule when it restores.
func (s *reversalService) computeRestores(ctx context.Context, applied []domain.Allocation) (decimal.Decimal, []string, error) {
	paymentIDs := make([]string, 0)
	seen := make(map[string]struct{})
	for i := range applied {
		for _, slice := range applied[i].FromPayments {
			if _, ok := seen[slice.PaymentID]; !ok {
				seen[slice.PaymentID] = struct{}{}
				paymentIDs = append(paymentIDs, slice.PaymentID)
			}
		}
	}

	payments, err := s.paymentRepo.FindPaymentsByIDs(ctx, paymentIDs)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("failed to load funding payments: %w", err)
	}

	restored := decimal.Zero
	allocationIDs := make([]string, 0, len(applied))
	for i := range applied {
		allocationIDs = append(allocationIDs, applied[i].AllocationID)
		for _, slice := range applied[i].FromPayments {
			payment, ok := payments[slice.PaymentID]
			if !ok {
				return decimal.Zero, nil, fmt.Errorf("%w: funding payment %s of allocation %s",
					apperrors.ErrNotFound, slice.PaymentID, applied[i].AllocationID)
			}
			if payment.IsDeleted() {
				s.LogWarn(ctx, "Skipping soft-deleted payment during reversal",
					slog.String("payment_id", slice.PaymentID),
					slog.String("allocation_id", applied[i].AllocationID))
				continue
			}
			restored = restored.Add(slice.Amount)
		}
	}
	return restored, allocationIDs, nil
}
