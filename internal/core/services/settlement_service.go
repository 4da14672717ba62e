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
)

var (
	ErrAlreadySettled    = errors.New("obligation is already settled")
	ErrObligationBadDebt = errors.New("obligation is written off as bad debt")
)

// settlementService clears obligations by allocating unallocated payment
// credit against them, one atomic unit per obligation.
type settlementService struct {
	BaseService
	paymentRepo    portsrepo.PaymentRepositoryWithTx
	obligationRepo portsrepo.ObligationRepositoryWithTx
	allocationRepo portsrepo.AllocationRepositoryWithTx
	engine         *allocationEngine
	audit          portssvc.AuditPublisher
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	paymentRepo portsrepo.PaymentRepositoryWithTx,
	obligationRepo portsrepo.ObligationRepositoryWithTx,
	allocationRepo portsrepo.AllocationRepositoryWithTx,
	audit portssvc.AuditPublisher,
) portssvc.SettlementSvcFacade {
	return &settlementService{
		paymentRepo:    paymentRepo,
		obligationRepo: obligationRepo,
		allocationRepo: allocationRepo,
		engine:         newAllocationEngine(paymentRepo),
		audit:          audit,
	}
}

var _ portssvc.SettlementSvcFacade = (*settlementService)(nil)

// SettleInvoices resolves the selector to a set of obligations and settles
// each independently. A failed obligation contributes an error result and
// never aborts the rest of the batch.
func (s *settlementService) SettleInvoices(ctx context.Context, selector dto.SettlementSelector, actor string) ([]dto.SettlementResult, error) {
	obligations, err := s.resolveObligations(ctx, selector)
	if err != nil {
		return nil, err
	}

	results := make([]dto.SettlementResult, 0, len(obligations))
	for _, item := range obligations {
		if item.err != nil {
			results = append(results, errorResult(item.orderNumber, item.err))
			continue
		}
		result, err := s.settleOne(ctx, item.obligation, actor)
		if err != nil {
			results = append(results, errorResult(item.orderNumber, err))
			continue
		}
		results = append(results, *result)
	}

	s.LogInfo(ctx, "Settlement batch completed",
		slog.String("mode", string(selector.Mode)),
		slog.Int("total", len(results)))
	return results, nil
}

// settlementItem pairs an order number with its resolved obligation, or the
// resolution failure for per-item reporting.
type settlementItem struct {
	orderNumber string
	obligation  *domain.Obligation
	err         error
}

func (s *settlementService) resolveObligations(ctx context.Context, selector dto.SettlementSelector) ([]settlementItem, error) {
	switch selector.Mode {
	case dto.SettleExplicit:
		items := make([]settlementItem, 0, len(selector.OrderNumbers))
		for _, orderNumber := range selector.OrderNumbers {
			obligation, err := s.obligationRepo.FindObligationByID(ctx, orderNumber)
			items = append(items, settlementItem{orderNumber: orderNumber, obligation: obligation, err: err})
		}
		return items, nil
	case dto.SettleCompanyAuto:
		pending, err := s.obligationRepo.ListPendingObligations(ctx, selector.CompanyCode)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending obligations for %s: %w", selector.CompanyCode, err)
		}
		return toSettlementItems(pending), nil
	case dto.SettleAdminAuto:
		pending, err := s.obligationRepo.ListAllPendingObligations(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending obligations: %w", err)
		}
		return toSettlementItems(pending), nil
	default:
		return nil, fmt.Errorf("%w: unknown settlement mode %q", apperrors.ErrValidation, selector.Mode)
	}
}

func toSettlementItems(obligations []domain.Obligation) []settlementItem {
	items := make([]settlementItem, len(obligations))
	for i := range obligations {
		items[i] = settlementItem{orderNumber: obligations[i].ObligationID, obligation: &obligations[i]}
	}
	return items
}

// settleOne fully settles a single obligation as one atomic unit:
//  1. pre-check available credit (cheap rejection, no mutation);
//  2. plan a FIFO allocation against the live unallocated snapshot;
//  3. a shortfall after a passing pre-check means a concurrent consumer won
//     the credit, so the operation aborts with no mutation at all;
//  4. commit allocation + payment decrements + obligation update atomically.
//     The obligation status and the payment decrements are re-checked inside
//     the transaction, so a writer racing between plan and commit also
//     surfaces as a conflict.
func (s *settlementService) settleOne(ctx context.Context, obligation *domain.Obligation, actor string) (*dto.SettlementResult, error) {
	outstanding, err := s.outstandingAmount(ctx, obligation)
	if err != nil {
		return nil, err
	}

	summary, err := s.paymentRepo.GetCreditSummary(ctx, obligation.CompanyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get credit summary for %s: %w", obligation.CompanyCode, err)
	}
	if summary.Available.LessThan(outstanding) {
		return nil, fmt.Errorf("%w: need %s, available %s", apperrors.ErrInsufficientCredit,
			outstanding.String(), summary.Available.String())
	}

	plan, err := s.engine.Plan(ctx, obligation.CompanyCode, outstanding)
	if err != nil {
		return nil, err
	}
	if plan.Shortfall.GreaterThan(decimal.Zero) {
		// The pre-check passed but the live snapshot no longer covers the
		// amount: a concurrent allocation consumed the credit in between.
		// Nothing has been mutated yet.
		s.LogWarn(ctx, "Allocation shortfall after passing pre-check, concurrent consumption detected",
			slog.String("order_number", obligation.ObligationID),
			slog.String("shortfall", plan.Shortfall.String()))
		return nil, fmt.Errorf("%w: shortfall %s on obligation %s", apperrors.ErrConcurrencyConflict,
			plan.Shortfall.String(), obligation.ObligationID)
	}

	now := time.Now().UTC()
	allocation := domain.Allocation{
		AllocationID: uuid.NewString(),
		CompanyCode:  obligation.CompanyCode,
		ObligationID: obligation.ObligationID,
		Amount:       outstanding,
		FromPayments: plan.Slices,
		Status:       domain.AllocationApplied,
		Source:       domain.SourceSettlement,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}

	settled := now
	err = s.allocationRepo.SaveAllocation(ctx, allocation, portsrepo.ObligationSettlement{
		ObligationID:     obligation.ObligationID,
		ExpectedStatus:   obligation.PaymentStatus,
		NewStatus:        domain.ObligationPaid,
		DateSettled:      &settled,
		SetAllocationRef: true,
		UpdatedBy:        actor,
		UpdatedAt:        now,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrConcurrencyConflict) {
			s.LogWarn(ctx, "Settlement aborted by in-transaction allocation guard",
				slog.String("order_number", obligation.ObligationID))
		} else {
			s.LogError(ctx, err, "Failed to commit settlement",
				slog.String("order_number", obligation.ObligationID))
		}
		return nil, err
	}

	s.audit.Publish(ctx, domain.AuditEvent{
		EventID:     uuid.NewString(),
		Action:      domain.AuditSettleInvoice,
		CompanyCode: obligation.CompanyCode,
		Actor:       actor,
		Details: map[string]any{
			"orderNumber":  obligation.ObligationID,
			"amount":       outstanding.String(),
			"allocationID": allocation.AllocationID,
			"fromPayments": dto.ToFundingSliceResponses(plan.Slices),
		},
		OccurredAt: now,
	})

	refreshed, err := s.paymentRepo.GetCreditSummary(ctx, obligation.CompanyCode)
	if err != nil {
		return nil, fmt.Errorf("settled %s but failed to refresh credit summary: %w", obligation.ObligationID, err)
	}
	summaryResp := dto.ToCreditSummaryResponse(refreshed)

	s.LogInfo(ctx, "Obligation settled",
		slog.String("order_number", obligation.ObligationID),
		slog.String("allocation_id", allocation.AllocationID),
		slog.String("amount", outstanding.String()))

	return &dto.SettlementResult{
		OrderNumber:   obligation.ObligationID,
		Message:       "settled",
		AllocationID:  allocation.AllocationID,
		FromPayments:  dto.ToFundingSliceResponses(plan.Slices),
		CreditSummary: &summaryResp,
	}, nil
}

// outstandingAmount computes how much credit the obligation still needs.
// Pending obligations need their full total; partially paid ones only the
// remainder not covered by applied allocations.
func (s *settlementService) outstandingAmount(ctx context.Context, obligation *domain.Obligation) (decimal.Decimal, error) {
	switch obligation.PaymentStatus {
	case domain.ObligationPaid:
		return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrAlreadySettled)
	case domain.ObligationBadDebt:
		return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrObligationBadDebt)
	case domain.ObligationPending:
		return obligation.Total, nil
	}

	// Partially paid: subtract the applied coverage.
	allocations, err := s.allocationRepo.FindAllocationsByObligation(ctx, obligation.ObligationID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load allocations for %s: %w", obligation.ObligationID, err)
	}
	covered := decimal.Zero
	for i := range allocations {
		if allocations[i].Status == domain.AllocationApplied {
			covered = covered.Add(allocations[i].Amount)
		}
	}
	outstanding := obligation.Total.Sub(covered)
	if outstanding.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrConflict, ErrAlreadySettled)
	}
	return outstanding, nil
}

// errorResult maps a settlement failure to its per-item result, carrying a
// stable error kind plus the ids an operator needs to reconcile manually.
func errorResult(orderNumber string, err error) dto.SettlementResult {
	return dto.SettlementResult{
		OrderNumber: orderNumber,
		ErrorKind:   errorKind(err),
		Error:       err.Error(),
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInsufficientCredit):
		return "INSUFFICIENT_CREDIT"
	case errors.Is(err, apperrors.ErrConcurrencyConflict):
		return "CONCURRENCY_CONFLICT"
	case errors.Is(err, apperrors.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, apperrors.ErrValidation):
		return "VALIDATION"
	case errors.Is(err, apperrors.ErrConflict):
		return "CONFLICT"
	default:
		return "INTERNAL"
	}
}
