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

// creditService applies credit to single obligations outside the settlement
// workflow. Direct applications are full Allocation records tagged with
// source DIRECT_APPLICATION, so one reversal path serves both workflows and
// the per-payment audit trail is a projection, not a second data shape.
type creditService struct {
	BaseService
	paymentRepo    portsrepo.PaymentRepositoryWithTx
	obligationRepo portsrepo.ObligationRepositoryWithTx
	allocationRepo portsrepo.AllocationRepositoryWithTx
	engine         *allocationEngine
	audit          portssvc.AuditPublisher
}

// NewCreditService creates a new CreditService.
func NewCreditService(
	paymentRepo portsrepo.PaymentRepositoryWithTx,
	obligationRepo portsrepo.ObligationRepositoryWithTx,
	allocationRepo portsrepo.AllocationRepositoryWithTx,
	audit portssvc.AuditPublisher,
) portssvc.CreditSvcFacade {
	return &creditService{
		paymentRepo:    paymentRepo,
		obligationRepo: obligationRepo,
		allocationRepo: allocationRepo,
		engine:         newAllocationEngine(paymentRepo),
		audit:          audit,
	}
}

var _ portssvc.CreditSvcFacade = (*creditService)(nil)

// ApplyCredit applies up to the requested amount of unallocated credit to the
// obligation, oldest payments first. Unlike settlement, full coverage is not
// required: whatever credit exists is applied and the rest is reported as
// unused.
func (s *creditService) ApplyCredit(ctx context.Context, orderNumber string, req dto.ApplyCreditRequest, actor string) (*dto.ApplyCreditResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, ErrAmountNotPositive)
	}

	obligation, err := s.loadObligation(ctx, orderNumber, req.CompanyCode)
	if err != nil {
		return nil, err
	}

	plan, err := s.engine.Plan(ctx, obligation.CompanyCode, req.Amount)
	if err != nil {
		return nil, err
	}

	applied := plan.Planned
	var allocationID string
	if applied.GreaterThan(decimal.Zero) {
		allocationID, err = s.commitDirectAllocation(ctx, obligation, plan.Slices, applied, actor)
		if err != nil {
			return nil, err
		}
	}

	summary, err := s.paymentRepo.GetCreditSummary(ctx, obligation.CompanyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh credit summary for %s: %w", obligation.CompanyCode, err)
	}

	s.LogInfo(ctx, "Credit applied to obligation",
		slog.String("order_number", orderNumber),
		slog.String("applied", applied.String()),
		slog.String("unused", plan.Shortfall.String()))

	return &dto.ApplyCreditResponse{
		OrderNumber:   orderNumber,
		Applied:       applied,
		Unused:        plan.Shortfall,
		AllocationID:  allocationID,
		FromPayments:  dto.ToFundingSliceResponses(plan.Slices),
		CreditSummary: dto.ToCreditSummaryResponse(summary),
	}, nil
}

// AllocateCreditToOrder applies as much available credit as the order still
// needs, the checkout-time variant of ApplyCredit. RemainingBalance reports
// the unpaid remainder after allocation.
func (s *creditService) AllocateCreditToOrder(ctx context.Context, orderNumber string, actor string) (*dto.AllocateOrderResponse, error) {
	obligation, err := s.loadObligation(ctx, orderNumber, "")
	if err != nil {
		return nil, err
	}

	outstanding, err := s.outstandingAmount(ctx, obligation)
	if err != nil {
		return nil, err
	}

	summaryResponse := func() (dto.CreditSummaryResponse, error) {
		summary, err := s.paymentRepo.GetCreditSummary(ctx, obligation.CompanyCode)
		if err != nil {
			return dto.CreditSummaryResponse{}, fmt.Errorf("failed to get credit summary for %s: %w", obligation.CompanyCode, err)
		}
		return dto.ToCreditSummaryResponse(summary), nil
	}

	if outstanding.LessThanOrEqual(decimal.Zero) {
		summary, err := summaryResponse()
		if err != nil {
			return nil, err
		}
		return &dto.AllocateOrderResponse{
			OrderNumber:      orderNumber,
			Allocated:        decimal.Zero,
			RemainingBalance: decimal.Zero,
			CreditSummary:    summary,
		}, nil
	}

	plan, err := s.engine.Plan(ctx, obligation.CompanyCode, outstanding)
	if err != nil {
		return nil, err
	}

	allocated := plan.Planned
	if allocated.GreaterThan(decimal.Zero) {
		if _, err := s.commitDirectAllocation(ctx, obligation, plan.Slices, allocated, actor); err != nil {
			return nil, err
		}
	}

	summary, err := summaryResponse()
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Credit allocated to order",
		slog.String("order_number", orderNumber),
		slog.String("allocated", allocated.String()),
		slog.String("remaining_balance", plan.Shortfall.String()))

	return &dto.AllocateOrderResponse{
		OrderNumber:      orderNumber,
		Allocated:        allocated,
		RemainingBalance: plan.Shortfall,
		FromPayments:     dto.ToFundingSliceResponses(plan.Slices),
		CreditSummary:    summary,
	}, nil
}

// ReverseAppliedCredit reverses every applied direct application against the
// obligation, restoring the credit to its funding payments. Zero reversed is
// a valid no-op outcome, not an error.
func (s *creditService) ReverseAppliedCredit(ctx context.Context, companyCode, orderNumber string, actor string) (*dto.ReverseAppliedCreditResponse, error) {
	obligation, err := s.loadObligation(ctx, orderNumber, companyCode)
	if err != nil {
		return nil, err
	}

	allocations, err := s.allocationRepo.FindAllocationsByObligation(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations for %s: %w", orderNumber, err)
	}

	direct := make([]domain.Allocation, 0, len(allocations))
	keptCoverage := decimal.Zero
	for i := range allocations {
		if allocations[i].Status != domain.AllocationApplied {
			continue
		}
		if allocations[i].Source == domain.SourceDirectApplication {
			direct = append(direct, allocations[i])
		} else {
			keptCoverage = keptCoverage.Add(allocations[i].Amount)
		}
	}

	if len(direct) == 0 {
		summary, err := s.paymentRepo.GetCreditSummary(ctx, obligation.CompanyCode)
		if err != nil {
			return nil, fmt.Errorf("failed to get credit summary for %s: %w", obligation.CompanyCode, err)
		}
		return &dto.ReverseAppliedCreditResponse{
			OrderNumber:   orderNumber,
			ReversedTotal: decimal.Zero,
			CreditSummary: dto.ToCreditSummaryResponse(summary),
		}, nil
	}

	reversal := reversalService{
		paymentRepo:    s.paymentRepo,
		obligationRepo: s.obligationRepo,
		allocationRepo: s.allocationRepo,
		audit:          s.audit,
	}
	restored, allocationIDs, err := reversal.computeRestores(ctx, direct)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	newStatus := obligation.StatusForCoverage(keptCoverage)
	err = s.allocationRepo.ApplyReversal(ctx, portsrepo.ReversalUpdate{
		ObligationID:  orderNumber,
		AllocationIDs: allocationIDs,
		NewStatus:     newStatus,
		ReversedAt:    now,
		ReversedBy:    actor,
		Reason:        "direct credit application reversed",
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to reverse applied credit", slog.String("order_number", orderNumber))
		return nil, fmt.Errorf("failed to reverse applied credit on %s: %w", orderNumber, err)
	}

	s.audit.Publish(ctx, domain.AuditEvent{
		EventID:     uuid.NewString(),
		Action:      domain.AuditReverseCredit,
		CompanyCode: obligation.CompanyCode,
		Actor:       actor,
		Details: map[string]any{
			"orderNumber":         orderNumber,
			"reversedTotal":       restored.String(),
			"allocationsReversed": len(allocationIDs),
		},
		OccurredAt: now,
	})

	summary, err := s.paymentRepo.GetCreditSummary(ctx, obligation.CompanyCode)
	if err != nil {
		return nil, fmt.Errorf("reversed credit on %s but failed to refresh summary: %w", orderNumber, err)
	}

	s.LogInfo(ctx, "Applied credit reversed",
		slog.String("order_number", orderNumber),
		slog.String("reversed_total", restored.String()),
		slog.Int("allocations_reversed", len(allocationIDs)))

	return &dto.ReverseAppliedCreditResponse{
		OrderNumber:         orderNumber,
		ReversedTotal:       restored,
		AllocationsReversed: len(allocationIDs),
		CreditSummary:       dto.ToCreditSummaryResponse(summary),
	}, nil
}

// loadObligation fetches an obligation and, when a company code is supplied,
// verifies it belongs to that company.
func (s *creditService) loadObligation(ctx context.Context, orderNumber, companyCode string) (*domain.Obligation, error) {
	obligation, err := s.obligationRepo.FindObligationByID(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to find obligation %s: %w", orderNumber, err)
	}
	if companyCode != "" && obligation.CompanyCode != companyCode {
		return nil, fmt.Errorf("%w: obligation %s does not belong to company %s",
			apperrors.ErrValidation, orderNumber, companyCode)
	}
	return obligation, nil
}

// outstandingAmount computes the unpaid remainder of the obligation over its
// applied allocations.
func (s *creditService) outstandingAmount(ctx context.Context, obligation *domain.Obligation) (decimal.Decimal, error) {
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
	return obligation.Total.Sub(covered), nil
}

// commitDirectAllocation writes a DIRECT_APPLICATION allocation and the
// obligation status implied by its new coverage, atomically.
func (s *creditService) commitDirectAllocation(ctx context.Context, obligation *domain.Obligation, slices []domain.FundingSlice, amount decimal.Decimal, actor string) (string, error) {
	covered, err := s.coveredAmount(ctx, obligation)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	allocation := domain.Allocation{
		AllocationID: uuid.NewString(),
		CompanyCode:  obligation.CompanyCode,
		ObligationID: obligation.ObligationID,
		Amount:       amount,
		FromPayments: slices,
		Status:       domain.AllocationApplied,
		Source:       domain.SourceDirectApplication,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}

	newStatus := obligation.StatusForCoverage(covered.Add(amount))
	var dateSettled *time.Time
	if newStatus == domain.ObligationPaid {
		dateSettled = &now
	}

	err = s.allocationRepo.SaveAllocation(ctx, allocation, portsrepo.ObligationSettlement{
		ObligationID:   obligation.ObligationID,
		ExpectedStatus: obligation.PaymentStatus,
		NewStatus:      newStatus,
		DateSettled:    dateSettled,
		UpdatedBy:      actor,
		UpdatedAt:      now,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to commit direct allocation",
			slog.String("order_number", obligation.ObligationID))
		return "", err
	}

	s.audit.Publish(ctx, domain.AuditEvent{
		EventID:     uuid.NewString(),
		Action:      domain.AuditApplyCredit,
		CompanyCode: obligation.CompanyCode,
		Actor:       actor,
		Details: map[string]any{
			"orderNumber":  obligation.ObligationID,
			"amount":       amount.String(),
			"allocationID": allocation.AllocationID,
			"newStatus":    string(newStatus),
		},
		OccurredAt: now,
	})

	return allocation.AllocationID, nil
}

// coveredAmount sums the applied allocations currently covering the
// obligation.
func (s *creditService) coveredAmount(ctx context.Context, obligation *domain.Obligation) (decimal.Decimal, error) {
	outstanding, err := s.outstandingAmount(ctx, obligation)
	if err != nil {
		return decimal.Zero, err
	}
	return obligation.Total.Sub(outstanding), nil
}
