package services

import (
	"context"
	"fmt"

	"github.com/crestline/billing_ledger/internal/apperrors"
	"github.com/crestline/billing_ledger/internal/core/domain"
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// allocationEngine matches unallocated payment credit to a required amount
// using a greedy, oldest-credit-first policy. Consuming the oldest credit
// first mirrors FIFO accounting conventions and keeps reversal independent of
// allocation order: any payment touched by an allocation can be restored
// without reconstructing history.
//
// The engine only plans. It never mutates payments itself; the plan's slices
// are applied behind per-payment guards inside the repository transaction
// that commits the allocation, so a concurrent consumer of the same credit
// surfaces as a conflict rather than a double-spend.
type allocationEngine struct {
	paymentRepo portsrepo.PaymentReader
}

func newAllocationEngine(paymentRepo portsrepo.PaymentReader) *allocationEngine {
	return &allocationEngine{paymentRepo: paymentRepo}
}

// Plan walks the company's unallocated payments oldest-first and drafts
// funding slices until the required amount is covered or credit runs out.
// Shortfall reports the uncovered remainder; the caller decides whether a
// partial plan is committable.
func (e *allocationEngine) Plan(ctx context.Context, companyCode string, required decimal.Decimal) (*domain.AllocationPlan, error) {
	if required.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: required amount must be positive, got %s", apperrors.ErrValidation, required.String())
	}

	payments, err := e.paymentRepo.ListUnallocatedPayments(ctx, companyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to list unallocated payments for %s: %w", companyCode, err)
	}

	return planFromSnapshot(payments, required), nil
}

// planFromSnapshot drafts a FIFO plan over an already-fetched payment
// snapshot. Split out so tests and callers holding a snapshot can plan
// without a store round-trip.
func planFromSnapshot(payments []domain.Payment, required decimal.Decimal) *domain.AllocationPlan {
	plan := &domain.AllocationPlan{
		Planned:   decimal.Zero,
		Shortfall: required,
	}

	remaining := required
	for i := range payments {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		p := &payments[i]
		if p.IsDeleted() || p.Unallocated.LessThanOrEqual(decimal.Zero) {
			continue
		}

		take := decimal.Min(remaining, p.Unallocated)
		plan.Slices = append(plan.Slices, domain.FundingSlice{
			PaymentID: p.PaymentID,
			Amount:    take,
		})
		plan.Planned = plan.Planned.Add(take)
		remaining = remaining.Sub(take)
	}

	plan.Shortfall = remaining
	return plan
}
