package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/crestline/billing_ledger/internal/core/domain"
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
)

// integrityService scans the stores for invariant violations left behind by
// historical bugs: double captures, duplicate settlements and broken
// allocated/unallocated arithmetic. It is strictly read-only; every issue
// carries the ids and a recommendation for manual remediation.
type integrityService struct {
	BaseService
	paymentRepo    portsrepo.PaymentRepositoryWithTx
	allocationRepo portsrepo.AllocationRepositoryWithTx
}

// NewIntegrityService creates a new IntegrityService.
func NewIntegrityService(paymentRepo portsrepo.PaymentRepositoryWithTx, allocationRepo portsrepo.AllocationRepositoryWithTx) portssvc.IntegritySvcFacade {
	return &integrityService{paymentRepo: paymentRepo, allocationRepo: allocationRepo}
}

var _ portssvc.IntegritySvcFacade = (*integrityService)(nil)

// Diagnose runs every check and aggregates the findings with per-type counts.
func (s *integrityService) Diagnose(ctx context.Context) (*domain.IntegrityReport, error) {
	payments, err := s.paymentRepo.ListAllPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments for integrity scan: %w", err)
	}
	allocations, err := s.allocationRepo.ListAppliedAllocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load allocations for integrity scan: %w", err)
	}

	issues := make([]domain.IntegrityIssue, 0)
	issues = append(issues, duplicatePaymentIssues(payments)...)
	issues = append(issues, duplicateAllocationIssues(allocations)...)
	issues = append(issues, unallocatedMismatchIssues(payments)...)

	counts := make(map[domain.IntegrityIssueType]int)
	for _, issue := range issues {
		counts[issue.Type]++
	}

	s.LogInfo(ctx, "Integrity scan completed", slog.Int("issues", len(issues)))
	return &domain.IntegrityReport{Issues: issues, Counts: counts}, nil
}

// duplicatePaymentIssues flags non-deleted payments sharing company, amount
// and capture day: the signature of a double capture.
func duplicatePaymentIssues(payments []domain.Payment) []domain.IntegrityIssue {
	type dupKey struct {
		companyCode string
		amount      string
		day         string
	}
	groups := make(map[dupKey][]string)
	order := make([]dupKey, 0)
	for i := range payments {
		p := &payments[i]
		if p.IsDeleted() {
			continue
		}
		key := dupKey{
			companyCode: p.CompanyCode,
			amount:      p.Amount.String(),
			day:         p.CapturedAt.UTC().Format("2006-01-02"),
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], p.PaymentID)
	}

	issues := make([]domain.IntegrityIssue, 0)
	for _, key := range order {
		ids := groups[key]
		if len(ids) < 2 {
			continue
		}
		sort.Strings(ids)
		issues = append(issues, domain.IntegrityIssue{
			Type:        domain.IssueDuplicatePayment,
			CompanyCode: key.companyCode,
			PaymentIDs:  ids,
			Detail: fmt.Sprintf("%d payments of %s captured on %s for company %s",
				len(ids), key.amount, key.day, key.companyCode),
			Recommendation: "Verify against gateway records; soft-delete the duplicate capture and reverse any allocations it funded.",
		})
	}
	return issues
}

// duplicateAllocationIssues flags obligation/payment pairs referenced by more
// than one applied allocation, left behind by historical double settlements.
func duplicateAllocationIssues(allocations []domain.Allocation) []domain.IntegrityIssue {
	type linkKey struct {
		obligationID string
		paymentID    string
	}
	links := make(map[linkKey][]string)
	order := make([]linkKey, 0)
	for i := range allocations {
		a := &allocations[i]
		for _, slice := range a.FromPayments {
			key := linkKey{obligationID: a.ObligationID, paymentID: slice.PaymentID}
			if _, seen := links[key]; !seen {
				order = append(order, key)
			}
			links[key] = append(links[key], a.AllocationID)
		}
	}

	issues := make([]domain.IntegrityIssue, 0)
	for _, key := range order {
		allocationIDs := links[key]
		if len(allocationIDs) < 2 {
			continue
		}
		sort.Strings(allocationIDs)
		issues = append(issues, domain.IntegrityIssue{
			Type:          domain.IssueDuplicateAllocation,
			ObligationID:  key.obligationID,
			PaymentIDs:    []string{key.paymentID},
			AllocationIDs: allocationIDs,
			Detail: fmt.Sprintf("payment %s funds obligation %s through %d applied allocations (%s)",
				key.paymentID, key.obligationID, len(allocationIDs), strings.Join(allocationIDs, ", ")),
			Recommendation: "Reverse all but one allocation for the obligation, then re-check the payment's allocated total.",
		})
	}
	return issues
}

// unallocatedMismatchIssues flags payments whose allocated and unallocated
// parts no longer sum back to the captured amount.
func unallocatedMismatchIssues(payments []domain.Payment) []domain.IntegrityIssue {
	issues := make([]domain.IntegrityIssue, 0)
	for i := range payments {
		p := &payments[i]
		if domain.WithinTolerance(p.Allocated.Add(p.Unallocated), p.Amount) {
			continue
		}
		issues = append(issues, domain.IntegrityIssue{
			Type:        domain.IssueUnallocatedMismatch,
			CompanyCode: p.CompanyCode,
			PaymentIDs:  []string{p.PaymentID},
			Detail: fmt.Sprintf("payment %s: allocated %s + unallocated %s != amount %s",
				p.PaymentID, p.Allocated.String(), p.Unallocated.String(), p.Amount.String()),
			Recommendation: "Recompute the allocated total from applied allocations and correct the payment split manually.",
		})
	}
	return issues
}
