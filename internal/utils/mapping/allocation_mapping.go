package mapping

import (
	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/crestline/billing_ledger/internal/models"
)

// ToModelAllocation converts a domain Allocation to a model Allocation.
// Funding slices travel separately as AllocationPayment rows.
func ToModelAllocation(d domain.Allocation) models.Allocation {
	return models.Allocation{
		AllocationID:   d.AllocationID,
		CompanyCode:    d.CompanyCode,
		ObligationID:   d.ObligationID,
		Amount:         d.Amount,
		Status:         models.AllocationStatus(d.Status),
		Source:         models.AllocationSource(d.Source),
		ReversedAt:     d.ReversedAt,
		ReversedBy:     d.ReversedBy,
		ReversalReason: d.ReversalReason,
		AuditFields:    ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainAllocation converts a model Allocation and its funding slice rows
// to a domain Allocation.
func ToDomainAllocation(m models.Allocation, slices []models.AllocationPayment) domain.Allocation {
	fromPayments := make([]domain.FundingSlice, len(slices))
	for i, s := range slices {
		fromPayments[i] = domain.FundingSlice{
			PaymentID: s.PaymentID,
			Amount:    s.Amount,
		}
	}
	return domain.Allocation{
		AllocationID:   m.AllocationID,
		CompanyCode:    m.CompanyCode,
		ObligationID:   m.ObligationID,
		Amount:         m.Amount,
		FromPayments:   fromPayments,
		Status:         domain.AllocationStatus(m.Status),
		Source:         domain.AllocationSource(m.Source),
		ReversedAt:     m.ReversedAt,
		ReversedBy:     m.ReversedBy,
		ReversalReason: m.ReversalReason,
		AuditFields:    ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelAllocationPayments converts a domain Allocation's funding slices to
// ordered AllocationPayment rows.
func ToModelAllocationPayments(d domain.Allocation) []models.AllocationPayment {
	rows := make([]models.AllocationPayment, len(d.FromPayments))
	for i, s := range d.FromPayments {
		rows[i] = models.AllocationPayment{
			AllocationID: d.AllocationID,
			PaymentID:    s.PaymentID,
			Amount:       s.Amount,
			SliceOrder:   i,
		}
	}
	return rows
}
