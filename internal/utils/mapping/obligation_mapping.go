package mapping

import (
	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/crestline/billing_ledger/internal/models"
)

// ToModelObligation converts a domain Obligation to a model Obligation
func ToModelObligation(d domain.Obligation) models.Obligation {
	return models.Obligation{
		ObligationID:  d.ObligationID,
		CompanyCode:   d.CompanyCode,
		Total:         d.Total,
		PaymentStatus: models.ObligationStatus(d.PaymentStatus),
		DateSettled:   d.DateSettled,
		AllocationID:  d.AllocationID,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainObligation converts a model Obligation to a domain Obligation
func ToDomainObligation(m models.Obligation) domain.Obligation {
	return domain.Obligation{
		ObligationID:  m.ObligationID,
		CompanyCode:   m.CompanyCode,
		Total:         m.Total,
		PaymentStatus: domain.ObligationStatus(m.PaymentStatus),
		DateSettled:   m.DateSettled,
		AllocationID:  m.AllocationID,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainObligationSlice converts a slice of model Obligations to a slice of domain Obligations
func ToDomainObligationSlice(ms []models.Obligation) []domain.Obligation {
	ds := make([]domain.Obligation, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainObligation(m)
	}
	return ds
}
