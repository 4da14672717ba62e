package mapping

import (
	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/crestline/billing_ledger/internal/models"
)

// ToModelPayment converts a domain Payment to a model Payment
func ToModelPayment(d domain.Payment) models.Payment {
	return models.Payment{
		PaymentID:              d.PaymentID,
		CompanyCode:            d.CompanyCode,
		Amount:                 d.Amount,
		Allocated:              d.Allocated,
		Unallocated:            d.Unallocated,
		Method:                 d.Method,
		Reference:              d.Reference,
		ExternalTransactionRef: d.ExternalTransactionRef,
		Status:                 models.PaymentStatus(d.Status),
		CapturedAt:             d.CapturedAt,
		AuditFields:            ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainPayment converts a model Payment to a domain Payment
func ToDomainPayment(m models.Payment) domain.Payment {
	return domain.Payment{
		PaymentID:              m.PaymentID,
		CompanyCode:            m.CompanyCode,
		Amount:                 m.Amount,
		Allocated:              m.Allocated,
		Unallocated:            m.Unallocated,
		Method:                 m.Method,
		Reference:              m.Reference,
		ExternalTransactionRef: m.ExternalTransactionRef,
		Status:                 domain.PaymentStatus(m.Status),
		CapturedAt:             m.CapturedAt,
		AuditFields:            ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainPaymentSlice converts a slice of model Payments to a slice of domain Payments
func ToDomainPaymentSlice(ms []models.Payment) []domain.Payment {
	ds := make([]domain.Payment, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainPayment(m)
	}
	return ds
}
