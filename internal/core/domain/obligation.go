package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ObligationStatus is the payment state of an invoice or order.
type ObligationStatus string

const (
	ObligationPending       ObligationStatus = "PENDING"
	ObligationPartiallyPaid ObligationStatus = "PARTIALLY_PAID"
	ObligationPaid          ObligationStatus = "PAID"
	ObligationBadDebt       ObligationStatus = "BAD_DEBT"
)

// Obligation is a debt owed by a company: an invoice or order awaiting
// settlement. Total is immutable. PaymentStatus is always derivable from the
// active allocations against the obligation.
type Obligation struct {
	ObligationID  string           `json:"obligationID"` // order/invoice number
	CompanyCode   string           `json:"companyCode"`
	Total         decimal.Decimal  `json:"total"`
	PaymentStatus ObligationStatus `json:"paymentStatus"`
	DateSettled   *time.Time       `json:"dateSettled,omitempty"`
	AllocationID  *string          `json:"allocationID,omitempty"` // current active allocation
	AuditFields
}

// StatusForCoverage derives the payment status implied by the given sum of
// active allocations against the obligation total.
func (o *Obligation) StatusForCoverage(covered decimal.Decimal) ObligationStatus {
	switch {
	case covered.LessThanOrEqual(decimal.Zero):
		return ObligationPending
	case WithinTolerance(covered, o.Total) || covered.GreaterThanOrEqual(o.Total):
		return ObligationPaid
	default:
		return ObligationPartiallyPaid
	}
}
