package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ObligationStatus indicates how far an obligation is paid down.
type ObligationStatus string

const (
	ObligationPending       ObligationStatus = "PENDING"
	ObligationPartiallyPaid ObligationStatus = "PARTIALLY_PAID"
	ObligationPaid          ObligationStatus = "PAID"
	ObligationBadDebt       ObligationStatus = "BAD_DEBT"
)

// Obligation represents an invoice or order awaiting settlement.
type Obligation struct {
	ObligationID  string           `json:"obligationID"` // Order/invoice number, externally assigned
	CompanyCode   string           `json:"companyCode"`
	Total         decimal.Decimal  `json:"total"`
	PaymentStatus ObligationStatus `json:"paymentStatus"`
	DateSettled   *time.Time       `json:"dateSettled"`  // Set when fully PAID
	AllocationID  *string          `json:"allocationID"` // Settlement allocation ref, nullable
	AuditFields
}
