package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus indicates whether a payment participates in credit queries.
// Deleted payments are retained for history but excluded from allocation and
// credit sums.
type PaymentStatus string

const (
	PaymentActive  PaymentStatus = "ACTIVE"
	PaymentDeleted PaymentStatus = "DELETED"
)

// Payment is a captured credit deposit for a company. Amount is immutable
// after capture; Allocated and Unallocated track how much of it currently
// funds allocations, and must always sum back to Amount.
type Payment struct {
	PaymentID              string          `json:"paymentID"`
	CompanyCode            string          `json:"companyCode"`
	Amount                 decimal.Decimal `json:"amount"`
	Allocated              decimal.Decimal `json:"allocated"`
	Unallocated            decimal.Decimal `json:"unallocated"`
	Method                 string          `json:"method"`
	Reference              string          `json:"reference"`
	ExternalTransactionRef *string         `json:"externalTransactionRef,omitempty"`
	Status                 PaymentStatus   `json:"status"`
	CapturedAt             time.Time       `json:"capturedAt"`
	AuditFields
}

// IsDeleted reports whether the payment has been soft-deleted.
func (p *Payment) IsDeleted() bool {
	return p.Status == PaymentDeleted
}

// CreditSummary is the aggregate credit position of a company over its
// non-deleted payments.
type CreditSummary struct {
	CompanyCode    string          `json:"companyCode"`
	TotalCredit    decimal.Decimal `json:"totalCredit"`
	TotalAllocated decimal.Decimal `json:"totalAllocated"`
	Available      decimal.Decimal `json:"available"`
}

// CreditApplication is the per-payment audit view of credit applied to an
// obligation, projected from allocation funding slices.
type CreditApplication struct {
	PaymentID    string          `json:"paymentID"`
	ObligationID string          `json:"obligationID"`
	AllocationID string          `json:"allocationID"`
	Amount       decimal.Decimal `json:"amount"`
	AppliedAt    time.Time       `json:"appliedAt"`
}
