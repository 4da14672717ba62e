package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationStatus indicates whether an allocation still holds credit.
type AllocationStatus string

const (
	AllocationApplied  AllocationStatus = "APPLIED"
	AllocationReversed AllocationStatus = "REVERSED"
)

// AllocationSource indicates which workflow created an allocation.
type AllocationSource string

const (
	SourceSettlement        AllocationSource = "SETTLEMENT"
	SourceDirectApplication AllocationSource = "DIRECT_APPLICATION"
)

// Allocation represents credit moved from payments onto one obligation.
type Allocation struct {
	AllocationID   string           `json:"allocationID"` // Primary Key (UUID)
	CompanyCode    string           `json:"companyCode"`
	ObligationID   string           `json:"obligationID"`
	Amount         decimal.Decimal  `json:"amount"`
	Status         AllocationStatus `json:"status"`
	Source         AllocationSource `json:"source"`
	ReversedAt     *time.Time       `json:"reversedAt"`
	ReversedBy     *string          `json:"reversedBy"`
	ReversalReason *string          `json:"reversalReason"`
	AuditFields
}

// AllocationPayment is one funding slice row: how much of the allocation a
// single payment contributed. Rows are ordered for deterministic replay.
type AllocationPayment struct {
	AllocationID string          `json:"allocationID"`
	PaymentID    string          `json:"paymentID"`
	Amount       decimal.Decimal `json:"amount"`
	SliceOrder   int             `json:"sliceOrder"`
}
