package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AllocationStatus indicates whether an allocation currently binds credit.
type AllocationStatus string

const (
	AllocationApplied  AllocationStatus = "APPLIED"
	AllocationReversed AllocationStatus = "REVERSED"
)

// AllocationSource distinguishes how an allocation was created. Settlement
// allocations always cover the obligation total; direct applications may be
// partial.
type AllocationSource string

const (
	SourceSettlement        AllocationSource = "SETTLEMENT"
	SourceDirectApplication AllocationSource = "DIRECT_APPLICATION"
)

// FundingSlice records how much of one payment's credit funds an allocation.
// Slices are ordered oldest payment first, matching the FIFO draw order.
type FundingSlice struct {
	PaymentID string          `json:"paymentID"`
	Amount    decimal.Decimal `json:"amount"`
}

// Allocation is the edge connecting one obligation to the payments that fund
// it. Reversed allocations are retained for audit, never hard-deleted.
type Allocation struct {
	AllocationID   string           `json:"allocationID"`
	CompanyCode    string           `json:"companyCode"`
	ObligationID   string           `json:"obligationID"`
	Amount         decimal.Decimal  `json:"amount"`
	FromPayments   []FundingSlice   `json:"fromPayments"`
	Status         AllocationStatus `json:"status"`
	Source         AllocationSource `json:"source"`
	ReversedAt     *time.Time       `json:"reversedAt,omitempty"`
	ReversedBy     *string          `json:"reversedBy,omitempty"`
	ReversalReason *string          `json:"reversalReason,omitempty"`
	AuditFields
}

// FundedTotal sums the allocation's funding slices. For an APPLIED allocation
// this must equal Amount.
func (a *Allocation) FundedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, s := range a.FromPayments {
		total = total.Add(s.Amount)
	}
	return total
}

// AllocationPlan is the outcome of a FIFO walk over unallocated credit.
// Shortfall is zero when the required amount was fully covered; the caller
// decides whether a partial plan is committable.
type AllocationPlan struct {
	Slices    []FundingSlice
	Planned   decimal.Decimal
	Shortfall decimal.Decimal
}
