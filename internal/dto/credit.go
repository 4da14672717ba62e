package dto

import "github.com/shopspring/decimal"

// ApplyCreditRequest applies up to Amount of a company's unallocated credit
// to one obligation. Partial coverage is allowed.
type ApplyCreditRequest struct {
	CompanyCode string          `json:"companyCode" binding:"required,companycode"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
}

// ApplyCreditResponse reports how much credit was applied and how much of the
// requested amount found no funding.
type ApplyCreditResponse struct {
	OrderNumber   string                 `json:"orderNumber"`
	Applied       decimal.Decimal        `json:"applied"`
	Unused        decimal.Decimal        `json:"unused"`
	AllocationID  string                 `json:"allocationID,omitempty"`
	FromPayments  []FundingSliceResponse `json:"fromPayments,omitempty"`
	CreditSummary CreditSummaryResponse  `json:"creditSummary"`
}

// AllocateOrderResponse reports the outcome of allocating available credit to
// one order at checkout. RemainingBalance is the unpaid remainder of the
// order after allocation.
type AllocateOrderResponse struct {
	OrderNumber      string                 `json:"orderNumber"`
	Allocated        decimal.Decimal        `json:"allocated"`
	RemainingBalance decimal.Decimal        `json:"remainingBalance"`
	FromPayments     []FundingSliceResponse `json:"fromPayments,omitempty"`
	CreditSummary    CreditSummaryResponse  `json:"creditSummary"`
}

// ReverseAppliedCreditResponse reports credit restored by reversing direct
// applications. ReversedTotal is zero when none existed (a no-op, not an
// error).
type ReverseAppliedCreditResponse struct {
	OrderNumber         string                `json:"orderNumber"`
	ReversedTotal       decimal.Decimal       `json:"reversedTotal"`
	AllocationsReversed int                   `json:"allocationsReversed"`
	CreditSummary       CreditSummaryResponse `json:"creditSummary"`
}
