package dto

import "github.com/shopspring/decimal"

// ReverseInvoiceRequest defines the data needed to reverse a settled
// obligation. TargetStatus defaults to PENDING; BAD_DEBT writes the debt off
// instead of re-opening it.
type ReverseInvoiceRequest struct {
	Reason       string `json:"reason"`
	TargetStatus string `json:"targetStatus" binding:"omitempty,oneof=PENDING BAD_DEBT"`
	ReversedBy   string `json:"reversedBy"`
}

// ReverseInvoiceResponse reports the outcome of a reversal.
type ReverseInvoiceResponse struct {
	OrderNumber         string                `json:"orderNumber"`
	AmountRestored      decimal.Decimal       `json:"amountRestored"`
	NewStatus           string                `json:"newStatus"`
	AllocationsReversed int                   `json:"allocationsReversed"`
	CreditSummary       CreditSummaryResponse `json:"creditSummary"`
}
