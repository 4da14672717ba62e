package services

import (
	"context"

	"github.com/crestline/billing_ledger/internal/dto"
)

// CreditSvcFacade applies credit to single obligations outside the full
// settlement workflow, with a symmetric reversal-by-reference path.
type CreditSvcFacade interface {
	// ApplyCredit applies up to the requested amount of unallocated credit to
	// the obligation, oldest payments first. Partial coverage is allowed.
	ApplyCredit(ctx context.Context, orderNumber string, req dto.ApplyCreditRequest, actor string) (*dto.ApplyCreditResponse, error)

	// AllocateCreditToOrder applies as much available credit as the order
	// still needs (checkout use).
	AllocateCreditToOrder(ctx context.Context, orderNumber string, actor string) (*dto.AllocateOrderResponse, error)

	// ReverseAppliedCredit reverses every applied direct application against
	// the obligation. Reports zero reversed when none exist.
	ReverseAppliedCredit(ctx context.Context, companyCode, orderNumber string, actor string) (*dto.ReverseAppliedCreditResponse, error)
}
