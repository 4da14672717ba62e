package services

import (
	"context"

	"github.com/crestline/billing_ledger/internal/dto"
)

// ReversalSvcFacade undoes settlements, restoring credit to funding payments.
type ReversalSvcFacade interface {
	// ReverseObligation reverses every applied allocation of the obligation,
	// restores credit to the funding payments and resets the obligation to
	// the target status. Idempotent per allocation: already-reversed
	// allocations are skipped, not errors.
	ReverseObligation(ctx context.Context, orderNumber string, req dto.ReverseInvoiceRequest) (*dto.ReverseInvoiceResponse, error)
}
