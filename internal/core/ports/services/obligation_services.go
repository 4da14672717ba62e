package services

import (
	"context"

	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/crestline/billing_ledger/internal/dto"
)

// ObligationSvcFacade exposes obligation bookkeeping.
type ObligationSvcFacade interface {
	// CreateObligation records a new debt with status PENDING.
	CreateObligation(ctx context.Context, req dto.CreateObligationRequest, actor string) (*domain.Obligation, error)

	// GetObligation returns one obligation by order number.
	GetObligation(ctx context.Context, orderNumber string) (*domain.Obligation, error)

	// ListObligations returns a company's obligations, optionally filtered by
	// payment status.
	ListObligations(ctx context.Context, companyCode string, params dto.ListObligationsParams) ([]domain.Obligation, error)
}
