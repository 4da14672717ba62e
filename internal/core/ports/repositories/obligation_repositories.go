package repositories

import (
	"context"

	"github.com/crestline/billing_ledger/internal/core/domain"
)

// ObligationReader defines read operations for obligation data.
type ObligationReader interface {
	// FindObligationByID retrieves an obligation by its order/invoice number.
	FindObligationByID(ctx context.Context, obligationID string) (*domain.Obligation, error)

	// ListObligationsByCompany returns a company's obligations, optionally
	// filtered by payment status, newest first, paginated.
	ListObligationsByCompany(ctx context.Context, companyCode string, status *domain.ObligationStatus, limit, offset int) ([]domain.Obligation, error)

	// ListPendingObligations returns every PENDING obligation for a company,
	// oldest first. Feeds single-company auto-settlement.
	ListPendingObligations(ctx context.Context, companyCode string) ([]domain.Obligation, error)

	// ListAllPendingObligations returns every PENDING obligation across all
	// companies, oldest first. Feeds admin auto-settlement.
	ListAllPendingObligations(ctx context.Context) ([]domain.Obligation, error)

	// ListAllObligations returns every obligation in the store. Used by the
	// ledger builder and the integrity scan.
	ListAllObligations(ctx context.Context) ([]domain.Obligation, error)
}

// ObligationWriter defines write operations for obligation data.
type ObligationWriter interface {
	// SaveObligation inserts a new obligation with status PENDING.
	SaveObligation(ctx context.Context, obligation domain.Obligation) error
}

// ObligationRepositoryFacade combines all obligation repository interfaces.
type ObligationRepositoryFacade interface {
	ObligationReader
	ObligationWriter
}

// ObligationRepositoryWithTx extends ObligationRepositoryFacade with transaction capabilities.
type ObligationRepositoryWithTx interface {
	ObligationRepositoryFacade
	TransactionManager
}
