package services

import (
	"context"

	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/crestline/billing_ledger/internal/dto"
)

// LedgerSvcFacade rebuilds the chronological running-balance ledger.
type LedgerSvcFacade interface {
	// BuildLedger merges all debits and credits for one company (or ALL) into
	// a chronological stream with a running balance over the entire history,
	// then windows it by the query's date range.
	BuildLedger(ctx context.Context, query dto.LedgerQuery) (*domain.LedgerStatement, error)
}
