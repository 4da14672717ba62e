package services

import (
	"context"

	"github.com/crestline/billing_ledger/internal/dto"
)

// SettlementSvcFacade orchestrates credit allocation across obligations.
type SettlementSvcFacade interface {
	// SettleInvoices settles the obligations named by the resolved selector.
	// Each obligation is its own atomic unit; one failure never aborts the
	// batch. Results are reported per obligation.
	SettleInvoices(ctx context.Context, selector dto.SettlementSelector, actor string) ([]dto.SettlementResult, error)
}
