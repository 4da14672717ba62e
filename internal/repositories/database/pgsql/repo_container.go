package pgsql

import (
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	paymentRepo := newPgxPaymentRepository(dbPool)
	obligationRepo := newPgxObligationRepository(dbPool)
	allocationRepo := newPgxAllocationRepository(dbPool)
	auditRepo := newPgxAuditRepository(dbPool)

	return portsrepo.RepositoryProvider{
		PaymentRepo:    paymentRepo,
		ObligationRepo: obligationRepo,
		AllocationRepo: allocationRepo,
		AuditRepo:      auditRepo,
	}
}
