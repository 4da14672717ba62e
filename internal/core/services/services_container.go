package services

import (
	"log/slog"

	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
	"github.com/crestline/billing_ledger/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, logger *slog.Logger) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The audit publisher first: every mutating workflow records through it.
	container.Audit = NewAuditPublisher(repos.AuditRepo, logger, cfg.AuditBufferSize)

	container.Payment = NewPaymentService(repos.PaymentRepo, container.Audit, cfg.GatewayTimeout)
	container.Obligation = NewObligationService(repos.ObligationRepo)
	container.Settlement = NewSettlementService(repos.PaymentRepo, repos.ObligationRepo, repos.AllocationRepo, container.Audit)
	container.Reversal = NewReversalService(repos.PaymentRepo, repos.ObligationRepo, repos.AllocationRepo, container.Audit)
	container.Credit = NewCreditService(repos.PaymentRepo, repos.ObligationRepo, repos.AllocationRepo, container.Audit)
	container.Ledger = NewLedgerService(repos.PaymentRepo, repos.ObligationRepo)
	container.Integrity = NewIntegrityService(repos.PaymentRepo, repos.AllocationRepo)

	return container
}

// Compile-time interface checks for the service implementations.
var (
	_ portssvc.PaymentSvcFacade    = (*paymentService)(nil)
	_ portssvc.SettlementSvcFacade = (*settlementService)(nil)
	_ portssvc.ReversalSvcFacade   = (*reversalService)(nil)
	_ portssvc.CreditSvcFacade     = (*creditService)(nil)
)
