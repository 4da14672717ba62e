package services

// ServiceContainer aggregates all service facades for injection into the
// handler layer.
type ServiceContainer struct {
	Payment    PaymentSvcFacade
	Obligation ObligationSvcFacade
	Settlement SettlementSvcFacade
	Reversal   ReversalSvcFacade
	Credit     CreditSvcFacade
	Ledger     LedgerSvcFacade
	Integrity  IntegritySvcFacade
	Audit      AuditPublisher
}
