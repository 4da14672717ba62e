package repositories

// RepositoryProvider aggregates all repository implementations for injection
// into the service layer. No ambient singletons: every workflow receives its
// stores explicitly.
type RepositoryProvider struct {
	PaymentRepo    PaymentRepositoryWithTx
	ObligationRepo ObligationRepositoryWithTx
	AllocationRepo AllocationRepositoryWithTx
	AuditRepo      AuditEventRepository
}
