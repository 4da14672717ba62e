package services_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/crestline/billing_ledger/internal/core/domain"
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
)

// MockPaymentRepository is a mock implementation of PaymentRepositoryWithTx.
type MockPaymentRepository struct {
	mock.Mock
}

var _ portsrepo.PaymentRepositoryWithTx = (*MockPaymentRepository)(nil)

func (m *MockPaymentRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	var tx pgx.Tx
	if args.Get(0) != nil {
		tx = args.Get(0).(pgx.Tx)
	}
	return tx, args.Error(1)
}

func (m *MockPaymentRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockPaymentRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	var payment *domain.Payment
	if args.Get(0) != nil {
		payment = args.Get(0).(*domain.Payment)
	}
	return payment, args.Error(1)
}

func (m *MockPaymentRepository) FindPaymentsByIDs(ctx context.Context, paymentIDs []string) (map[string]domain.Payment, error) {
	args := m.Called(ctx, paymentIDs)
	var payments map[string]domain.Payment
	if args.Get(0) != nil {
		payments = args.Get(0).(map[string]domain.Payment)
	}
	return payments, args.Error(1)
}

func (m *MockPaymentRepository) FindPaymentByExternalRef(ctx context.Context, externalRef string) (*domain.Payment, error) {
	args := m.Called(ctx, externalRef)
	var payment *domain.Payment
	if args.Get(0) != nil {
		payment = args.Get(0).(*domain.Payment)
	}
	return payment, args.Error(1)
}

func (m *MockPaymentRepository) ListUnallocatedPayments(ctx context.Context, companyCode string) ([]domain.Payment, error) {
	args := m.Called(ctx, companyCode)
	var payments []domain.Payment
	if args.Get(0) != nil {
		payments = args.Get(0).([]domain.Payment)
	}
	return payments, args.Error(1)
}

func (m *MockPaymentRepository) ListPaymentsByCompany(ctx context.Context, companyCode string, limit, offset int) ([]domain.Payment, error) {
	args := m.Called(ctx, companyCode, limit, offset)
	var payments []domain.Payment
	if args.Get(0) != nil {
		payments = args.Get(0).([]domain.Payment)
	}
	return payments, args.Error(1)
}

func (m *MockPaymentRepository) ListAllPayments(ctx context.Context) ([]domain.Payment, error) {
	args := m.Called(ctx)
	var payments []domain.Payment
	if args.Get(0) != nil {
		payments = args.Get(0).([]domain.Payment)
	}
	return payments, args.Error(1)
}

func (m *MockPaymentRepository) GetCreditSummary(ctx context.Context, companyCode string) (*domain.CreditSummary, error) {
	args := m.Called(ctx, companyCode)
	var summary *domain.CreditSummary
	if args.Get(0) != nil {
		summary = args.Get(0).(*domain.CreditSummary)
	}
	return summary, args.Error(1)
}

func (m *MockPaymentRepository) ListCreditApplications(ctx context.Context, paymentID string) ([]domain.CreditApplication, error) {
	args := m.Called(ctx, paymentID)
	var apps []domain.CreditApplication
	if args.Get(0) != nil {
		apps = args.Get(0).([]domain.CreditApplication)
	}
	return apps, args.Error(1)
}

func (m *MockPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) CaptureIdempotent(ctx context.Context, payment domain.Payment) (*domain.Payment, bool, error) {
	args := m.Called(ctx, payment)
	var existing *domain.Payment
	if args.Get(0) != nil {
		existing = args.Get(0).(*domain.Payment)
	}
	return existing, args.Bool(1), args.Error(2)
}

func (m *MockPaymentRepository) MarkPaymentDeleted(ctx context.Context, paymentID string, deletedBy string, deletedAt time.Time) error {
	args := m.Called(ctx, paymentID, deletedBy, deletedAt)
	return args.Error(0)
}

// MockObligationRepository is a mock implementation of ObligationRepositoryWithTx.
type MockObligationRepository struct {
	mock.Mock
}

var _ portsrepo.ObligationRepositoryWithTx = (*MockObligationRepository)(nil)

func (m *MockObligationRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	var tx pgx.Tx
	if args.Get(0) != nil {
		tx = args.Get(0).(pgx.Tx)
	}
	return tx, args.Error(1)
}

func (m *MockObligationRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockObligationRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockObligationRepository) FindObligationByID(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	args := m.Called(ctx, obligationID)
	var obligation *domain.Obligation
	if args.Get(0) != nil {
		obligation = args.Get(0).(*domain.Obligation)
	}
	return obligation, args.Error(1)
}

func (m *MockObligationRepository) ListObligationsByCompany(ctx context.Context, companyCode string, status *domain.ObligationStatus, limit, offset int) ([]domain.Obligation, error) {
	args := m.Called(ctx, companyCode, status, limit, offset)
	var obligations []domain.Obligation
	if args.Get(0) != nil {
		obligations = args.Get(0).([]domain.Obligation)
	}
	return obligations, args.Error(1)
}

func (m *MockObligationRepository) ListPendingObligations(ctx context.Context, companyCode string) ([]domain.Obligation, error) {
	args := m.Called(ctx, companyCode)
	var obligations []domain.Obligation
	if args.Get(0) != nil {
		obligations = args.Get(0).([]domain.Obligation)
	}
	return obligations, args.Error(1)
}

func (m *MockObligationRepository) ListAllPendingObligations(ctx context.Context) ([]domain.Obligation, error) {
	args := m.Called(ctx)
	var obligations []domain.Obligation
	if args.Get(0) != nil {
		obligations = args.Get(0).([]domain.Obligation)
	}
	return obligations, args.Error(1)
}

func (m *MockObligationRepository) ListAllObligations(ctx context.Context) ([]domain.Obligation, error) {
	args := m.Called(ctx)
	var obligations []domain.Obligation
	if args.Get(0) != nil {
		obligations = args.Get(0).([]domain.Obligation)
	}
	return obligations, args.Error(1)
}

func (m *MockObligationRepository) SaveObligation(ctx context.Context, obligation domain.Obligation) error {
	args := m.Called(ctx, obligation)
	return args.Error(0)
}

// MockAllocationRepository is a mock implementation of AllocationRepositoryWithTx.
type MockAllocationRepository struct {
	mock.Mock
}

var _ portsrepo.AllocationRepositoryWithTx = (*MockAllocationRepository)(nil)

func (m *MockAllocationRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	var tx pgx.Tx
	if args.Get(0) != nil {
		tx = args.Get(0).(pgx.Tx)
	}
	return tx, args.Error(1)
}

func (m *MockAllocationRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockAllocationRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockAllocationRepository) FindAllocationByID(ctx context.Context, allocationID string) (*domain.Allocation, error) {
	args := m.Called(ctx, allocationID)
	var allocation *domain.Allocation
	if args.Get(0) != nil {
		allocation = args.Get(0).(*domain.Allocation)
	}
	return allocation, args.Error(1)
}

func (m *MockAllocationRepository) FindAllocationsByObligation(ctx context.Context, obligationID string) ([]domain.Allocation, error) {
	args := m.Called(ctx, obligationID)
	var allocations []domain.Allocation
	if args.Get(0) != nil {
		allocations = args.Get(0).([]domain.Allocation)
	}
	return allocations, args.Error(1)
}

func (m *MockAllocationRepository) ListAppliedAllocations(ctx context.Context) ([]domain.Allocation, error) {
	args := m.Called(ctx)
	var allocations []domain.Allocation
	if args.Get(0) != nil {
		allocations = args.Get(0).([]domain.Allocation)
	}
	return allocations, args.Error(1)
}

func (m *MockAllocationRepository) SaveAllocation(ctx context.Context, allocation domain.Allocation, settlement portsrepo.ObligationSettlement) error {
	args := m.Called(ctx, allocation, settlement)
	return args.Error(0)
}

func (m *MockAllocationRepository) ApplyReversal(ctx context.Context, update portsrepo.ReversalUpdate) error {
	args := m.Called(ctx, update)
	return args.Error(0)
}

// MockAuditPublisher is a mock implementation of AuditPublisher.
type MockAuditPublisher struct {
	mock.Mock
}

var _ portssvc.AuditPublisher = (*MockAuditPublisher)(nil)

func (m *MockAuditPublisher) Publish(ctx context.Context, event domain.AuditEvent) {
	m.Called(ctx, event)
}

func (m *MockAuditPublisher) Recent(ctx context.Context, companyCode string, limit int) ([]domain.AuditEvent, error) {
	args := m.Called(ctx, companyCode, limit)
	var events []domain.AuditEvent
	if args.Get(0) != nil {
		events = args.Get(0).([]domain.AuditEvent)
	}
	return events, args.Error(1)
}

func (m *MockAuditPublisher) Close() {
	m.Called()
}

// MockAuditEventRepository is a mock implementation of AuditEventRepository.
type MockAuditEventRepository struct {
	mock.Mock
}

var _ portsrepo.AuditEventRepository = (*MockAuditEventRepository)(nil)

func (m *MockAuditEventRepository) SaveAuditEvent(ctx context.Context, event domain.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockAuditEventRepository) ListAuditEvents(ctx context.Context, companyCode string, limit int) ([]domain.AuditEvent, error) {
	args := m.Called(ctx, companyCode, limit)
	var events []domain.AuditEvent
	if args.Get(0) != nil {
		events = args.Get(0).([]domain.AuditEvent)
	}
	return events, args.Error(1)
}
