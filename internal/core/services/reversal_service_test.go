package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/crestline/billing_ledger/internal/apperrors"
	"github.com/crestline/billing_ledger/internal/core/domain"
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
	"github.com/crestline/billing_ledger/internal/core/services"
	"github.com/crestline/billing_ledger/internal/dto"
)

type ReversalServiceTestSuite struct {
	suite.Suite
	mockPaymentRepo    *MockPaymentRepository
	mockObligationRepo *MockObligationRepository
	mockAllocationRepo *MockAllocationRepository
	mockAudit          *MockAuditPublisher
	service            portssvc.ReversalSvcFacade
	ctx                context.Context
}

func (suite *ReversalServiceTestSuite) SetupTest() {
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockObligationRepo = new(MockObligationRepository)
	suite.mockAllocationRepo = new(MockAllocationRepository)
	suite.mockAudit = new(MockAuditPublisher)
	suite.service = services.NewReversalService(
		suite.mockPaymentRepo, suite.mockObligationRepo, suite.mockAllocationRepo, suite.mockAudit)
	suite.ctx = context.Background()
}

func (suite *ReversalServiceTestSuite) settledObligation() *domain.Obligation {
	return &domain.Obligation{
		ObligationID:  "ORD-1",
		CompanyCode:   "ACME",
		Total:         decimal.NewFromInt(300),
		PaymentStatus: domain.ObligationPaid,
	}
}

func (suite *ReversalServiceTestSuite) appliedAllocation(id string, slices ...domain.FundingSlice) domain.Allocation {
	total := decimal.Zero
	for _, s := range slices {
		total = total.Add(s.Amount)
	}
	return domain.Allocation{
		AllocationID: id,
		CompanyCode:  "ACME",
		ObligationID: "ORD-1",
		Amount:       total,
		FromPayments: slices,
		Status:       domain.AllocationApplied,
		Source:       domain.SourceSettlement,
	}
}

func (suite *ReversalServiceTestSuite) TestReverseObligation_RestoresCredit() {
	allocation := suite.appliedAllocation("ALLOC-1",
		domain.FundingSlice{PaymentID: "PAY-1", Amount: decimal.NewFromInt(200)},
		domain.FundingSlice{PaymentID: "PAY-2", Amount: decimal.NewFromInt(100)},
	)

	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").
		Return(suite.settledObligation(), nil).Once()
	suite.mockAllocationRepo.On("FindAllocationsByObligation", suite.ctx, "ORD-1").
		Return([]domain.Allocation{allocation}, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByIDs", suite.ctx, []string{"PAY-1", "PAY-2"}).
		Return(map[string]domain.Payment{
			"PAY-1": {PaymentID: "PAY-1", Status: domain.PaymentActive},
			"PAY-2": {PaymentID: "PAY-2", Status: domain.PaymentActive},
		}, nil).Once()
	suite.mockAllocationRepo.On("ApplyReversal", suite.ctx, mock.MatchedBy(func(u portsrepo.ReversalUpdate) bool {
		return u.ObligationID == "ORD-1" &&
			len(u.AllocationIDs) == 1 && u.AllocationIDs[0] == "ALLOC-1" &&
			u.NewStatus == domain.ObligationPending &&
			u.ReversedBy == "auditor" &&
			u.Reason == "chargeback"
	})).Return(nil).Once()
	suite.mockAudit.On("Publish", suite.ctx, mock.MatchedBy(func(e domain.AuditEvent) bool {
		return e.Action == domain.AuditReverseInvoice
	})).Return().Once()
	suite.mockPaymentRepo.On("GetCreditSummary", suite.ctx, "ACME").
		Return(&domain.CreditSummary{CompanyCode: "ACME", Available: decimal.NewFromInt(300)}, nil).Once()

	resp, err := suite.service.ReverseObligation(suite.ctx, "ORD-1", dto.ReverseInvoiceRequest{
		Reason:     "chargeback",
		ReversedBy: "auditor",
	})

	suite.Require().NoError(err)
	suite.True(resp.AmountRestored.Equal(decimal.NewFromInt(300)))
	suite.Equal(string(domain.ObligationPending), resp.NewStatus)
	suite.Equal(1, resp.AllocationsReversed)
	suite.mockAllocationRepo.AssertExpectations(suite.T())
	suite.mockAudit.AssertExpectations(suite.T())
}

func (suite *ReversalServiceTestSuite) TestReverseObligation_NoAppliedAllocationsIsNoOp() {
	reversed := suite.appliedAllocation("ALLOC-1",
		domain.FundingSlice{PaymentID: "PAY-1", Amount: decimal.NewFromInt(300)})
	reversed.Status = domain.AllocationReversed

	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").
		Return(suite.settledObligation(), nil).Once()
	suite.mockAllocationRepo.On("FindAllocationsByObligation", suite.ctx, "ORD-1").
		Return([]domain.Allocation{reversed}, nil).Once()
	suite.mockPaymentRepo.On("GetCreditSummary", suite.ctx, "ACME").
		Return(&domain.CreditSummary{CompanyCode: "ACME", Available: decimal.NewFromInt(300)}, nil).Once()

	resp, err := suite.service.ReverseObligation(suite.ctx, "ORD-1", dto.ReverseInvoiceRequest{})

	suite.Require().NoError(err)
	suite.True(resp.AmountRestored.IsZero())
	suite.Equal(string(domain.ObligationPaid), resp.NewStatus)
	suite.mockAllocationRepo.AssertNotCalled(suite.T(), "ApplyReversal", mock.Anything, mock.Anything)
	suite.mockAudit.AssertNotCalled(suite.T(), "Publish", mock.Anything, mock.Anything)
}

func (suite *ReversalServiceTestSuite) TestReverseObligation_SkipsDeletedPayments() {
	allocation := suite.appliedAllocation("ALLOC-1",
		domain.FundingSlice{PaymentID: "PAY-LIVE", Amount: decimal.NewFromInt(200)},
		domain.FundingSlice{PaymentID: "PAY-GONE", Amount: decimal.NewFromInt(100)},
	)

	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").
		Return(suite.settledObligation(), nil).Once()
	suite.mockAllocationRepo.On("FindAllocationsByObligation", suite.ctx, "ORD-1").
		Return([]domain.Allocation{allocation}, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByIDs", suite.ctx, []string{"PAY-LIVE", "PAY-GONE"}).
		Return(map[string]domain.Payment{
			"PAY-LIVE": {PaymentID: "PAY-LIVE", Status: domain.PaymentActive},
			"PAY-GONE": {PaymentID: "PAY-GONE", Status: domain.PaymentDeleted},
		}, nil).Once()
	suite.mockAllocationRepo.On("ApplyReversal", suite.ctx, mock.MatchedBy(func(u portsrepo.ReversalUpdate) bool {
		return len(u.AllocationIDs) == 1 && u.AllocationIDs[0] == "ALLOC-1"
	})).Return(nil).Once()
	suite.mockAudit.On("Publish", suite.ctx, mock.AnythingOfType("domain.AuditEvent")).Return().Once()
	suite.mockPaymentRepo.On("GetCreditSummary", suite.ctx, "ACME").
		Return(&domain.CreditSummary{CompanyCode: "ACME", Available: decimal.NewFromInt(200)}, nil).Once()

	resp, err := suite.service.ReverseObligation(suite.ctx, "ORD-1", dto.ReverseInvoiceRequest{})

	suite.Require().NoError(err)
	suite.True(resp.AmountRestored.Equal(decimal.NewFromInt(200)))
	suite.mockAllocationRepo.AssertExpectations(suite.T())
}

func (suite *ReversalServiceTestSuite) TestReverseObligation_BadDebtTarget() {
	allocation := suite.appliedAllocation("ALLOC-1",
		domain.FundingSlice{PaymentID: "PAY-1", Amount: decimal.NewFromInt(300)})

	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").
		Return(suite.settledObligation(), nil).Once()
	suite.mockAllocationRepo.On("FindAllocationsByObligation", suite.ctx, "ORD-1").
		Return([]domain.Allocation{allocation}, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByIDs", suite.ctx, []string{"PAY-1"}).
		Return(map[string]domain.Payment{
			"PAY-1": {PaymentID: "PAY-1", Status: domain.PaymentActive},
		}, nil).Once()
	suite.mockAllocationRepo.On("ApplyReversal", suite.ctx, mock.MatchedBy(func(u portsrepo.ReversalUpdate) bool {
		return u.NewStatus == domain.ObligationBadDebt && u.ReversedBy == "system"
	})).Return(nil).Once()
	suite.mockAudit.On("Publish", suite.ctx, mock.AnythingOfType("domain.AuditEvent")).Return().Once()
	suite.mockPaymentRepo.On("GetCreditSummary", suite.ctx, "ACME").
		Return(&domain.CreditSummary{CompanyCode: "ACME", Available: decimal.NewFromInt(300)}, nil).Once()

	resp, err := suite.service.ReverseObligation(suite.ctx, "ORD-1", dto.ReverseInvoiceRequest{
		TargetStatus: string(domain.ObligationBadDebt),
	})

	suite.Require().NoError(err)
	suite.Equal(string(domain.ObligationBadDebt), resp.NewStatus)
	suite.mockAllocationRepo.AssertExpectations(suite.T())
}

func (suite *ReversalServiceTestSuite) TestReverseObligation_InvalidTargetStatus() {
	_, err := suite.service.ReverseObligation(suite.ctx, "ORD-1", dto.ReverseInvoiceRequest{
		TargetStatus: "PAID",
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockObligationRepo.AssertNotCalled(suite.T(), "FindObligationByID", mock.Anything, mock.Anything)
}

func (suite *ReversalServiceTestSuite) TestReverseObligation_MissingFundingPayment() {
	allocation := suite.appliedAllocation("ALLOC-1",
		domain.FundingSlice{PaymentID: "PAY-1", Amount: decimal.NewFromInt(300)})

	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").
		Return(suite.settledObligation(), nil).Once()
	suite.mockAllocationRepo.On("FindAllocationsByObligation", suite.ctx, "ORD-1").
		Return([]domain.Allocation{allocation}, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByIDs", suite.ctx, []string{"PAY-1"}).
		Return(map[string]domain.Payment{}, nil).Once()

	_, err := suite.service.ReverseObligation(suite.ctx, "ORD-1", dto.ReverseInvoiceRequest{})

	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockAllocationRepo.AssertNotCalled(suite.T(), "ApplyReversal", mock.Anything, mock.Anything)
}

func TestReversalServiceSuite(t *testing.T) {
	suite.Run(t, new(ReversalServiceTestSuite))
}
