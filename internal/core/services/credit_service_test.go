package services_test

import (
	"context"
	"testing"
	"time"

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

type CreditServiceTestSuite struct {
	suite.Suite
	mockPaymentRepo    *MockPaymentRepository
	mockObligationRepo *MockObligationRepository
	mockAllocationRepo *MockAllocationRepository
	mockAudit          *MockAuditPublisher
	service            portssvc.CreditSvcFacade
	ctx                context.Context
}

func (suite *CreditServiceTestSuite) SetupTest() {
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockObligationRepo = new(MockObligationRepository)
	suite.mockAllocationRepo = new(MockAllocationRepository)
	suite.mockAudit = new(MockAuditPublisher)
	suite.service = services.NewCreditService(
		suite.mockPaymentRepo, suite.mockObligationRepo, suite.mockAllocationRepo, suite.mockAudit)
	suite.ctx = context.Background()
}

func (suite *CreditServiceTestSuite) obligation(total int64) *domain.Obligation {
	return &domain.Obligation{
		ObligationID:  "ORD-1",
		CompanyCode:   "ACME",
		Total:         decimal.NewFromInt(total),
		PaymentStatus: domain.ObligationPending,
	}
}

func (suite *CreditServiceTestSuite) unallocated(id string, amount int64, capturedAt time.Time) domain.Payment {
	return domain.Payment{
		PaymentID:   id,
		CompanyCode: "ACME",
		Amount:      decimal.NewFromInt(amount),
		Unallocated: decimal.NewFromInt(amount),
		Status:      domain.PaymentActive,
		CapturedAt:  capturedAt,
	}
}

func (suite *CreditServiceTestSuite) summary(available int64) *domain.CreditSummary {
	return &domain.CreditSummary{CompanyCode: "ACME", Available: decimal.NewFromInt(available)}
}

func (suite *CreditServiceTestSuite) TestApplyCredit_PartialCoverage() {
	t1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").
		Return(suite.obligation(500), nil).Once()
	suite.mockPaymentRepo.On("ListUnallocatedPayments", suite.ctx, "ACME").
		Return([]domain.Payment{suite.unallocated("PAY-1", 120, t1)}, nil).Once()
	suite.mockAllocationRepo.On("FindAllocationsByObligation", suite.ctx, "ORD-1").
		Return([]domain.Allocation{}, nil).Once()
	suite.mockAllocationRepo.On("SaveAllocation", suite.ctx,
		mock.MatchedBy(func(a domain.Allocation) bool {
			return a.Source == domain.SourceDirectApplication &&
				a.Amount.Equal(decimal.NewFromInt(120)) &&
				len(a.FromPayments) == 1 &&
				a.FromPayments[0].PaymentID == "PAY-1"
		}),
		mock.MatchedBy(func(s portsrepo.ObligationSettlement) bool {
			return s.ExpectedStatus == domain.ObligationPending &&
				s.NewStatus == domain.ObligationPartiallyPaid &&
				s.DateSettled == nil &&
				!s.SetAllocationRef
		}),
	).Return(nil).Once()
	suite.mockAudit.On("Publish", suite.ctx, mock.MatchedBy(func(e domain.AuditEvent) bool {
		return e.Action == domain.AuditApplyCredit
	})).Return().Once()
	suite.mockPaymentRepo.On("GetCreditSummary", suite.ctx, "ACME").Return(suite.summary(0), nil).Once()

	resp, err := suite.service.ApplyCredit(suite.ctx, "ORD-1",
		dto.ApplyCreditRequest{CompanyCode: "ACME", Amount: decimal.NewFromInt(300)}, "tester")

	suite.Require().NoError(err)
	suite.True(resp.Applied.Equal(decimal.NewFromInt(120)))
	suite.True(resp.Unused.Equal(decimal.NewFromInt(180)))
	suite.NotEmpty(resp.AllocationID)
	suite.mockAllocationRepo.AssertExpectations(suite.T())
	suite.mockAudit.AssertExpectations(suite.T())
}

func (suite *CreditServiceTestSuite) TestApplyCredit_NoCreditAvailable() {
	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").
		Return(suite.obligation(500), nil).Once()
	suite.mockPaymentRepo.On("ListUnallocatedPayments", suite.ctx, "ACME").
		Return([]domain.Payment{}, nil).Once()
	suite.mockPaymentRepo.On("GetCreditSummary", suite.ctx, "ACME").Return(suite.summary(0), nil).Once()

	resp, err := suite.service.ApplyCredit(suite.ctx, "ORD-1",
		dto.ApplyCreditRequest{CompanyCode: "ACME", Amount: decimal.NewFromInt(300)}, "tester")

	suite.Require().NoError(err)
	suite.True(resp.Applied.IsZero())
	suite.True(resp.Unused.Equal(decimal.NewFromInt(300)))
	suite.mockAllocationRepo.AssertNotCalled(suite.T(), "SaveAllocation", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CreditServiceTestSuite) TestApplyCredit_NonPositiveAmount() {
	_, err := suite.service.ApplyCredit(suite.ctx, "ORD-1",
		dto.ApplyCreditRequest{CompanyCode: "ACME", Amount: decimal.Zero}, "tester")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockObligationRepo.AssertNotCalled(suite.T(), "FindObligationByID", mock.Anything, mock.Anything)
}

func (suite *CreditServiceTestSuite) TestApplyCredit_CompanyMismatch() {
	other := suite.obligation(500)
	other.CompanyCode = "OTHER"
	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").Return(other, nil).Once()

	_, err := suite.service.ApplyCredit(suite.ctx, "ORD-1",
		dto.ApplyCreditRequest{CompanyCode: "ACME", Amount: decimal.NewFromInt(100)}, "tester")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "ListUnallocatedPayments", mock.Anything, mock.Anything)
}

func (suite *CreditServiceTestSuite) TestAllocateCreditToOrder_FullCoverage() {
	t1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").
		Return(suite.obligation(200), nil).Once()
	suite.mockAllocationRepo.On("FindAllocationsByObligation", suite.ctx, "ORD-1").
		Return([]domain.Allocation{}, nil).Twice()
	suite.mockPaymentRepo.On("ListUnallocatedPayments", suite.ctx, "ACME").
		Return([]domain.Payment{suite.unallocated("PAY-1", 500, t1)}, nil).Once()
	suite.mockAllocationRepo.On("SaveAllocation", suite.ctx,
		mock.MatchedBy(func(a domain.Allocation) bool {
			return a.Amount.Equal(decimal.NewFromInt(200)) && a.Source == domain.SourceDirectApplication
		}),
		mock.MatchedBy(func(s portsrepo.ObligationSettlement) bool {
			return s.ExpectedStatus == domain.ObligationPending &&
				s.NewStatus == domain.ObligationPaid &&
				s.DateSettled != nil
		}),
	).Return(nil).Once()
	suite.mockAudit.On("Publish", suite.ctx, mock.AnythingOfType("domain.AuditEvent")).Return().Once()
	suite.mockPaymentRepo.On("GetCreditSummary", suite.ctx, "ACME").Return(suite.summary(300), nil).Once()

	resp, err := suite.service.AllocateCreditToOrder(suite.ctx, "ORD-1", "tester")

	suite.Require().NoError(err)
	suite.True(resp.Allocated.Equal(decimal.NewFromInt(200)))
	suite.True(resp.RemainingBalance.IsZero())
	suite.mockAllocationRepo.AssertExpectations(suite.T())
}

func (suite *CreditServiceTestSuite) TestAllocateCreditToOrder_AlreadyCovered() {
	covered := suite.obligation(200)
	covered.PaymentStatus = domain.ObligationPaid

	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").Return(covered, nil).Once()
	suite.mockAllocationRepo.On("FindAllocationsByObligation", suite.ctx, "ORD-1").
		Return([]domain.Allocation{
			{AllocationID: "ALLOC-1", Amount: decimal.NewFromInt(200), Status: domain.AllocationApplied},
		}, nil).Once()
	suite.mockPaymentRepo.On("GetCreditSummary", suite.ctx, "ACME").Return(suite.summary(100), nil).Once()

	resp, err := suite.service.AllocateCreditToOrder(suite.ctx, "ORD-1", "tester")

	suite.Require().NoError(err)
	suite.True(resp.Allocated.IsZero())
	suite.True(resp.RemainingBalance.IsZero())
	suite.mockPaymentRepo.AssertNotCalled(suite.T(), "ListUnallocatedPayments", mock.Anything, mock.Anything)
	suite.mockAllocationRepo.AssertNotCalled(suite.T(), "SaveAllocation", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *CreditServiceTestSuite) TestReverseAppliedCredit_OnlyDirectApplications() {
	settlement := domain.Allocation{
		AllocationID: "ALLOC-SETTLE",
		ObligationID: "ORD-1",
		Amount:       decimal.NewFromInt(300),
		Status:       domain.AllocationApplied,
		Source:       domain.SourceSettlement,
	}
	direct := domain.Allocation{
		AllocationID: "ALLOC-DIRECT",
		ObligationID: "ORD-1",
		Amount:       decimal.NewFromInt(100),
		FromPayments: []domain.FundingSlice{{PaymentID: "PAY-9", Amount: decimal.NewFromInt(100)}},
		Status:       domain.AllocationApplied,
		Source:       domain.SourceDirectApplication,
	}
	obligation := suite.obligation(400)
	obligation.PaymentStatus = domain.ObligationPaid

	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").Return(obligation, nil).Once()
	suite.mockAllocationRepo.On("FindAllocationsByObligation", suite.ctx, "ORD-1").
		Return([]domain.Allocation{settlement, direct}, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByIDs", suite.ctx, []string{"PAY-9"}).
		Return(map[string]domain.Payment{
			"PAY-9": {PaymentID: "PAY-9", Status: domain.PaymentActive},
		}, nil).Once()
	suite.mockAllocationRepo.On("ApplyReversal", suite.ctx, mock.MatchedBy(func(u portsrepo.ReversalUpdate) bool {
		// The settlement allocation keeps covering 300 of 400, so the
		// obligation drops back to partially paid, not pending. Only the
		// direct application flips; the settlement stays applied.
		return len(u.AllocationIDs) == 1 &&
			u.AllocationIDs[0] == "ALLOC-DIRECT" &&
			u.NewStatus == domain.ObligationPartiallyPaid
	})).Return(nil).Once()
	suite.mockAudit.On("Publish", suite.ctx, mock.MatchedBy(func(e domain.AuditEvent) bool {
		return e.Action == domain.AuditReverseCredit
	})).Return().Once()
	suite.mockPaymentRepo.On("GetCreditSummary", suite.ctx, "ACME").Return(suite.summary(100), nil).Once()

	resp, err := suite.service.ReverseAppliedCredit(suite.ctx, "ACME", "ORD-1", "tester")

	suite.Require().NoError(err)
	suite.True(resp.ReversedTotal.Equal(decimal.NewFromInt(100)))
	suite.Equal(1, resp.AllocationsReversed)
	suite.mockAllocationRepo.AssertExpectations(suite.T())
}

func (suite *CreditServiceTestSuite) TestReverseAppliedCredit_ObligationStaysPaid() {
	settlement := domain.Allocation{
		AllocationID: "ALLOC-SETTLE",
		ObligationID: "ORD-1",
		Amount:       decimal.NewFromInt(400),
		Status:       domain.AllocationApplied,
		Source:       domain.SourceSettlement,
	}
	direct := domain.Allocation{
		AllocationID: "ALLOC-DIRECT",
		ObligationID: "ORD-1",
		Amount:       decimal.NewFromInt(50),
		FromPayments: []domain.FundingSlice{{PaymentID: "PAY-9", Amount: decimal.NewFromInt(50)}},
		Status:       domain.AllocationApplied,
		Source:       domain.SourceDirectApplication,
	}
	obligation := suite.obligation(400)
	obligation.PaymentStatus = domain.ObligationPaid

	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").Return(obligation, nil).Once()
	suite.mockAllocationRepo.On("FindAllocationsByObligation", suite.ctx, "ORD-1").
		Return([]domain.Allocation{settlement, direct}, nil).Once()
	suite.mockPaymentRepo.On("FindPaymentsByIDs", suite.ctx, []string{"PAY-9"}).
		Return(map[string]domain.Payment{
			"PAY-9": {PaymentID: "PAY-9", Status: domain.PaymentActive},
		}, nil).Once()
	suite.mockAllocationRepo.On("ApplyReversal", suite.ctx, mock.MatchedBy(func(u portsrepo.ReversalUpdate) bool {
		// The kept settlement still covers the full total, so the obligation
		// stays PAID and keeps its settlement allocation reference.
		return len(u.AllocationIDs) == 1 &&
			u.AllocationIDs[0] == "ALLOC-DIRECT" &&
			u.NewStatus == domain.ObligationPaid
	})).Return(nil).Once()
	suite.mockAudit.On("Publish", suite.ctx, mock.AnythingOfType("domain.AuditEvent")).Return().Once()
	suite.mockPaymentRepo.On("GetCreditSummary", suite.ctx, "ACME").Return(suite.summary(50), nil).Once()

	resp, err := suite.service.ReverseAppliedCredit(suite.ctx, "ACME", "ORD-1", "tester")

	suite.Require().NoError(err)
	suite.True(resp.ReversedTotal.Equal(decimal.NewFromInt(50)))
	suite.mockAllocationRepo.AssertExpectations(suite.T())
}

func (suite *CreditServiceTestSuite) TestReverseAppliedCredit_NothingToReverse() {
	settlement := domain.Allocation{
		AllocationID: "ALLOC-SETTLE",
		ObligationID: "ORD-1",
		Amount:       decimal.NewFromInt(300),
		Status:       domain.AllocationApplied,
		Source:       domain.SourceSettlement,
	}

	suite.mockObligationRepo.On("FindObligationByID", suite.ctx, "ORD-1").
		Return(suite.obligation(400), nil).Once()
	suite.mockAllocationRepo.On("FindAllocationsByObligation", suite.ctx, "ORD-1").
		Return([]domain.Allocation{settlement}, nil).Once()
	suite.mockPaymentRepo.On("GetCreditSummary", suite.ctx, "ACME").Return(suite.summary(100), nil).Once()

	resp, err := suite.service.ReverseAppliedCredit(suite.ctx, "ACME", "ORD-1", "tester")

	suite.Require().NoError(err)
	suite.True(resp.ReversedTotal.IsZero())
	suite.Equal(0, resp.AllocationsReversed)
	suite.mockAllocationRepo.AssertNotCalled(suite.T(), "ApplyReversal", mock.Anything, mock.Anything)
}

func TestCreditServiceSuite(t *testing.T) {
	suite.Run(t, new(CreditServiceTestSuite))
}
