package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/crestline/billing_ledger/internal/apperrors"
	"github.com/crestline/billing_ledger/internal/core/domain"
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
	"github.com/crestline/billing_ledger/internal/core/services"
	"github.com/crestline/billing_ledger/internal/dto"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	mockPaymentRepo    *MockPaymentRepository
	mockObligationRepo *MockObligationRepository
	service            portssvc.LedgerSvcFacade
	ctx                context.Context
}

func (suite *LedgerServiceTestSuite) SetupTest() {
	suite.mockPaymentRepo = new(MockPaymentRepository)
	suite.mockObligationRepo = new(MockObligationRepository)
	suite.service = services.NewLedgerService(suite.mockPaymentRepo, suite.mockObligationRepo)
	suite.ctx = context.Background()
}

func (suite *LedgerServiceTestSuite) payment(id, company string, amount int64, capturedAt time.Time) domain.Payment {
	return domain.Payment{
		PaymentID:   id,
		CompanyCode: company,
		Amount:      decimal.NewFromInt(amount),
		Reference:   id,
		Status:      domain.PaymentActive,
		CapturedAt:  capturedAt,
	}
}

func (suite *LedgerServiceTestSuite) obligation(id, company string, total int64, createdAt time.Time, settledAt *time.Time) domain.Obligation {
	o := domain.Obligation{
		ObligationID:  id,
		CompanyCode:   company,
		Total:         decimal.NewFromInt(total),
		PaymentStatus: domain.ObligationPending,
		DateSettled:   settledAt,
	}
	o.CreatedAt = createdAt
	return o
}

func (suite *LedgerServiceTestSuite) TestBuildLedger_RunningBalance() {
	d1 := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	d3 := time.Date(2025, 1, 20, 12, 0, 0, 0, time.UTC)

	suite.mockObligationRepo.On("ListAllObligations", suite.ctx).Return([]domain.Obligation{
		suite.obligation("INV-1", "C", 300, d1, &d2),
		suite.obligation("INV-2", "C", 400, d3, nil),
	}, nil).Once()
	suite.mockPaymentRepo.On("ListAllPayments", suite.ctx).Return([]domain.Payment{
		suite.payment("PAY-1", "C", 500, d1),
	}, nil).Once()

	statement, err := suite.service.BuildLedger(suite.ctx, dto.LedgerQuery{CompanyCode: "C"})

	suite.Require().NoError(err)
	suite.Require().Len(statement.Entries, 3)
	suite.True(statement.Entries[0].BalanceAfter.Equal(decimal.NewFromInt(-500)))
	suite.True(statement.Entries[1].BalanceAfter.Equal(decimal.NewFromInt(-200)))
	suite.True(statement.Entries[2].BalanceAfter.Equal(decimal.NewFromInt(200)))
	suite.True(statement.OpeningBalance.IsZero())
	suite.True(statement.ClosingBalance.Equal(decimal.NewFromInt(200)))
	suite.True(statement.TotalDebit.Equal(decimal.NewFromInt(700)))
	suite.True(statement.TotalCredit.Equal(decimal.NewFromInt(500)))
}

func (suite *LedgerServiceTestSuite) TestBuildLedger_WindowCarriesOpeningBalance() {
	d1 := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 2, 5, 12, 0, 0, 0, time.UTC)
	d3 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	suite.mockObligationRepo.On("ListAllObligations", suite.ctx).Return([]domain.Obligation{
		suite.obligation("INV-1", "C", 300, d2, nil),
		suite.obligation("INV-2", "C", 100, d3, nil),
	}, nil).Once()
	suite.mockPaymentRepo.On("ListAllPayments", suite.ctx).Return([]domain.Payment{
		suite.payment("PAY-1", "C", 500, d1),
	}, nil).Once()

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	statement, err := suite.service.BuildLedger(suite.ctx, dto.LedgerQuery{
		CompanyCode: "C", From: &from, To: &to,
	})

	suite.Require().NoError(err)
	// Only the February invoice falls in the window; the January payment
	// shows up as the opening balance, the March invoice is cut off.
	suite.Require().Len(statement.Entries, 1)
	suite.Equal("INV-1", statement.Entries[0].SourceID)
	suite.True(statement.OpeningBalance.Equal(decimal.NewFromInt(-500)))
	suite.True(statement.ClosingBalance.Equal(decimal.NewFromInt(-200)))
}

func (suite *LedgerServiceTestSuite) TestBuildLedger_ToDateIsEndOfDay() {
	d1 := time.Date(2025, 1, 10, 23, 30, 0, 0, time.UTC)

	suite.mockObligationRepo.On("ListAllObligations", suite.ctx).Return([]domain.Obligation{}, nil).Once()
	suite.mockPaymentRepo.On("ListAllPayments", suite.ctx).Return([]domain.Payment{
		suite.payment("PAY-1", "C", 500, d1),
	}, nil).Once()

	to := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	statement, err := suite.service.BuildLedger(suite.ctx, dto.LedgerQuery{CompanyCode: "C", To: &to})

	suite.Require().NoError(err)
	suite.Require().Len(statement.Entries, 1)
	suite.Equal("PAY-1", statement.Entries[0].SourceID)
}

func (suite *LedgerServiceTestSuite) TestBuildLedger_ExcludesDeletedPaymentsAndOtherCompanies() {
	d1 := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	deleted := suite.payment("PAY-DEL", "C", 100, d1)
	deleted.Status = domain.PaymentDeleted

	suite.mockObligationRepo.On("ListAllObligations", suite.ctx).Return([]domain.Obligation{
		suite.obligation("INV-OTHER", "OTHER", 300, d1, nil),
	}, nil).Once()
	suite.mockPaymentRepo.On("ListAllPayments", suite.ctx).Return([]domain.Payment{
		deleted,
		suite.payment("PAY-1", "C", 500, d1),
	}, nil).Once()

	statement, err := suite.service.BuildLedger(suite.ctx, dto.LedgerQuery{CompanyCode: "C"})

	suite.Require().NoError(err)
	suite.Require().Len(statement.Entries, 1)
	suite.Equal("PAY-1", statement.Entries[0].SourceID)
	suite.True(statement.ClosingBalance.Equal(decimal.NewFromInt(-500)))
}

func (suite *LedgerServiceTestSuite) TestBuildLedger_AllCompanies() {
	d1 := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	suite.mockObligationRepo.On("ListAllObligations", suite.ctx).Return([]domain.Obligation{
		suite.obligation("INV-A", "ACME", 300, d1, nil),
		suite.obligation("INV-B", "OTHER", 200, d1.Add(time.Hour), nil),
	}, nil).Once()
	suite.mockPaymentRepo.On("ListAllPayments", suite.ctx).Return([]domain.Payment{}, nil).Once()

	statement, err := suite.service.BuildLedger(suite.ctx, dto.LedgerQuery{CompanyCode: dto.LedgerCompanyAll})

	suite.Require().NoError(err)
	suite.Require().Len(statement.Entries, 2)
	suite.True(statement.ClosingBalance.Equal(decimal.NewFromInt(500)))
}

func (suite *LedgerServiceTestSuite) TestBuildLedger_InvalidDateRange() {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	_, err := suite.service.BuildLedger(suite.ctx, dto.LedgerQuery{CompanyCode: "C", From: &from, To: &to})

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockObligationRepo.AssertNotCalled(suite.T(), "ListAllObligations", suite.ctx)
}

func (suite *LedgerServiceTestSuite) TestBuildLedger_MissingCompany() {
	_, err := suite.service.BuildLedger(suite.ctx, dto.LedgerQuery{})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestLedgerServiceSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
