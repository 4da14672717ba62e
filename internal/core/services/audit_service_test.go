package services_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/crestline/billing_ledger/internal/core/services"
)

type AuditPublisherTestSuite struct {
	suite.Suite
	mockRepo *MockAuditEventRepository
	ctx      context.Context
}

func (suite *AuditPublisherTestSuite) SetupTest() {
	suite.mockRepo = new(MockAuditEventRepository)
	suite.ctx = context.Background()
}

func (suite *AuditPublisherTestSuite) event(action domain.AuditAction) domain.AuditEvent {
	return domain.AuditEvent{
		EventID:     "EVT-1",
		Action:      action,
		CompanyCode: "ACME",
		Actor:       "tester",
		OccurredAt:  time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (suite *AuditPublisherTestSuite) TestPublishPersistsEvent() {
	suite.mockRepo.On("SaveAuditEvent", mock.Anything, mock.MatchedBy(func(e domain.AuditEvent) bool {
		return e.EventID == "EVT-1" && e.Action == domain.AuditCapturePayment
	})).Return(nil).Once()

	publisher := services.NewAuditPublisher(suite.mockRepo, slog.Default(), 4)
	publisher.Publish(suite.ctx, suite.event(domain.AuditCapturePayment))
	publisher.Close()

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AuditPublisherTestSuite) TestPublishSurvivesWriteFailure() {
	suite.mockRepo.On("SaveAuditEvent", mock.Anything, mock.AnythingOfType("domain.AuditEvent")).
		Return(errors.New("sink unavailable")).Once()
	suite.mockRepo.On("SaveAuditEvent", mock.Anything, mock.AnythingOfType("domain.AuditEvent")).
		Return(nil).Once()

	publisher := services.NewAuditPublisher(suite.mockRepo, slog.Default(), 4)
	publisher.Publish(suite.ctx, suite.event(domain.AuditSettleInvoice))
	publisher.Publish(suite.ctx, suite.event(domain.AuditReverseInvoice))
	publisher.Close()

	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *AuditPublisherTestSuite) TestRecentClampsLimit() {
	events := []domain.AuditEvent{suite.event(domain.AuditCapturePayment)}
	suite.mockRepo.On("ListAuditEvents", suite.ctx, "ACME", 100).Return(events, nil).Twice()
	suite.mockRepo.On("ListAuditEvents", suite.ctx, "ACME", 25).Return(events, nil).Once()

	publisher := services.NewAuditPublisher(suite.mockRepo, slog.Default(), 4)
	defer publisher.Close()

	got, err := publisher.Recent(suite.ctx, "ACME", 0)
	suite.Require().NoError(err)
	suite.Len(got, 1)

	_, err = publisher.Recent(suite.ctx, "ACME", 9999)
	suite.Require().NoError(err)

	_, err = publisher.Recent(suite.ctx, "ACME", 25)
	suite.Require().NoError(err)

	suite.mockRepo.AssertExpectations(suite.T())
}

func TestAuditPublisherSuite(t *testing.T) {
	suite.Run(t, new(AuditPublisherTestSuite))
}
