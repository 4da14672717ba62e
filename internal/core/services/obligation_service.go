package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crestline/billing_ledger/internal/apperrors"
	"github.com/crestline/billing_ledger/internal/core/domain"
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
	"github.com/crestline/billing_ledger/internal/dto"
)

// obligationService provides obligation bookkeeping. Payment status itself is
// owned by the settlement, reversal and credit workflows.
type obligationService struct {
	BaseService
	obligationRepo portsrepo.ObligationRepositoryWithTx
}

// NewObligationService creates a new ObligationService.
func NewObligationService(obligationRepo portsrepo.ObligationRepositoryWithTx) portssvc.ObligationSvcFacade {
	return &obligationService{obligationRepo: obligationRepo}
}

var _ portssvc.ObligationSvcFacade = (*obligationService)(nil)

// CreateObligation records a new debt with status PENDING.
func (s *obligationService) CreateObligation(ctx context.Context, req dto.CreateObligationRequest, actor string) (*domain.Obligation, error) {
	if req.Total.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: obligation total must be positive", apperrors.ErrValidation)
	}

	if existing, err := s.obligationRepo.FindObligationByID(ctx, req.OrderNumber); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: obligation %s", apperrors.ErrDuplicate, req.OrderNumber)
	} else if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check obligation %s: %w", req.OrderNumber, err)
	}

	now := time.Now().UTC()
	obligation := domain.Obligation{
		ObligationID:  req.OrderNumber,
		CompanyCode:   req.CompanyCode,
		Total:         req.Total,
		PaymentStatus: domain.ObligationPending,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}

	if err := s.obligationRepo.SaveObligation(ctx, obligation); err != nil {
		s.LogError(ctx, err, "Failed to save obligation", slog.String("order_number", req.OrderNumber))
		return nil, fmt.Errorf("failed to save obligation %s: %w", req.OrderNumber, err)
	}

	s.LogInfo(ctx, "Obligation created",
		slog.String("order_number", obligation.ObligationID),
		slog.String("company_code", obligation.CompanyCode),
		slog.String("total", obligation.Total.String()))
	return &obligation, nil
}

// GetObligation returns one obligation by order number.
func (s *obligationService) GetObligation(ctx context.Context, orderNumber string) (*domain.Obligation, error) {
	obligation, err := s.obligationRepo.FindObligationByID(ctx, orderNumber)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find obligation", slog.String("order_number", orderNumber))
		}
		return nil, fmt.Errorf("failed to find obligation %s: %w", orderNumber, err)
	}
	return obligation, nil
}

// ListObligations returns a company's obligations, optionally filtered by
// payment status.
func (s *obligationService) ListObligations(ctx context.Context, companyCode string, params dto.ListObligationsParams) ([]domain.Obligation, error) {
	if companyCode == "" {
		return nil, fmt.Errorf("%w: companyCode is required", apperrors.ErrValidation)
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	var status *domain.ObligationStatus
	if params.Status != "" {
		st := domain.ObligationStatus(params.Status)
		status = &st
	}

	obligations, err := s.obligationRepo.ListObligationsByCompany(ctx, companyCode, status, limit, params.Offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list obligations", slog.String("company_code", companyCode))
		return nil, fmt.Errorf("failed to list obligations: %w", err)
	}
	return obligations, nil
}
