package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/crestline/billing_ledger/internal/apperrors"
	"github.com/crestline/billing_ledger/internal/core/domain"
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
	"github.com/crestline/billing_ledger/internal/dto"
)

// ledgerService rebuilds the chronological running-balance ledger from the
// payment and obligation stores. The ledger is a projection: nothing here is
// persisted as source of truth.
type ledgerService struct {
	BaseService
	paymentRepo    portsrepo.PaymentRepositoryWithTx
	obligationRepo portsrepo.ObligationRepositoryWithTx
}

// NewLedgerService creates a new LedgerService.
func NewLedgerService(paymentRepo portsrepo.PaymentRepositoryWithTx, obligationRepo portsrepo.ObligationRepositoryWithTx) portssvc.LedgerSvcFacade {
	return &ledgerService{paymentRepo: paymentRepo, obligationRepo: obligationRepo}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// BuildLedger merges every obligation (debit) and non-deleted payment
// (credit) into one chronological stream, computes the running balance over
// the ENTIRE history, and only then slices the requested window. The full
// pass is mandatory even for a sub-range: the window's opening balance is
// the last running balance strictly before the window start.
func (s *ledgerService) BuildLedger(ctx context.Context, query dto.LedgerQuery) (*domain.LedgerStatement, error) {
	if query.CompanyCode == "" {
		return nil, fmt.Errorf("%w: companyCode is required (use %s for all companies)",
			apperrors.ErrValidation, dto.LedgerCompanyAll)
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		return nil, fmt.Errorf("%w: to-date precedes from-date", apperrors.ErrValidation)
	}

	entries, err := s.collectEntries(ctx, query.CompanyCode)
	if err != nil {
		return nil, err
	}

	// Stable sort keeps insertion order for same-date entries, which makes
	// the running balance deterministic.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})

	balance := decimal.Zero
	for i := range entries {
		balance = balance.Add(entries[i].Debit).Sub(entries[i].Credit)
		entries[i].BalanceAfter = balance
	}

	statement := windowStatement(entries, query.From, query.To)
	statement.CompanyCode = query.CompanyCode

	s.LogInfo(ctx, "Ledger built",
		slog.String("company_code", query.CompanyCode),
		slog.Int("entries_total", len(entries)),
		slog.Int("entries_window", len(statement.Entries)))
	return statement, nil
}

// collectEntries loads the debit and credit sides for the company, or every
// company when ALL is requested. Obligations enter at their settled date when
// they have one, else their creation date; deleted payments are excluded.
func (s *ledgerService) collectEntries(ctx context.Context, companyCode string) ([]domain.LedgerEntry, error) {
	all := companyCode == dto.LedgerCompanyAll

	obligations, err := s.obligationRepo.ListAllObligations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load obligations for ledger: %w", err)
	}
	payments, err := s.paymentRepo.ListAllPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments for ledger: %w", err)
	}

	entries := make([]domain.LedgerEntry, 0, len(obligations)+len(payments))
	for i := range obligations {
		o := &obligations[i]
		if !all && o.CompanyCode != companyCode {
			continue
		}
		date := o.CreatedAt
		if o.DateSettled != nil {
			date = *o.DateSettled
		}
		entries = append(entries, domain.LedgerEntry{
			Type:        domain.LedgerEntryInvoice,
			SourceID:    o.ObligationID,
			CompanyCode: o.CompanyCode,
			Date:        date,
			Description: "Invoice " + o.ObligationID,
			Debit:       o.Total,
			Credit:      decimal.Zero,
		})
	}
	for i := range payments {
		p := &payments[i]
		if p.IsDeleted() {
			continue
		}
		if !all && p.CompanyCode != companyCode {
			continue
		}
		entries = append(entries, domain.LedgerEntry{
			Type:        domain.LedgerEntryPayment,
			SourceID:    p.PaymentID,
			CompanyCode: p.CompanyCode,
			Date:        p.CapturedAt,
			Description: "Payment " + p.Reference,
			Debit:       decimal.Zero,
			Credit:      p.Amount,
		})
	}
	return entries, nil
}

// windowStatement slices the fully-balanced stream down to [from, to], with
// the to-date treated as end-of-day.
func windowStatement(entries []domain.LedgerEntry, from, to *time.Time) *domain.LedgerStatement {
	var toEOD time.Time
	if to != nil {
		toEOD = to.AddDate(0, 0, 1)
	}

	statement := &domain.LedgerStatement{
		OpeningBalance: decimal.Zero,
		ClosingBalance: decimal.Zero,
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
	}

	for i := range entries {
		e := entries[i]
		if from != nil && e.Date.Before(*from) {
			statement.OpeningBalance = e.BalanceAfter
			continue
		}
		if to != nil && !e.Date.Before(toEOD) {
			break
		}
		statement.Entries = append(statement.Entries, e)
		statement.TotalDebit = statement.TotalDebit.Add(e.Debit)
		statement.TotalCredit = statement.TotalCredit.Add(e.Credit)
	}

	if n := len(statement.Entries); n > 0 {
		statement.ClosingBalance = statement.Entries[n-1].BalanceAfter
	} else {
		statement.ClosingBalance = statement.OpeningBalance
	}
	return statement
}
