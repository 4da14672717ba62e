package dto

import (
	"time"

	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// LedgerCompanyAll selects the merged ledger across every company.
const LedgerCompanyAll = "ALL"

// LedgerQuery defines query parameters for the ledger statement.
type LedgerQuery struct {
	CompanyCode string     `form:"companyCode" binding:"required"`
	From        *time.Time `form:"from" time_format:"2006-01-02"`
	To          *time.Time `form:"to" time_format:"2006-01-02"`
}

// LedgerEntryResponse mirrors domain.LedgerEntry.
type LedgerEntryResponse struct {
	Type         string          `json:"type"`
	SourceID     string          `json:"sourceID"`
	CompanyCode  string          `json:"companyCode"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
}

// LedgerStatementResponse mirrors domain.LedgerStatement.
type LedgerStatementResponse struct {
	CompanyCode    string                `json:"companyCode"`
	Entries        []LedgerEntryResponse `json:"entries"`
	OpeningBalance decimal.Decimal       `json:"openingBalance"`
	ClosingBalance decimal.Decimal       `json:"closingBalance"`
	TotalDebit     decimal.Decimal       `json:"totalDebit"`
	TotalCredit    decimal.Decimal       `json:"totalCredit"`
}

// ToLedgerStatementResponse converts a domain.LedgerStatement.
func ToLedgerStatementResponse(s *domain.LedgerStatement) LedgerStatementResponse {
	entries := make([]LedgerEntryResponse, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = LedgerEntryResponse{
			Type:         string(e.Type),
			SourceID:     e.SourceID,
			CompanyCode:  e.CompanyCode,
			Date:         e.Date,
			Description:  e.Description,
			Debit:        e.Debit,
			Credit:       e.Credit,
			BalanceAfter: e.BalanceAfter,
		}
	}
	return LedgerStatementResponse{
		CompanyCode:    s.CompanyCode,
		Entries:        entries,
		OpeningBalance: s.OpeningBalance,
		ClosingBalance: s.ClosingBalance,
		TotalDebit:     s.TotalDebit,
		TotalCredit:    s.TotalCredit,
	}
}
