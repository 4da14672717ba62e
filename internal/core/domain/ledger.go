package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntryType distinguishes the two sides of the company ledger.
type LedgerEntryType string

const (
	LedgerEntryInvoice LedgerEntryType = "INVOICE"
	LedgerEntryPayment LedgerEntryType = "PAYMENT"
)

// LedgerEntry is one line of the derived chronological ledger. It is a
// projection rebuilt on demand from payments and obligations, never persisted
// as source of truth.
type LedgerEntry struct {
	Type         LedgerEntryType `json:"type"`
	SourceID     string          `json:"sourceID"`
	CompanyCode  string          `json:"companyCode"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
}

// LedgerStatement is a date-windowed view over the full running-balance
// history. OpeningBalance is the running balance immediately before the
// window; ClosingBalance is the balance after the window's last entry.
type LedgerStatement struct {
	CompanyCode    string          `json:"companyCode"`
	Entries        []LedgerEntry   `json:"entries"`
	OpeningBalance decimal.Decimal `json:"openingBalance"`
	ClosingBalance decimal.Decimal `json:"closingBalance"`
	TotalDebit     decimal.Decimal `json:"totalDebit"`
	TotalCredit    decimal.Decimal `json:"totalCredit"`
}
