package dto

import (
	"fmt"

	"github.com/crestline/billing_ledger/internal/apperrors"
	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SettlementMode identifies which of the three settlement request shapes was
// submitted. The mode is resolved exactly once at the boundary; workflows
// never re-sniff optional fields.
type SettlementMode string

const (
	// SettleExplicit settles a named set of order numbers.
	SettleExplicit SettlementMode = "EXPLICIT"
	// SettleCompanyAuto settles every pending obligation of one company.
	SettleCompanyAuto SettlementMode = "COMPANY_AUTO"
	// SettleAdminAuto settles every pending obligation across all companies.
	SettleAdminAuto SettlementMode = "ADMIN_AUTO"
)

// SettleInvoicesRequest is the raw settlement request body. Exactly one of
// the three shapes must be present: order numbers, a company code, or the
// all-companies flag.
type SettleInvoicesRequest struct {
	OrderNumbers []string `json:"orderNumbers"`
	CompanyCode  string   `json:"companyCode" binding:"omitempty,companycode"`
	AllCompanies bool     `json:"allCompanies"`
}

// SettlementSelector is the resolved, discriminated form of a settlement
// request.
type SettlementSelector struct {
	Mode         SettlementMode
	OrderNumbers []string
	CompanyCode  string
}

// Resolve validates the request and produces its discriminated selector.
func (r *SettleInvoicesRequest) Resolve() (*SettlementSelector, error) {
	shapes := 0
	if len(r.OrderNumbers) > 0 {
		shapes++
	}
	if r.CompanyCode != "" {
		shapes++
	}
	if r.AllCompanies {
		shapes++
	}
	if shapes != 1 {
		return nil, fmt.Errorf("%w: provide exactly one of orderNumbers, companyCode or allCompanies", apperrors.ErrValidation)
	}
	switch {
	case len(r.OrderNumbers) > 0:
		return &SettlementSelector{Mode: SettleExplicit, OrderNumbers: r.OrderNumbers}, nil
	case r.CompanyCode != "":
		return &SettlementSelector{Mode: SettleCompanyAuto, CompanyCode: r.CompanyCode}, nil
	default:
		return &SettlementSelector{Mode: SettleAdminAuto}, nil
	}
}

// FundingSliceResponse reports how much one payment contributed.
type FundingSliceResponse struct {
	PaymentID string          `json:"paymentID"`
	Amount    decimal.Decimal `json:"amount"`
}

// SettlementResult is the per-obligation outcome of a settlement batch. One
// obligation's failure never aborts the batch; failed items carry ErrorKind
// and Error, successful items the allocation details.
type SettlementResult struct {
	OrderNumber   string                 `json:"orderNumber"`
	ErrorKind     string                 `json:"errorKind,omitempty"`
	Error         string                 `json:"error,omitempty"`
	Message       string                 `json:"message,omitempty"`
	AllocationID  string                 `json:"allocationID,omitempty"`
	FromPayments  []FundingSliceResponse `json:"fromPayments,omitempty"`
	CreditSummary *CreditSummaryResponse `json:"creditSummary,omitempty"`
}

// SettleInvoicesResponse wraps the per-obligation results of one batch.
type SettleInvoicesResponse struct {
	Results []SettlementResult `json:"results"`
}

// ToFundingSliceResponses converts domain funding slices.
func ToFundingSliceResponses(slices []domain.FundingSlice) []FundingSliceResponse {
	res := make([]FundingSliceResponse, len(slices))
	for i, s := range slices {
		res[i] = FundingSliceResponse{PaymentID: s.PaymentID, Amount: s.Amount}
	}
	return res
}
