package dto

import (
	"time"

	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CapturePaymentRequest defines the data needed to capture a payment.
// Amount positivity is enforced in the service layer since gin's numeric
// validators do not apply to decimal.Decimal.
type CapturePaymentRequest struct {
	CompanyCode            string          `json:"companyCode" binding:"required,companycode"`
	Amount                 decimal.Decimal `json:"amount" binding:"required"`
	Method                 string          `json:"method" binding:"required"`
	Reference              string          `json:"reference"`
	ExternalTransactionRef *string         `json:"externalTransactionRef"`
}

// GatewayNotification is the webhook-shaped capture request delivered by the
// payment gateway, keyed by its idempotency reference.
type GatewayNotification struct {
	ExternalTransactionRef string          `json:"externalTransactionRef" binding:"required"`
	CompanyCode            string          `json:"companyCode" binding:"required,companycode"`
	Amount                 decimal.Decimal `json:"amount" binding:"required"`
	Method                 string          `json:"method" binding:"required"`
}

// PaymentResponse mirrors domain.Payment for API consumers.
type PaymentResponse struct {
	PaymentID              string          `json:"paymentID"`
	CompanyCode            string          `json:"companyCode"`
	Amount                 decimal.Decimal `json:"amount"`
	Allocated              decimal.Decimal `json:"allocated"`
	Unallocated            decimal.Decimal `json:"unallocated"`
	Method                 string          `json:"method"`
	Reference              string          `json:"reference"`
	ExternalTransactionRef *string         `json:"externalTransactionRef,omitempty"`
	Status                 string          `json:"status"`
	CapturedAt             time.Time       `json:"capturedAt"`
}

// CapturePaymentResponse is returned by both capture paths. Idempotent is
// true when an already-captured payment was returned instead of a new one.
type CapturePaymentResponse struct {
	Payment       PaymentResponse       `json:"payment"`
	Idempotent    bool                  `json:"idempotent"`
	CreditSummary CreditSummaryResponse `json:"creditSummary"`
}

// CreditSummaryResponse mirrors domain.CreditSummary.
type CreditSummaryResponse struct {
	CompanyCode    string          `json:"companyCode"`
	TotalCredit    decimal.Decimal `json:"totalCredit"`
	TotalAllocated decimal.Decimal `json:"totalAllocated"`
	Available      decimal.Decimal `json:"available"`
}

// ListPaymentsParams defines query parameters for listing payments.
type ListPaymentsParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListPaymentsResponse wraps the list of payments.
type ListPaymentsResponse struct {
	Payments []PaymentResponse `json:"payments"`
}

// CreditApplicationResponse is one entry of a payment's applied-credit trail.
type CreditApplicationResponse struct {
	ObligationID string          `json:"obligationID"`
	AllocationID string          `json:"allocationID"`
	Amount       decimal.Decimal `json:"amount"`
	AppliedAt    time.Time       `json:"appliedAt"`
}

// ToPaymentResponse converts a domain.Payment to its response DTO.
func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		PaymentID:              p.PaymentID,
		CompanyCode:            p.CompanyCode,
		Amount:                 p.Amount,
		Allocated:              p.Allocated,
		Unallocated:            p.Unallocated,
		Method:                 p.Method,
		Reference:              p.Reference,
		ExternalTransactionRef: p.ExternalTransactionRef,
		Status:                 string(p.Status),
		CapturedAt:             p.CapturedAt,
	}
}

// ToListPaymentsResponse converts a slice of domain payments.
func ToListPaymentsResponse(payments []domain.Payment) ListPaymentsResponse {
	res := make([]PaymentResponse, len(payments))
	for i := range payments {
		res[i] = ToPaymentResponse(&payments[i])
	}
	return ListPaymentsResponse{Payments: res}
}

// ToCreditSummaryResponse converts a domain.CreditSummary.
func ToCreditSummaryResponse(s *domain.CreditSummary) CreditSummaryResponse {
	return CreditSummaryResponse{
		CompanyCode:    s.CompanyCode,
		TotalCredit:    s.TotalCredit,
		TotalAllocated: s.TotalAllocated,
		Available:      s.Available,
	}
}

// ToCreditApplicationResponses converts a payment's applied-credit entries.
func ToCreditApplicationResponses(apps []domain.CreditApplication) []CreditApplicationResponse {
	res := make([]CreditApplicationResponse, len(apps))
	for i, a := range apps {
		res[i] = CreditApplicationResponse{
			ObligationID: a.ObligationID,
			AllocationID: a.AllocationID,
			Amount:       a.Amount,
			AppliedAt:    a.AppliedAt,
		}
	}
	return res
}
