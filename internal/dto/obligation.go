package dto

import (
	"time"

	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateObligationRequest defines the data needed to record a new debt.
type CreateObligationRequest struct {
	OrderNumber string          `json:"orderNumber" binding:"required"`
	CompanyCode string          `json:"companyCode" binding:"required,companycode"`
	Total       decimal.Decimal `json:"total" binding:"required"`
}

// ObligationResponse mirrors domain.Obligation.
type ObligationResponse struct {
	ObligationID  string          `json:"obligationID"`
	CompanyCode   string          `json:"companyCode"`
	Total         decimal.Decimal `json:"total"`
	PaymentStatus string          `json:"paymentStatus"`
	DateSettled   *time.Time      `json:"dateSettled,omitempty"`
	AllocationID  *string         `json:"allocationID,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ListObligationsParams defines query parameters for listing obligations.
type ListObligationsParams struct {
	Status string `form:"status" binding:"omitempty,oneof=PENDING PARTIALLY_PAID PAID BAD_DEBT"`
	Limit  int    `form:"limit,default=20"`
	Offset int    `form:"offset,default=0"`
}

// ListObligationsResponse wraps the list of obligations.
type ListObligationsResponse struct {
	Obligations []ObligationResponse `json:"obligations"`
}

// ToObligationResponse converts a domain.Obligation to its response DTO.
func ToObligationResponse(o *domain.Obligation) ObligationResponse {
	return ObligationResponse{
		ObligationID:  o.ObligationID,
		CompanyCode:   o.CompanyCode,
		Total:         o.Total,
		PaymentStatus: string(o.PaymentStatus),
		DateSettled:   o.DateSettled,
		AllocationID:  o.AllocationID,
		CreatedAt:     o.CreatedAt,
	}
}

// ToListObligationsResponse converts a slice of domain obligations.
func ToListObligationsResponse(obligations []domain.Obligation) ListObligationsResponse {
	res := make([]ObligationResponse, len(obligations))
	for i := range obligations {
		res[i] = ToObligationResponse(&obligations[i])
	}
	return ListObligationsResponse{Obligations: res}
}
