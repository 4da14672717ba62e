package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus indicates the lifecycle state of a captured payment.
type PaymentStatus string

const (
	PaymentActive  PaymentStatus = "ACTIVE"
	PaymentDeleted PaymentStatus = "DELETED"
)

// Payment represents a captured incoming payment and its credit split.
type Payment struct {
	PaymentID              string          `json:"paymentID"` // Primary Key (UUID)
	CompanyCode            string          `json:"companyCode"`
	Amount                 decimal.Decimal `json:"amount"`
	Allocated              decimal.Decimal `json:"allocated"`
	Unallocated            decimal.Decimal `json:"unallocated"`
	Method                 string          `json:"method"`
	Reference              string          `json:"reference"`
	ExternalTransactionRef *string         `json:"externalTransactionRef"` // Nullable; unique while ACTIVE
	Status                 PaymentStatus   `json:"status"`
	CapturedAt             time.Time       `json:"capturedAt"`
	AuditFields
}
