package domain

import "time"

// AuditAction names a ledger operation recorded in the audit trail.
type AuditAction string

const (
	AuditSettleInvoice  AuditAction = "SETTLE_INVOICE"
	AuditReverseInvoice AuditAction = "REVERSE_INVOICE"
	AuditCapturePayment AuditAction = "CAPTURE_PAYMENT"
	AuditApplyCredit    AuditAction = "APPLY_CREDIT"
	AuditReverseCredit  AuditAction = "REVERSE_CREDIT"
)

// AuditEvent is an append-only record of a mutating ledger operation.
// Writing it is best-effort: a failed audit write never fails the operation
// that produced it.
type AuditEvent struct {
	EventID     string         `json:"eventID"`
	Action      AuditAction    `json:"action"`
	CompanyCode string         `json:"companyCode"`
	Actor       string         `json:"actor"`
	Details     map[string]any `json:"details"`
	OccurredAt  time.Time      `json:"occurredAt"`
}
