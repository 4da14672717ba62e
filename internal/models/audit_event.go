package models

import "time"

// AuditEvent is one append-only record of a mutating workflow.
type AuditEvent struct {
	EventID     string         `json:"eventID"` // Primary Key (UUID)
	Action      string         `json:"action"`
	CompanyCode string         `json:"companyCode"`
	Actor       string         `json:"actor"`
	Details     map[string]any `json:"details"` // Stored as JSONB
	OccurredAt  time.Time      `json:"occurredAt"`
}
