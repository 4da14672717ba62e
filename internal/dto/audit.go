package dto

import (
	"time"

	"github.com/crestline/billing_ledger/internal/core/domain"
)

// AuditEventResponse mirrors domain.AuditEvent.
type AuditEventResponse struct {
	EventID     string         `json:"eventID"`
	Action      string         `json:"action"`
	CompanyCode string         `json:"companyCode"`
	Actor       string         `json:"actor"`
	Details     map[string]any `json:"details,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
}

// ListAuditEventsParams defines query parameters for the audit trail.
type ListAuditEventsParams struct {
	Limit int `form:"limit,default=100"`
}

// ToAuditEventResponses converts a slice of domain audit events.
func ToAuditEventResponses(events []domain.AuditEvent) []AuditEventResponse {
	res := make([]AuditEventResponse, len(events))
	for i, e := range events {
		res[i] = AuditEventResponse{
			EventID:     e.EventID,
			Action:      string(e.Action),
			CompanyCode: e.CompanyCode,
			Actor:       e.Actor,
			Details:     e.Details,
			OccurredAt:  e.OccurredAt,
		}
	}
	return res
}
