package mapping

import (
	"github.com/crestline/billing_ledger/internal/core/domain"
	"github.com/crestline/billing_ledger/internal/models"
)

// ToModelAuditEvent converts a domain AuditEvent to a model AuditEvent
func ToModelAuditEvent(d domain.AuditEvent) models.AuditEvent {
	return models.AuditEvent{
		EventID:     d.EventID,
		Action:      string(d.Action),
		CompanyCode: d.CompanyCode,
		Actor:       d.Actor,
		Details:     d.Details,
		OccurredAt:  d.OccurredAt,
	}
}

// ToDomainAuditEvent converts a model AuditEvent to a domain AuditEvent
func ToDomainAuditEvent(m models.AuditEvent) domain.AuditEvent {
	return domain.AuditEvent{
		EventID:     m.EventID,
		Action:      domain.AuditAction(m.Action),
		CompanyCode: m.CompanyCode,
		Actor:       m.Actor,
		Details:     m.Details,
		OccurredAt:  m.OccurredAt,
	}
}
