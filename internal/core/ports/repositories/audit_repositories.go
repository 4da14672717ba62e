package repositories

import (
	"context"

	"github.com/crestline/billing_ledger/internal/core/domain"
)

// AuditEventRepository persists append-only audit events.
type AuditEventRepository interface {
	// SaveAuditEvent appends one audit event.
	SaveAuditEvent(ctx context.Context, event domain.AuditEvent) error

	// ListAuditEvents returns recent audit events for a company, newest first.
	ListAuditEvents(ctx context.Context, companyCode string, limit int) ([]domain.AuditEvent, error)
}
