package services

import (
	"context"

	"github.com/crestline/billing_ledger/internal/core/domain"
)

// AuditPublisher records ledger operations for later inspection. Publishing
// is fire-and-forget: a failed audit write must never fail the operation
// that produced the event.
type AuditPublisher interface {
	Publish(ctx context.Context, event domain.AuditEvent)

	// Recent returns the latest recorded events for a company, newest first.
	Recent(ctx context.Context, companyCode string, limit int) ([]domain.AuditEvent, error)

	// Close flushes buffered events and stops the publisher.
	Close()
}
