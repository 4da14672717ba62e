package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/crestline/billing_ledger/internal/core/domain"
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	portssvc "github.com/crestline/billing_ledger/internal/core/ports/services"
)

const auditWriteTimeout = 5 * time.Second

// auditPublisher writes audit events through a buffered channel and a single
// writer goroutine. Publishing never blocks the caller and a failed write is
// logged, never escalated: audit logging must not fail the operation that
// produced the event.
type auditPublisher struct {
	repo   portsrepo.AuditEventRepository
	logger *slog.Logger
	events chan domain.AuditEvent
	done   chan struct{}
}

// NewAuditPublisher creates a publisher with the given buffer size and
// starts its writer goroutine.
func NewAuditPublisher(repo portsrepo.AuditEventRepository, logger *slog.Logger, buffer int) portssvc.AuditPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &auditPublisher{
		repo:   repo,
		logger: logger,
		events: make(chan domain.AuditEvent, buffer),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

var _ portssvc.AuditPublisher = (*auditPublisher)(nil)

// Publish enqueues the event. When the buffer is full the event is dropped
// with a warning rather than blocking the parent operation.
func (p *auditPublisher) Publish(_ context.Context, event domain.AuditEvent) {
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Audit buffer full, dropping event",
			slog.String("action", string(event.Action)),
			slog.String("company_code", event.CompanyCode))
	}
}

// Recent returns the latest recorded events for a company, newest first.
// Events still sitting in the buffer are not visible yet.
func (p *auditPublisher) Recent(ctx context.Context, companyCode string, limit int) ([]domain.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return p.repo.ListAuditEvents(ctx, companyCode, limit)
}

// Close flushes buffered events and stops the writer goroutine.
func (p *auditPublisher) Close() {
	close(p.events)
	<-p.done
}

func (p *auditPublisher) run() {
	defer close(p.done)
	for event := range p.events {
		ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
		if err := p.repo.SaveAuditEvent(ctx, event); err != nil {
			p.logger.Error("Failed to write audit event",
				slog.String("action", string(event.Action)),
				slog.String("company_code", event.CompanyCode),
				slog.String("error", err.Error()))
		}
		cancel()
	}
}
