package pgsql

import (
	"context"
	"encoding/json"

	"github.com/crestline/billing_ledger/internal/apperrors"
	"github.com/crestline/billing_ledger/internal/core/domain"
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	"github.com/crestline/billing_ledger/internal/models"
	"github.com/crestline/billing_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAuditRepository struct {
	BaseRepository
}

// newPgxAuditRepository creates a new repository for audit events.
func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditEventRepository {
	return &PgxAuditRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxAuditRepository implements portsrepo.AuditEventRepository
var _ portsrepo.AuditEventRepository = (*PgxAuditRepository)(nil)

// SaveAuditEvent appends one audit event. Details go into a JSONB column.
func (r *PgxAuditRepository) SaveAuditEvent(ctx context.Context, event domain.AuditEvent) error {
	m := mapping.ToModelAuditEvent(event)
	details, err := json.Marshal(m.Details)
	if err != nil {
		return apperrors.NewAppError(500, "failed to marshal audit details for event "+m.EventID, err)
	}
	query := `
		INSERT INTO audit_events (event_id, action, company_code, actor, details, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err = r.Pool.Exec(ctx, query, m.EventID, m.Action, m.CompanyCode, m.Actor, details, m.OccurredAt)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert audit event "+m.EventID, err)
	}
	return nil
}

// ListAuditEvents returns recent audit events for a company, newest first.
func (r *PgxAuditRepository) ListAuditEvents(ctx context.Context, companyCode string, limit int) ([]domain.AuditEvent, error) {
	query := `
		SELECT event_id, action, company_code, actor, details, occurred_at
		FROM audit_events
		WHERE company_code = $1
		ORDER BY occurred_at DESC, event_id DESC
		LIMIT $2;
	`
	rows, err := r.Pool.Query(ctx, query, companyCode, limit)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query audit events for "+companyCode, err)
	}
	defer rows.Close()

	events := []domain.AuditEvent{}
	for rows.Next() {
		var m models.AuditEvent
		var details []byte
		if err := rows.Scan(&m.EventID, &m.Action, &m.CompanyCode, &m.Actor, &details, &m.OccurredAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan audit event row", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &m.Details); err != nil {
				return nil, apperrors.NewAppError(500, "failed to unmarshal audit details for event "+m.EventID, err)
			}
		}
		events = append(events, mapping.ToDomainAuditEvent(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading audit event rows", err)
	}
	return events, nil
}
