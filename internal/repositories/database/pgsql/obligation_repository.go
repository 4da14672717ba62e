package pgsql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/crestline/billing_ledger/internal/apperrors"
	"github.com/crestline/billing_ledger/internal/core/domain"
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	"github.com/crestline/billing_ledger/internal/models"
	"github.com/crestline/billing_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxObligationRepository struct {
	BaseRepository
}

// newPgxObligationRepository creates a new repository for obligation data.
func newPgxObligationRepository(pool *pgxpool.Pool) portsrepo.ObligationRepositoryWithTx {
	return &PgxObligationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxObligationRepository implements portsrepo.ObligationRepositoryWithTx
var _ portsrepo.ObligationRepositoryWithTx = (*PgxObligationRepository)(nil)

const obligationColumns = `
	obligation_id, company_code, total, payment_status, date_settled, allocation_id,
	created_at, created_by, last_updated_at, last_updated_by`

func scanObligation(row pgx.Row) (models.Obligation, error) {
	var m models.Obligation
	var dateSettled sql.NullTime
	var allocationID sql.NullString
	err := row.Scan(
		&m.ObligationID,
		&m.CompanyCode,
		&m.Total,
		&m.PaymentStatus,
		&dateSettled,
		&allocationID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.Obligation{}, err
	}
	if dateSettled.Valid {
		m.DateSettled = &dateSettled.Time
	}
	if allocationID.Valid {
		m.AllocationID = &allocationID.String
	}
	return m, nil
}

// SaveObligation inserts a new obligation.
func (r *PgxObligationRepository) SaveObligation(ctx context.Context, obligation domain.Obligation) error {
	m := mapping.ToModelObligation(obligation)
	query := `
		INSERT INTO obligations (
			obligation_id, company_code, total, payment_status, date_settled, allocation_id,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.ObligationID,
		m.CompanyCode,
		m.Total,
		m.PaymentStatus,
		m.DateSettled,
		m.AllocationID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert obligation "+m.ObligationID, err)
	}
	return nil
}

// FindObligationByID retrieves an obligation by its order number.
func (r *PgxObligationRepository) FindObligationByID(ctx context.Context, obligationID string) (*domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations WHERE obligation_id = $1;`
	m, err := scanObligation(r.Pool.QueryRow(ctx, query, obligationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find obligation by ID "+obligationID, err)
	}
	d := mapping.ToDomainObligation(m)
	return &d, nil
}

// ListObligationsByCompany returns a company's obligations, optionally
// filtered by status, newest first, paginated.
func (r *PgxObligationRepository) ListObligationsByCompany(ctx context.Context, companyCode string, status *domain.ObligationStatus, limit, offset int) ([]domain.Obligation, error) {
	if status != nil {
		query := `
			SELECT ` + obligationColumns + `
			FROM obligations
			WHERE company_code = $1 AND payment_status = $2
			ORDER BY created_at DESC, obligation_id DESC
			LIMIT $3 OFFSET $4;
		`
		return r.queryObligations(ctx, query, companyCode, string(*status), limit, offset)
	}
	query := `
		SELECT ` + obligationColumns + `
		FROM obligations
		WHERE company_code = $1
		ORDER BY created_at DESC, obligation_id DESC
		LIMIT $2 OFFSET $3;
	`
	return r.queryObligations(ctx, query, companyCode, limit, offset)
}

// ListPendingObligations returns a company's PENDING obligations oldest first,
// the order auto-settlement walks them in.
func (r *PgxObligationRepository) ListPendingObligations(ctx context.Context, companyCode string) ([]domain.Obligation, error) {
	query := `
		SELECT ` + obligationColumns + `
		FROM obligations
		WHERE company_code = $1 AND payment_status = $2
		ORDER BY created_at ASC, obligation_id ASC;
	`
	return r.queryObligations(ctx, query, companyCode, models.ObligationPending)
}

// ListAllPendingObligations returns every PENDING obligation, oldest first.
func (r *PgxObligationRepository) ListAllPendingObligations(ctx context.Context) ([]domain.Obligation, error) {
	query := `
		SELECT ` + obligationColumns + `
		FROM obligations
		WHERE payment_status = $1
		ORDER BY created_at ASC, obligation_id ASC;
	`
	return r.queryObligations(ctx, query, models.ObligationPending)
}

// ListAllObligations returns every obligation in the store.
func (r *PgxObligationRepository) ListAllObligations(ctx context.Context) ([]domain.Obligation, error) {
	query := `SELECT ` + obligationColumns + ` FROM obligations ORDER BY created_at ASC, obligation_id ASC;`
	return r.queryObligations(ctx, query)
}

func (r *PgxObligationRepository) queryObligations(ctx context.Context, query string, args ...any) ([]domain.Obligation, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query obligations", err)
	}
	defer rows.Close()

	obligations := []models.Obligation{}
	for rows.Next() {
		m, err := scanObligation(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan obligation row", err)
		}
		obligations = append(obligations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading obligation rows", err)
	}
	return mapping.ToDomainObligationSlice(obligations), nil
}
