package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/crestline/billing_ledger/internal/apperrors"
	"github.com/crestline/billing_ledger/internal/core/domain"
	portsrepo "github.com/crestline/billing_ledger/internal/core/ports/repositories"
	"github.com/crestline/billing_ledger/internal/models"
	"github.com/crestline/billing_ledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxPaymentRepository struct {
	BaseRepository
}

// newPgxPaymentRepository creates a new repository for payment data.
func newPgxPaymentRepository(pool *pgxpool.Pool) portsrepo.PaymentRepositoryWithTx {
	return &PgxPaymentRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxPaymentRepository implements portsrepo.PaymentRepositoryWithTx
var _ portsrepo.PaymentRepositoryWithTx = (*PgxPaymentRepository)(nil)

const paymentColumns = `
	payment_id, company_code, amount, allocated, unallocated, method, reference,
	external_transaction_ref, status, captured_at,
	created_at, created_by, last_updated_at, last_updated_by`

// scanPayment reads one payment row. Works for both pgx.Row and pgx.Rows.
func scanPayment(row pgx.Row) (models.Payment, error) {
	var m models.Payment
	var externalRef sql.NullString
	err := row.Scan(
		&m.PaymentID,
		&m.CompanyCode,
		&m.Amount,
		&m.Allocated,
		&m.Unallocated,
		&m.Method,
		&m.Reference,
		&externalRef,
		&m.Status,
		&m.CapturedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.Payment{}, err
	}
	if externalRef.Valid {
		m.ExternalTransactionRef = &externalRef.String
	}
	return m, nil
}

// SavePayment inserts a new captured payment.
func (r *PgxPaymentRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	m := mapping.ToModelPayment(payment)
	query := `
		INSERT INTO payments (
			payment_id, company_code, amount, allocated, unallocated, method, reference,
			external_transaction_ref, status, captured_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.PaymentID,
		m.CompanyCode,
		m.Amount,
		m.Allocated,
		m.Unallocated,
		m.Method,
		m.Reference,
		m.ExternalTransactionRef,
		m.Status,
		m.CapturedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert payment "+m.PaymentID, err)
	}
	return nil
}

// CaptureIdempotent inserts the payment unless a non-deleted payment already
// carries its external transaction reference. The check and the insert are one
// statement riding on the partial unique index over (external_transaction_ref)
// WHERE status = 'ACTIVE', so two concurrent captures of the same reference
// cannot both insert.
func (r *PgxPaymentRepository) CaptureIdempotent(ctx context.Context, payment domain.Payment) (*domain.Payment, bool, error) {
	if payment.ExternalTransactionRef == nil {
		return nil, false, apperrors.NewAppError(400, "idempotent capture requires an external transaction reference", apperrors.ErrValidation)
	}

	m := mapping.ToModelPayment(payment)
	query := `
		INSERT INTO payments (
			payment_id, company_code, amount, allocated, unallocated, method, reference,
			external_transaction_ref, status, captured_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (external_transaction_ref) WHERE status = 'ACTIVE' DO NOTHING;
	`
	tag, err := r.Pool.Exec(ctx, query,
		m.PaymentID,
		m.CompanyCode,
		m.Amount,
		m.Allocated,
		m.Unallocated,
		m.Method,
		m.Reference,
		m.ExternalTransactionRef,
		m.Status,
		m.CapturedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return nil, false, apperrors.NewAppError(500, "failed to capture payment "+m.PaymentID, err)
	}

	if tag.RowsAffected() > 0 {
		return &payment, true, nil
	}

	existing, err := r.FindPaymentByExternalRef(ctx, *payment.ExternalTransactionRef)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// The winner was deleted between our insert and this read.
			return nil, false, apperrors.NewAppError(409, "concurrent capture raced a payment deletion, retry", apperrors.ErrConcurrencyConflict)
		}
		return nil, false, err
	}
	return existing, false, nil
}

// MarkPaymentDeleted soft-deletes a payment. Deleting an already deleted
// payment is a no-op.
func (r *PgxPaymentRepository) MarkPaymentDeleted(ctx context.Context, paymentID string, deletedBy string, deletedAt time.Time) error {
	query := `
		UPDATE payments
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE payment_id = $1 AND status = $5;
	`
	_, err := r.Pool.Exec(ctx, query, paymentID, models.PaymentDeleted, deletedAt, deletedBy, models.PaymentActive)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete payment "+paymentID, err)
	}
	return nil
}

// FindPaymentByID retrieves a payment by its ID, including soft-deleted ones.
func (r *PgxPaymentRepository) FindPaymentByID(ctx context.Context, paymentID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1;`
	m, err := scanPayment(r.Pool.QueryRow(ctx, query, paymentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find payment by ID "+paymentID, err)
	}
	d := mapping.ToDomainPayment(m)
	return &d, nil
}

// FindPaymentsByIDs retrieves a batch of payments keyed by ID.
func (r *PgxPaymentRepository) FindPaymentsByIDs(ctx context.Context, paymentIDs []string) (map[string]domain.Payment, error) {
	result := make(map[string]domain.Payment, len(paymentIDs))
	if len(paymentIDs) == 0 {
		return result, nil
	}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = ANY($1);`
	rows, err := r.Pool.Query(ctx, query, paymentIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query payments by IDs", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanPayment(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan payment row", err)
		}
		result[m.PaymentID] = mapping.ToDomainPayment(m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading payment rows", err)
	}
	return result, nil
}

// FindPaymentByExternalRef retrieves the non-deleted payment carrying the
// given external transaction reference.
func (r *PgxPaymentRepository) FindPaymentByExternalRef(ctx context.Context, externalRef string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_transaction_ref = $1 AND status = $2;`
	m, err := scanPayment(r.Pool.QueryRow(ctx, query, externalRef, models.PaymentActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find payment by external ref", err)
	}
	d := mapping.ToDomainPayment(m)
	return &d, nil
}

// ListUnallocatedPayments returns non-deleted payments with unallocated
// credit, oldest capture first with payment_id as tiebreak. The allocation
// engine depends on this ordering.
func (r *PgxPaymentRepository) ListUnallocatedPayments(ctx context.Context, companyCode string) ([]domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE company_code = $1 AND status = $2 AND unallocated > 0
		ORDER BY captured_at ASC, payment_id ASC;
	`
	return r.queryPayments(ctx, query, companyCode, models.PaymentActive)
}

// ListPaymentsByCompany returns non-deleted payments, newest first, paginated.
func (r *PgxPaymentRepository) ListPaymentsByCompany(ctx context.Context, companyCode string, limit, offset int) ([]domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE company_code = $1 AND status = $2
		ORDER BY captured_at DESC, payment_id DESC
		LIMIT $3 OFFSET $4;
	`
	return r.queryPayments(ctx, query, companyCode, models.PaymentActive, limit, offset)
}

// ListAllPayments returns every payment, deleted ones included.
func (r *PgxPaymentRepository) ListAllPayments(ctx context.Context) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY captured_at ASC, payment_id ASC;`
	return r.queryPayments(ctx, query)
}

func (r *PgxPaymentRepository) queryPayments(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query payments", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		m, err := scanPayment(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan payment row", err)
		}
		payments = append(payments, m)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading payment rows", err)
	}
	return mapping.ToDomainPaymentSlice(payments), nil
}

// GetCreditSummary sums captured and allocated amounts over a company's
// non-deleted payments. Available is the subtraction, not SUM(unallocated),
// so drifted per-payment splits surface as a negative value instead of
// hiding behind the column.
func (r *PgxPaymentRepository) GetCreditSummary(ctx context.Context, companyCode string) (*domain.CreditSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(allocated), 0),
			COALESCE(SUM(amount), 0) - COALESCE(SUM(allocated), 0)
		FROM payments
		WHERE company_code = $1 AND status = $2;
	`
	summary := domain.CreditSummary{CompanyCode: companyCode}
	err := r.Pool.QueryRow(ctx, query, companyCode, models.PaymentActive).Scan(
		&summary.TotalCredit,
		&summary.TotalAllocated,
		&summary.Available,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to compute credit summary for "+companyCode, err)
	}
	return &summary, nil
}

// ListCreditApplications projects the payment's applied funding slices into
// a per-payment audit trail, oldest application first.
func (r *PgxPaymentRepository) ListCreditApplications(ctx context.Context, paymentID string) ([]domain.CreditApplication, error) {
	query := `
		SELECT ap.payment_id, a.obligation_id, a.allocation_id, ap.amount, a.created_at
		FROM allocation_payments ap
		JOIN allocations a ON a.allocation_id = ap.allocation_id
		WHERE ap.payment_id = $1 AND a.status = $2
		ORDER BY a.created_at ASC, ap.slice_order ASC;
	`
	rows, err := r.Pool.Query(ctx, query, paymentID, models.AllocationApplied)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query credit applications for payment "+paymentID, err)
	}
	defer rows.Close()

	applications := []domain.CreditApplication{}
	for rows.Next() {
		var app domain.CreditApplication
		if err := rows.Scan(&app.PaymentID, &app.ObligationID, &app.AllocationID, &app.Amount, &app.AppliedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan credit application row", err)
		}
		applications = append(applications, app)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading credit application rows", err)
	}
	return applications, nil
}
