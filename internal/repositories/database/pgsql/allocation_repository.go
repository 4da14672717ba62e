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

type PgxAllocationRepository struct {
	BaseRepository
}

// newPgxAllocationRepository creates a new repository for allocation data.
func newPgxAllocationRepository(pool *pgxpool.Pool) portsrepo.AllocationRepositoryWithTx {
	return &PgxAllocationRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxAllocationRepository implements portsrepo.AllocationRepositoryWithTx
var _ portsrepo.AllocationRepositoryWithTx = (*PgxAllocationRepository)(nil)

const allocationColumns = `
	allocation_id, company_code, obligation_id, amount, status, source,
	reversed_at, reversed_by, reversal_reason,
	created_at, created_by, last_updated_at, last_updated_by`

func scanAllocation(row pgx.Row) (models.Allocation, error) {
	var m models.Allocation
	var reversedAt sql.NullTime
	var reversedBy, reversalReason sql.NullString
	err := row.Scan(
		&m.AllocationID,
		&m.CompanyCode,
		&m.ObligationID,
		&m.Amount,
		&m.Status,
		&m.Source,
		&reversedAt,
		&reversedBy,
		&reversalReason,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.Allocation{}, err
	}
	if reversedAt.Valid {
		m.ReversedAt = &reversedAt.Time
	}
	if reversedBy.Valid {
		m.ReversedBy = &reversedBy.String
	}
	if reversalReason.Valid {
		m.ReversalReason = &reversalReason.String
	}
	return m, nil
}

// SaveAllocation commits one allocation atomically: the obligation is locked
// and its status re-checked, guarded credit decrements run on every funding
// payment, the allocation row and its slices are inserted, and the obligation
// is updated. The guards (expected status, unallocated >= slice amount,
// status ACTIVE) re-validate the plan under the transaction; a stale plan
// aborts everything with ErrConcurrencyConflict and no partial state
// survives.
func (r *PgxAllocationRepository) SaveAllocation(ctx context.Context, allocation domain.Allocation, settlement portsrepo.ObligationSettlement) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	now := allocation.CreatedAt
	userID := allocation.CreatedBy

	// 1. Lock the obligation before any credit moves and re-check its status
	// under the lock. A concurrent settlement or reversal serializes here; a
	// writer that committed since the caller read the obligation shows up as
	// a status change.
	if err := r.lockObligationInTx(ctx, tx, settlement.ObligationID, models.ObligationStatus(settlement.ExpectedStatus)); err != nil {
		return err
	}

	// 2. Guarded decrements, one per funding slice. RowsAffected == 0 means
	// another writer drained the credit (or deleted the payment) since the
	// plan was computed.
	decrementQuery := `
		UPDATE payments
		SET unallocated = unallocated - $2,
		    allocated = allocated + $2,
		    last_updated_at = $3,
		    last_updated_by = $4
		WHERE payment_id = $1 AND status = $5 AND unallocated >= $2;
	`
	for _, slice := range allocation.FromPayments {
		tag, err := tx.Exec(ctx, decrementQuery, slice.PaymentID, slice.Amount, now, userID, models.PaymentActive)
		if err != nil {
			return apperrors.NewAppError(500, "failed to decrement credit on payment "+slice.PaymentID, err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NewAppError(409, "unallocated credit on payment "+slice.PaymentID+" changed underneath the plan", apperrors.ErrConcurrencyConflict)
		}
	}

	// 3. Insert the allocation row.
	modelAllocation := mapping.ToModelAllocation(allocation)
	allocationQuery := `
		INSERT INTO allocations (
			allocation_id, company_code, obligation_id, amount, status, source,
			reversed_at, reversed_by, reversal_reason,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, allocationQuery,
		modelAllocation.AllocationID,
		modelAllocation.CompanyCode,
		modelAllocation.ObligationID,
		modelAllocation.Amount,
		modelAllocation.Status,
		modelAllocation.Source,
		modelAllocation.ReversedAt,
		modelAllocation.ReversedBy,
		modelAllocation.ReversalReason,
		modelAllocation.CreatedAt,
		modelAllocation.CreatedBy,
		modelAllocation.LastUpdatedAt,
		modelAllocation.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert allocation "+modelAllocation.AllocationID, err)
	}

	// 4. Batch-insert the funding slices.
	batch := &pgx.Batch{}
	sliceQuery := `
		INSERT INTO allocation_payments (allocation_id, payment_id, amount, slice_order)
		VALUES ($1, $2, $3, $4);
	`
	for _, row := range mapping.ToModelAllocationPayments(allocation) {
		batch.Queue(sliceQuery, row.AllocationID, row.PaymentID, row.Amount, row.SliceOrder)
	}
	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert funding slices for allocation "+modelAllocation.AllocationID, err)
	}

	// 5. Update the obligation, still holding its lock from step 1.
	if err := r.updateObligationInTx(ctx, tx, settlement, modelAllocation.AllocationID); err != nil {
		return err
	}

	if err := r.Commit(ctx, tx); err != nil {
		return apperrors.NewAppError(500, "failed to commit allocation "+modelAllocation.AllocationID, err)
	}
	return nil
}

// lockObligationInTx takes the obligation's row lock and, when an expected
// status is given, compares it against the live row. Every writer that
// touches an obligation takes this lock first, so settlements and reversals
// of the same obligation never interleave.
func (r *PgxAllocationRepository) lockObligationInTx(ctx context.Context, tx pgx.Tx, obligationID string, expected models.ObligationStatus) error {
	var currentStatus models.ObligationStatus
	lockQuery := `SELECT payment_status FROM obligations WHERE obligation_id = $1 FOR UPDATE;`
	if err := tx.QueryRow(ctx, lockQuery, obligationID).Scan(&currentStatus); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return apperrors.NewAppError(500, "failed to lock obligation "+obligationID, err)
	}
	if expected != "" && currentStatus != expected {
		return apperrors.NewAppError(409, "obligation "+obligationID+" changed status underneath the plan", apperrors.ErrConcurrencyConflict)
	}
	return nil
}

func (r *PgxAllocationRepository) updateObligationInTx(ctx context.Context, tx pgx.Tx, settlement portsrepo.ObligationSettlement, allocationID string) error {
	if settlement.SetAllocationRef {
		// Settlement points the obligation at the allocation that covered it.
		query := `
			UPDATE obligations
			SET payment_status = $2, date_settled = $3, allocation_id = $4,
			    last_updated_at = $5, last_updated_by = $6
			WHERE obligation_id = $1;
		`
		if _, err := tx.Exec(ctx, query,
			settlement.ObligationID,
			settlement.NewStatus,
			settlement.DateSettled,
			allocationID,
			settlement.UpdatedAt,
			settlement.UpdatedBy,
		); err != nil {
			return apperrors.NewAppError(500, "failed to update obligation "+settlement.ObligationID, err)
		}
		return nil
	}

	query := `
		UPDATE obligations
		SET payment_status = $2, date_settled = $3,
		    last_updated_at = $4, last_updated_by = $5
		WHERE obligation_id = $1;
	`
	if _, err := tx.Exec(ctx, query,
		settlement.ObligationID,
		settlement.NewStatus,
		settlement.DateSettled,
		settlement.UpdatedAt,
		settlement.UpdatedBy,
	); err != nil {
		return apperrors.NewAppError(500, "failed to update obligation "+settlement.ObligationID, err)
	}
	return nil
}

// ApplyReversal commits one reversal atomically: the obligation is locked,
// allocations flip to REVERSED, funding payments get back exactly the credit
// of the allocations that flipped (deleted payments are skipped, allocated
// floors at zero), and the obligation resets.
func (r *PgxAllocationRepository) ApplyReversal(ctx context.Context, update portsrepo.ReversalUpdate) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	// 1. Lock the obligation before touching anything. Reversals and
	// settlements of the same obligation serialize on this lock.
	if err := r.lockObligationInTx(ctx, tx, update.ObligationID, ""); err != nil {
		return err
	}

	// 2. Mark the allocations reversed. RETURNING reports which rows
	// actually flipped; already-reversed rows are untouched and restore
	// nothing, which keeps the operation idempotent per allocation.
	reverseQuery := `
		UPDATE allocations
		SET status = $2, reversed_at = $3, reversed_by = $4, reversal_reason = $5,
		    last_updated_at = $3, last_updated_by = $4
		WHERE allocation_id = ANY($1) AND status = $6
		RETURNING allocation_id;
	`
	rows, err := tx.Query(ctx, reverseQuery,
		update.AllocationIDs,
		models.AllocationReversed,
		update.ReversedAt,
		update.ReversedBy,
		update.Reason,
		models.AllocationApplied,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to reverse allocations for obligation "+update.ObligationID, err)
	}
	reversed := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return apperrors.NewAppError(500, "failed to scan reversed allocation id", err)
		}
		reversed = append(reversed, id)
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewAppError(500, "failed reading reversed allocation ids", err)
	}

	if len(reversed) == 0 {
		// A concurrent reversal already flipped every allocation and
		// restored its credit; restoring again would mint phantom credit.
		if err := r.Commit(ctx, tx); err != nil {
			return apperrors.NewAppError(500, "failed to commit reversal for obligation "+update.ObligationID, err)
		}
		return nil
	}

	// 3. Restore credit to the payments funding the flipped allocations.
	// The status guard skips soft-deleted payments; GREATEST floors
	// allocated at zero so a restore can never push it negative.
	restoreQuery := `
		UPDATE payments p
		SET unallocated = p.unallocated + s.restore,
		    allocated = GREATEST(p.allocated - s.restore, 0),
		    last_updated_at = $2,
		    last_updated_by = $3
		FROM (
			SELECT payment_id, SUM(amount) AS restore
			FROM allocation_payments
			WHERE allocation_id = ANY($1)
			GROUP BY payment_id
		) s
		WHERE p.payment_id = s.payment_id AND p.status = $4;
	`
	_, err = tx.Exec(ctx, restoreQuery, reversed, update.ReversedAt, update.ReversedBy, models.PaymentActive)
	if err != nil {
		return apperrors.NewAppError(500, "failed to restore credit for obligation "+update.ObligationID, err)
	}

	// 4. Reset the obligation, still holding its lock from step 1.
	// date_settled and the settlement allocation ref only survive when the
	// obligation stays PAID.
	resetQuery := `
		UPDATE obligations
		SET payment_status = $2,
		    date_settled = CASE WHEN $2 = $3 THEN date_settled ELSE NULL END,
		    allocation_id = CASE WHEN $2 = $3 THEN allocation_id ELSE NULL END,
		    last_updated_at = $4,
		    last_updated_by = $5
		WHERE obligation_id = $1;
	`
	_, err = tx.Exec(ctx, resetQuery,
		update.ObligationID,
		update.NewStatus,
		models.ObligationPaid,
		update.ReversedAt,
		update.ReversedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to reset obligation "+update.ObligationID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return apperrors.NewAppError(500, "failed to commit reversal for obligation "+update.ObligationID, err)
	}
	return nil
}

// FindAllocationByID retrieves an allocation with its funding slices.
func (r *PgxAllocationRepository) FindAllocationByID(ctx context.Context, allocationID string) (*domain.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE allocation_id = $1;`
	m, err := scanAllocation(r.Pool.QueryRow(ctx, query, allocationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find allocation by ID "+allocationID, err)
	}

	slices, err := r.loadSlices(ctx, []string{allocationID})
	if err != nil {
		return nil, err
	}
	d := mapping.ToDomainAllocation(m, slices[allocationID])
	return &d, nil
}

// FindAllocationsByObligation retrieves every allocation referencing the
// obligation, oldest first, slices included.
func (r *PgxAllocationRepository) FindAllocationsByObligation(ctx context.Context, obligationID string) ([]domain.Allocation, error) {
	query := `
		SELECT ` + allocationColumns + `
		FROM allocations
		WHERE obligation_id = $1
		ORDER BY created_at ASC, allocation_id ASC;
	`
	return r.queryAllocationsWithSlices(ctx, query, obligationID)
}

// ListAppliedAllocations returns every APPLIED allocation with slices.
func (r *PgxAllocationRepository) ListAppliedAllocations(ctx context.Context) ([]domain.Allocation, error) {
	query := `
		SELECT ` + allocationColumns + `
		FROM allocations
		WHERE status = $1
		ORDER BY created_at ASC, allocation_id ASC;
	`
	return r.queryAllocationsWithSlices(ctx, query, models.AllocationApplied)
}

func (r *PgxAllocationRepository) queryAllocationsWithSlices(ctx context.Context, query string, args ...any) ([]domain.Allocation, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query allocations", err)
	}
	defer rows.Close()

	allocations := []models.Allocation{}
	ids := []string{}
	for rows.Next() {
		m, err := scanAllocation(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan allocation row", err)
		}
		allocations = append(allocations, m)
		ids = append(ids, m.AllocationID)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading allocation rows", err)
	}

	slices, err := r.loadSlices(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Allocation, len(allocations))
	for i, m := range allocations {
		result[i] = mapping.ToDomainAllocation(m, slices[m.AllocationID])
	}
	return result, nil
}

// loadSlices fetches funding slice rows for the given allocations, keyed by
// allocation ID and ordered by slice position.
func (r *PgxAllocationRepository) loadSlices(ctx context.Context, allocationIDs []string) (map[string][]models.AllocationPayment, error) {
	result := make(map[string][]models.AllocationPayment, len(allocationIDs))
	if len(allocationIDs) == 0 {
		return result, nil
	}
	query := `
		SELECT allocation_id, payment_id, amount, slice_order
		FROM allocation_payments
		WHERE allocation_id = ANY($1)
		ORDER BY allocation_id, slice_order ASC;
	`
	rows, err := r.Pool.Query(ctx, query, allocationIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query funding slices", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s models.AllocationPayment
		if err := rows.Scan(&s.AllocationID, &s.PaymentID, &s.Amount, &s.SliceOrder); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan funding slice row", err)
		}
		result[s.AllocationID] = append(result[s.AllocationID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "failed reading funding slice rows", err)
	}
	return result, nil
}
