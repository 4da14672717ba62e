package repositories

import (
	"context"
	"time"

	"github.com/crestline/billing_ledger/internal/core/domain"
)

// ObligationSettlement describes the obligation-side effects committed
// atomically with a new allocation. ExpectedStatus is the status the caller
// planned against; the store re-checks it under the obligation lock and
// aborts with ErrConcurrencyConflict when another writer got there first.
type ObligationSettlement struct {
	ObligationID     string
	ExpectedStatus   domain.ObligationStatus
	NewStatus        domain.ObligationStatus
	DateSettled      *time.Time
	SetAllocationRef bool // point the obligation at the new allocation
	UpdatedBy        string
	UpdatedAt        time.Time
}

// ReversalUpdate describes the full effect of reversing the allocations of
// one obligation: which allocations to mark reversed and the obligation's
// new state. Credit restores are derived inside the transaction from the
// funding slices of the allocations that actually flip, so a reversal that
// lost the race restores nothing.
type ReversalUpdate struct {
	ObligationID  string
	AllocationIDs []string
	NewStatus     domain.ObligationStatus
	ReversedAt    time.Time
	ReversedBy    string
	Reason        string
}

// AllocationReader defines read operations for allocation data.
type AllocationReader interface {
	// FindAllocationByID retrieves an allocation with its funding slices.
	FindAllocationByID(ctx context.Context, allocationID string) (*domain.Allocation, error)

	// FindAllocationsByObligation retrieves every allocation referencing the
	// obligation, funding slices included, oldest first. Callers filter by
	// status/source; the store must tolerate more than one APPLIED allocation
	// per obligation (historical duplicate settlements).
	FindAllocationsByObligation(ctx context.Context, obligationID string) ([]domain.Allocation, error)

	// ListAppliedAllocations returns every APPLIED allocation in the store
	// with funding slices. Used by the integrity scan.
	ListAppliedAllocations(ctx context.Context) ([]domain.Allocation, error)
}

// AllocationWriter defines the transactional write operations that keep
// payments, allocations and obligations consistent.
type AllocationWriter interface {
	// SaveAllocation commits one allocation as a single atomic transaction:
	// the obligation row is locked and its status checked against
	// ExpectedStatus, each funding slice decrements its payment's unallocated
	// credit behind a guard (unallocated >= slice amount), the allocation and
	// its slices are inserted, and the obligation is updated. A stale status
	// or a failed guard aborts everything with ErrConcurrencyConflict.
	SaveAllocation(ctx context.Context, allocation domain.Allocation, settlement ObligationSettlement) error

	// ApplyReversal commits one reversal as a single atomic transaction: the
	// obligation row is locked, the named allocations are marked REVERSED,
	// credit flows back to the payments that funded the allocations that
	// actually flipped (soft-deleted payments are skipped, allocated is
	// floored at zero), and the obligation is reset. Allocations already
	// reversed restore nothing, so repeated calls are no-ops.
	ApplyReversal(ctx context.Context, update ReversalUpdate) error
}

// AllocationRepositoryFacade combines all allocation repository interfaces.
type AllocationRepositoryFacade interface {
	AllocationReader
	AllocationWriter
}

// AllocationRepositoryWithTx extends AllocationRepositoryFacade with transaction capabilities.
type AllocationRepositoryWithTx interface {
	AllocationRepositoryFacade
	TransactionManager
}
