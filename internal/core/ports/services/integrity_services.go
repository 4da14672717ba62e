package services

import (
	"context"

	"github.com/crestline/billing_ledger/internal/core/domain"
)

// IntegritySvcFacade scans the stores for invariant violations. Read-only.
type IntegritySvcFacade interface {
	// Diagnose returns every detected issue with summary counts. It never
	// mutates and never auto-repairs.
	Diagnose(ctx context.Context) (*domain.IntegrityReport, error)
}
