package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// ReconciliationSvcFacade triggers and reads chain-verification runs.
type ReconciliationSvcFacade interface {
	// TriggerRun starts a verification pass over the scope's journal chain
	// and returns the finished run.
	TriggerRun(ctx context.Context, scope domain.RequestScope, correlationID string) (*domain.ReconciliationRun, error)

	// GetRun loads a run within scope.
	GetRun(ctx context.Context, scope domain.RequestScope, runID uuid.UUID) (*domain.ReconciliationRun, error)
}
