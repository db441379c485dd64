package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// ReconciliationStore persists verification runs.
type ReconciliationStore interface {
	Save(ctx context.Context, run *domain.ReconciliationRun) error
	Update(ctx context.Context, run *domain.ReconciliationRun) error
	FindByID(ctx context.Context, market domain.MarketID, org domain.OrgID, runID uuid.UUID) (*domain.ReconciliationRun, error)
}
