package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// TransferStore persists the transfer aggregate.
type TransferStore interface {
	// Save persists a new transfer.
	Save(ctx context.Context, transfer *domain.Transfer) error

	// FindByID loads a transfer within scope, or nil when absent.
	FindByID(ctx context.Context, market domain.MarketID, org domain.OrgID, transferID uuid.UUID) (*domain.Transfer, error)

	// Update writes the aggregate back with an optimistic version check.
	// A concurrent writer losing the race gets a CONFLICT app error and
	// must retry or surface it; state is never silently overwritten.
	Update(ctx context.Context, transfer *domain.Transfer) error
}
