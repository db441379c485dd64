package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// AccountStore reads account views. Accounts are owned by the external
// account-management subsystem; the treasury core never mutates them.
type AccountStore interface {
	// FindByID retrieves an account by id within the tenant scope, or nil
	// when absent.
	FindByID(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) (*domain.Account, error)
}
