package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// LedgerStore appends to and reads the per-account hash chains. The same
// serialization rule as the journal chain applies, keyed by
// (market, org, account).
type LedgerStore interface {
	// FindLatestHashForAccount returns the newest entry hash of one
	// account's chain, or nil for an untouched account.
	FindLatestHashForAccount(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) ([]byte, error)

	// AppendEntries writes the batch atomically.
	AppendEntries(ctx context.Context, entries []domain.LedgerEntry) error

	// ListByAccount returns one account's entries ordered by occurrence
	// time.
	ListByAccount(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) ([]domain.LedgerEntry, error)
}
