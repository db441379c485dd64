package repositories

import (
	"context"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// IdempotencyStore persists request-deduplication records.
type IdempotencyStore interface {
	// Find returns the record for (market, org, key), or nil when absent.
	Find(ctx context.Context, market domain.MarketID, org domain.OrgID, key string) (*domain.IdempotencyRecord, error)

	// InsertIfAbsent atomically inserts the record, returning false when a
	// record for the same (market, org, key) already exists. The uniqueness
	// guarantee must come from the store (unique constraint), not from a
	// prior Find.
	InsertIfAbsent(ctx context.Context, record domain.IdempotencyRecord) (bool, error)
}
