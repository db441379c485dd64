package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// JournalStore appends to and reads the per-(market, org) hash-chained
// journal. Appends for the same scope must be strictly serialized; a fork
// makes the chain unverifiable.
type JournalStore interface {
	// FindLatestHash returns the entry hash of the newest entry in scope,
	// or nil when the scope has no entries yet. Implementations must ensure
	// the read-then-append sequence for one scope cannot interleave with a
	// concurrent append.
	FindLatestHash(ctx context.Context, market domain.MarketID, org domain.OrgID) ([]byte, error)

	// AppendPosted writes the entry and its lines atomically, advancing the
	// scope's chain.
	AppendPosted(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error

	// ListEntries returns entries for a scope ordered by posting time, with
	// an opaque pagination token.
	ListEntries(ctx context.Context, market domain.MarketID, org domain.OrgID, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// LinesByEntry returns the lines of one entry within the tenant scope,
	// or nil when the entry does not exist in that scope.
	LinesByEntry(ctx context.Context, market domain.MarketID, org domain.OrgID, entryID uuid.UUID) ([]domain.JournalLine, error)
}
