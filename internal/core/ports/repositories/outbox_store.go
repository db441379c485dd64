package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// OutboxStore is the durable domain-event queue. Records are written in the
// same unit of work as the mutation that produced them and drained by the
// publisher job.
type OutboxStore interface {
	// Add enqueues one record.
	Add(ctx context.Context, record domain.OutboxRecord) error

	// NextUnpublished returns the oldest unpublished record for a scope
	// (FIFO by creation time), or nil when the scope is drained.
	NextUnpublished(ctx context.Context, market domain.MarketID, org domain.OrgID) (*domain.OutboxRecord, error)

	// MarkPublished idempotently stamps publishedAt. Publishing is
	// at-least-once; consumers dedupe on DedupeKey.
	MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error

	// ScopesWithUnpublished lists the scopes currently holding unpublished
	// records, for the poller to iterate.
	ScopesWithUnpublished(ctx context.Context) ([]domain.OutboxScopeRef, error)
}
