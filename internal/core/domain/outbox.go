package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxRecord is one durable domain event, written in the same unit of
// work as the mutation that produced it. DedupeKey is unique per
// (market, org) so downstream consumers can deduplicate at-least-once
// delivery.
type OutboxRecord struct {
	OutboxID      uuid.UUID
	Market        MarketID
	Org           OrgID
	AggregateType string
	AggregateID   uuid.UUID
	EventType     string
	PayloadJSON   string
	DedupeKey     string
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// OutboxScopeRef names one (market, org) scope holding outbox records.
type OutboxScopeRef struct {
	Market MarketID
	Org    OrgID
}
