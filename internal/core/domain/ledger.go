package domain

import (
	"time"

	"github.com/google/uuid"
)

// LedgerEntry is the per-account projection of a posting event. Each account
// carries its own (market, org, account) hash chain, independently
// verifiable from the journal chain.
type LedgerEntry struct {
	EntryID     uuid.UUID
	Market      MarketID
	Org         OrgID
	LegalEntity LegalEntityID
	AccountID   uuid.UUID
	TransferID  uuid.UUID
	Direction   LedgerDirection
	Currency    CurrencyCode
	AmountMinor int64
	OccurredAt  time.Time
	PrevHash    []byte
	EntryHash   []byte
}
