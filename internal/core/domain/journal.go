package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalStatus indicates the state of a journal entry.
type JournalStatus string

const (
	JournalPosted JournalStatus = "POSTED"
)

// LedgerDirection is the side of a posting.
type LedgerDirection string

const (
	Debit  LedgerDirection = "DEBIT"
	Credit LedgerDirection = "CREDIT"
)

// JournalLineType classifies a line within an entry.
type JournalLineType string

const (
	LinePrincipal JournalLineType = "PRINCIPAL"
	LineFee       JournalLineType = "FEE"
)

// JournalEntry is one append-only posting event. EntryHash depends on
// PrevHash, forming a per-(market, org) tamper-evident chain strictly
// ordered by posting time.
type JournalEntry struct {
	EntryID       uuid.UUID
	Market        MarketID
	Org           OrgID
	CorrelationID string
	ReferenceType string
	ReferenceID   uuid.UUID
	Status        JournalStatus
	PostedAt      time.Time
	PrevHash      []byte
	EntryHash     []byte
}

// JournalLine is a single account posting inside an entry. Amount is the
// currency-major decimal stored at fixed scale 6.
type JournalLine struct {
	LineID    uuid.UUID
	EntryID   uuid.UUID
	AccountID uuid.UUID
	Currency  CurrencyCode
	Direction LedgerDirection
	LineType  JournalLineType
	Amount    decimal.Decimal
	Memo      string
}
