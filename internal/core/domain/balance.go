package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountBalance is the mutable balance row of one account. AvailableMinor
// may only go negative when the account allows overdraft; ReservedMinor is
// never negative. Mutated exclusively through the BalanceStore
// reserve/release/settle operations. Version implements optimistic
// concurrency: every update predicates on the version it read.
type AccountBalance struct {
	AccountID      uuid.UUID
	Market         MarketID
	Org            OrgID
	LegalEntity    LegalEntityID
	Currency       CurrencyCode
	AvailableMinor int64
	ReservedMinor  int64
	PendingMinor   int64
	LedgerMinor    int64
	Version        int64
	UpdatedAt      time.Time
}
