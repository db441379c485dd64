package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus is the lifecycle status of an account.
type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountFrozen AccountStatus = "FROZEN"
	// AccountSuspended is a backward-compatible wire alias for FROZEN kept
	// for rows written by older deployments. Guards treat it as frozen.
	AccountSuspended AccountStatus = "SUSPENDED"
	AccountClosed    AccountStatus = "CLOSED"
)

// Account is the read view of an account. Accounts are owned and mutated by
// the external account-management subsystem; this service only reads them.
type Account struct {
	AccountID      uuid.UUID
	Market         MarketID
	Org            OrgID
	LegalEntity    LegalEntityID
	Currency       CurrencyCode
	Status         AccountStatus
	AllowOverdraft bool
	CreatedAt      time.Time
}

// IsActive reports whether the account may take part in new transfers.
func (a Account) IsActive() bool {
	return a.Status == AccountActive
}

// IsFrozen reports whether the account is frozen, including the legacy
// SUSPENDED alias.
func (a Account) IsFrozen() bool {
	return a.Status == AccountFrozen || a.Status == AccountSuspended
}
