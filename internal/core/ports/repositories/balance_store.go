package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// BalanceStore mutates account balances. Implementations must linearize
// reserve/release/settle on the same account (optimistic version check or
// row lock); lost updates are not acceptable.
type BalanceStore interface {
	// FindByAccountID returns the balance row, or nil when the account has
	// never been touched.
	FindByAccountID(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) (*domain.AccountBalance, error)

	// Reserve earmarks funds for a pending transfer: available -= amount,
	// reserved += amount. Lazily creates a zeroed balance row inheriting the
	// account's legal entity and currency. Fails with CONFLICT on
	// insufficient available funds unless the account allows overdraft, and
	// on currency mismatch.
	Reserve(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID, amountMinor int64, currency domain.CurrencyCode) error

	// ReleaseReservation returns reserved funds to available. A reservation
	// underflow is an INVARIANT_VIOLATION, never silently clamped.
	ReleaseReservation(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID, amountMinor int64, currency domain.CurrencyCode) error

	// Settle moves a prior reservation into the books: source reserved and
	// ledger decrease, destination ledger and available increase. Source
	// available is not touched; the funds left it at reservation time.
	Settle(ctx context.Context, market domain.MarketID, org domain.OrgID, sourceAccountID, destinationAccountID uuid.UUID, amountMinor int64, currency domain.CurrencyCode) error
}
