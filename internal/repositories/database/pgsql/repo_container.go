package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
)

// NewStoreProvider wires all PostgreSQL-backed stores over one pool.
func NewStoreProvider(dbPool *pgxpool.Pool) portsrepo.StoreProvider {
	return portsrepo.StoreProvider{
		Accounts:       newPgxAccountRepository(dbPool),
		Balances:       newPgxBalanceRepository(dbPool),
		Journal:        newPgxJournalRepository(dbPool),
		Ledger:         newPgxLedgerRepository(dbPool),
		Outbox:         newPgxOutboxRepository(dbPool),
		Audit:          newPgxAuditRepository(dbPool),
		Transfers:      newPgxTransferRepository(dbPool),
		Idempotency:    newPgxIdempotencyRepository(dbPool),
		Reconciliation: newPgxReconciliationRepository(dbPool),
		Tx:             newPgxTxManager(dbPool),
	}
}
