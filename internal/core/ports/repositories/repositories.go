package repositories

// StoreProvider holds every store contract the services need. It keeps the
// service container constructor signature flat.
type StoreProvider struct {
	Accounts       AccountStore
	Balances       BalanceStore
	Journal        JournalStore
	Ledger         LedgerStore
	Outbox         OutboxStore
	Audit          AuditStore
	Transfers      TransferStore
	Idempotency    IdempotencyStore
	Reconciliation ReconciliationStore
	Tx             TxManager
}
