package services

import (
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
	portssvc "github.com/kitewire/treasury_backend/internal/core/ports/services"
)

// NewServiceContainer wires every application service from the store
// provider.
func NewServiceContainer(stores portsrepo.StoreProvider) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Transfer:       NewTransferService(stores),
		Idempotency:    NewIdempotencyService(stores.Idempotency, stores.Tx),
		Ledger:         NewLedgerService(stores.Balances, stores.Journal, stores.Ledger),
		Reconciliation: NewReconciliationService(stores.Reconciliation, stores.Journal, stores.Audit),
	}
}
