package services

// ServiceContainer holds every application service. Handlers and jobs reach
// the core exclusively through these facades.
type ServiceContainer struct {
	Transfer       TransferSvcFacade
	Idempotency    IdempotencySvcFacade
	Ledger         LedgerSvcFacade
	Reconciliation ReconciliationSvcFacade
}
