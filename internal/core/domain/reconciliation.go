package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReconciliationStatus is the state of a verification run.
type ReconciliationStatus string

const (
	ReconciliationRunning   ReconciliationStatus = "RUNNING"
	ReconciliationCompleted ReconciliationStatus = "COMPLETED"
	ReconciliationFailed    ReconciliationStatus = "FAILED"
)

// ReconciliationRun records one triggered verification pass over a scope's
// journal chain.
type ReconciliationRun struct {
	RunID           uuid.UUID
	Market          MarketID
	Org             OrgID
	Status          ReconciliationStatus
	EntriesVerified int
	FailureDetail   string
	TriggeredBy     string
	StartedAt       time.Time
	FinishedAt      *time.Time
}
