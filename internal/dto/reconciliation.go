package dto

import (
	"time"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// ReconciliationRunResponse is the API view of one verification run.
type ReconciliationRunResponse struct {
	RunID           string     `json:"run_id"`
	Status          string     `json:"status"`
	EntriesVerified int        `json:"entries_verified"`
	FailureDetail   string     `json:"failure_detail,omitempty"`
	TriggeredBy     string     `json:"triggered_by"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// ToReconciliationRunResponse converts a domain.ReconciliationRun to its
// API view.
func ToReconciliationRunResponse(run *domain.ReconciliationRun) ReconciliationRunResponse {
	return ReconciliationRunResponse{
		RunID:           run.RunID.String(),
		Status:          string(run.Status),
		EntriesVerified: run.EntriesVerified,
		FailureDetail:   run.FailureDetail,
		TriggeredBy:     run.TriggeredBy,
		StartedAt:       run.StartedAt,
		FinishedAt:      run.FinishedAt,
	}
}
