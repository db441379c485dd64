package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
	portssvc "github.com/kitewire/treasury_backend/internal/core/ports/services"
	"github.com/kitewire/treasury_backend/internal/middleware"
	"github.com/kitewire/treasury_backend/internal/utils/hashchain"
)

// reconciliationService verifies a scope's journal chain end to end and
// records the outcome as a run. Full statement-vs-ledger matching lives in
// a separate system; this service only runs the tamper-evidence pass.
type reconciliationService struct {
	runs    portsrepo.ReconciliationStore
	journal portsrepo.JournalStore
	audit   portsrepo.AuditStore
	now     func() time.Time
}

// NewReconciliationService creates the chain-verification service.
func NewReconciliationService(runs portsrepo.ReconciliationStore, journal portsrepo.JournalStore, audit portsrepo.AuditStore) portssvc.ReconciliationSvcFacade {
	return &reconciliationService{runs: runs, journal: journal, audit: audit, now: time.Now}
}

var _ portssvc.ReconciliationSvcFacade = (*reconciliationService)(nil)

func (s *reconciliationService) TriggerRun(ctx context.Context, scope domain.RequestScope, correlationID string) (*domain.ReconciliationRun, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	run := &domain.ReconciliationRun{
		RunID:       uuid.New(),
		Market:      scope.Market,
		Org:         scope.Org,
		Status:      domain.ReconciliationRunning,
		TriggeredBy: scope.Subject,
		StartedAt:   s.now(),
	}
	if err := s.runs.Save(ctx, run); err != nil {
		return nil, err
	}

	verified, verifyErr := s.verifyJournalChain(ctx, scope)

	finishedAt := s.now()
	run.EntriesVerified = verified
	run.FinishedAt = &finishedAt
	if verifyErr != nil {
		run.Status = domain.ReconciliationFailed
		run.FailureDetail = verifyErr.Error()
	} else {
		run.Status = domain.ReconciliationCompleted
	}
	if err := s.runs.Update(ctx, run); err != nil {
		return nil, err
	}

	outcome := "SUCCESS"
	if verifyErr != nil {
		outcome = "FAILURE"
	}
	if err := s.audit.Write(ctx, domain.AuditEvent{
		Market:        scope.Market,
		Org:           scope.Org,
		CorrelationID: correlationID,
		Subject:       scope.Subject,
		Action:        "reconciliation.trigger",
		ResourceType:  "reconciliation_run",
		ResourceID:    run.RunID.String(),
		Outcome:       outcome,
		OccurredAt:    s.now(),
		Metadata:      map[string]any{"entries_verified": verified},
	}); err != nil {
		return nil, err
	}

	logger.Info("Reconciliation run finished",
		slog.String("run_id", run.RunID.String()),
		slog.String("status", string(run.Status)),
		slog.Int("entries_verified", verified),
	)
	return run, nil
}

func (s *reconciliationService) GetRun(ctx context.Context, scope domain.RequestScope, runID uuid.UUID) (*domain.ReconciliationRun, error) {
	run, err := s.runs.FindByID(ctx, scope.Market, scope.Org, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, apperrors.NewNotFound("reconciliation run not found", map[string]any{"run_id": runID.String()})
	}
	return run, nil
}

// verifyJournalChain pages through the scope's entries in posting order and
// recomputes every hash.
func (s *reconciliationService) verifyJournalChain(ctx context.Context, scope domain.RequestScope) (int, error) {
	var (
		posted    []hashchain.PostedEntry
		nextToken *string
	)
	for {
		entries, token, err := s.journal.ListEntries(ctx, scope.Market, scope.Org, maxListLimit, nextToken)
		if err != nil {
			return 0, err
		}
		for _, entry := range entries {
			lines, err := s.journal.LinesByEntry(ctx, scope.Market, scope.Org, entry.EntryID)
			if err != nil {
				return 0, err
			}
			posted = append(posted, hashchain.PostedEntry{Entry: entry, Lines: lines})
		}
		if token == nil {
			break
		}
		nextToken = token
	}

	return hashchain.VerifyJournalChain(posted)
}
