package pgsql

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
)

type PgxReconciliationRepository struct {
	BaseRepository
}

func newPgxReconciliationRepository(pool *pgxpool.Pool) portsrepo.ReconciliationStore {
	return &PgxReconciliationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ReconciliationStore = (*PgxReconciliationRepository)(nil)

func (r *PgxReconciliationRepository) Save(ctx context.Context, run *domain.ReconciliationRun) error {
	query := `
		INSERT INTO reconciliation_runs (
			run_id, market, org, status, entries_verified, failure_detail,
			triggered_by, started_at, finished_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.db(ctx).Exec(ctx, query,
		run.RunID,
		run.Market.String(),
		run.Org.String(),
		string(run.Status),
		run.EntriesVerified,
		run.FailureDetail,
		run.TriggeredBy,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return apperrors.NewInternal("failed to insert reconciliation run "+run.RunID.String(), err)
	}
	return nil
}

func (r *PgxReconciliationRepository) Update(ctx context.Context, run *domain.ReconciliationRun) error {
	query := `
		UPDATE reconciliation_runs
		SET status = $1, entries_verified = $2, failure_detail = $3, finished_at = $4
		WHERE run_id = $5;
	`
	tag, err := r.db(ctx).Exec(ctx, query,
		string(run.Status),
		run.EntriesVerified,
		run.FailureDetail,
		run.FinishedAt,
		run.RunID,
	)
	if err != nil {
		return apperrors.NewInternal("failed to update reconciliation run "+run.RunID.String(), err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFound("reconciliation run not found", map[string]any{
			"run_id": run.RunID.String()})
	}
	return nil
}

func (r *PgxReconciliationRepository) FindByID(ctx context.Context, market domain.MarketID, org domain.OrgID, runID uuid.UUID) (*domain.ReconciliationRun, error) {
	query := `
		SELECT run_id, market, org, status, entries_verified, failure_detail,
		       triggered_by, started_at, finished_at
		FROM reconciliation_runs
		WHERE market = $1 AND org = $2 AND run_id = $3;
	`
	var run domain.ReconciliationRun
	err := r.db(ctx).QueryRow(ctx, query, market.String(), org.String(), runID).Scan(
		&run.RunID,
		&run.Market,
		&run.Org,
		&run.Status,
		&run.EntriesVerified,
		&run.FailureDetail,
		&run.TriggeredBy,
		&run.StartedAt,
		&run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to query reconciliation run "+runID.String(), err)
	}
	return &run, nil
}
