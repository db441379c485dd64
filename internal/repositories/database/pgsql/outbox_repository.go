package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
)

type PgxOutboxRepository struct {
	BaseRepository
}

func newPgxOutboxRepository(pool *pgxpool.Pool) portsrepo.OutboxStore {
	return &PgxOutboxRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.OutboxStore = (*PgxOutboxRepository)(nil)

func (r *PgxOutboxRepository) Add(ctx context.Context, record domain.OutboxRecord) error {
	query := `
		INSERT INTO outbox (
			outbox_id, market, org, aggregate_type, aggregate_id, event_type,
			payload, dedupe_key, created_at, published_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL);
	`
	_, err := r.db(ctx).Exec(ctx, query,
		record.OutboxID,
		record.Market.String(),
		record.Org.String(),
		record.AggregateType,
		record.AggregateID,
		record.EventType,
		record.PayloadJSON,
		record.DedupeKey,
		record.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.NewConflict("duplicate outbox dedupe key", map[string]any{
				"dedupe_key": record.DedupeKey})
		}
		return apperrors.NewInternal("failed to insert outbox record", err)
	}
	return nil
}

func (r *PgxOutboxRepository) NextUnpublished(ctx context.Context, market domain.MarketID, org domain.OrgID) (*domain.OutboxRecord, error) {
	query := `
		SELECT outbox_id, market, org, aggregate_type, aggregate_id, event_type,
		       payload, dedupe_key, created_at, published_at
		FROM outbox
		WHERE market = $1 AND org = $2 AND published_at IS NULL
		ORDER BY created_at ASC, outbox_id ASC
		LIMIT 1;
	`
	var record domain.OutboxRecord
	err := r.db(ctx).QueryRow(ctx, query, market.String(), org.String()).Scan(
		&record.OutboxID,
		&record.Market,
		&record.Org,
		&record.AggregateType,
		&record.AggregateID,
		&record.EventType,
		&record.PayloadJSON,
		&record.DedupeKey,
		&record.CreatedAt,
		&record.PublishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to query unpublished outbox record", err)
	}
	return &record, nil
}

func (r *PgxOutboxRepository) MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error {
	query := `
		UPDATE outbox
		SET published_at = $1
		WHERE outbox_id = $2 AND published_at IS NULL;
	`
	if _, err := r.db(ctx).Exec(ctx, query, at, outboxID); err != nil {
		return apperrors.NewInternal("failed to mark outbox record published", err)
	}
	return nil
}

func (r *PgxOutboxRepository) ScopesWithUnpublished(ctx context.Context) ([]domain.OutboxScopeRef, error) {
	query := `
		SELECT DISTINCT market, org
		FROM outbox
		WHERE published_at IS NULL;
	`
	rows, err := r.db(ctx).Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewInternal("failed to query outbox scopes", err)
	}
	defer rows.Close()

	var scopes []domain.OutboxScopeRef
	for rows.Next() {
		var ref domain.OutboxScopeRef
		if err := rows.Scan(&ref.Market, &ref.Org); err != nil {
			return nil, apperrors.NewInternal("failed to scan outbox scope", err)
		}
		scopes = append(scopes, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal("failed to read outbox scopes", err)
	}
	return scopes, nil
}
