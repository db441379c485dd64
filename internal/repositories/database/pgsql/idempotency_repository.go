package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
)

type PgxIdempotencyRepository struct {
	BaseRepository
}

func newPgxIdempotencyRepository(pool *pgxpool.Pool) portsrepo.IdempotencyStore {
	return &PgxIdempotencyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.IdempotencyStore = (*PgxIdempotencyRepository)(nil)

func (r *PgxIdempotencyRepository) Find(ctx context.Context, market domain.MarketID, org domain.OrgID, key string) (*domain.IdempotencyRecord, error) {
	query := `
		SELECT market, org, idempotency_key, request_hash, response_status, response_body, created_at
		FROM idempotency_keys
		WHERE market = $1 AND org = $2 AND idempotency_key = $3;
	`
	var record domain.IdempotencyRecord
	err := r.db(ctx).QueryRow(ctx, query, market.String(), org.String(), key).Scan(
		&record.Market,
		&record.Org,
		&record.IdempotencyKey,
		&record.RequestHash,
		&record.ResponseStatus,
		&record.ResponseBody,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to query idempotency record", err)
	}
	return &record, nil
}

// InsertIfAbsent relies on the unique constraint over
// (market, org, idempotency_key); ON CONFLICT DO NOTHING makes the lost
// race observable through the affected row count.
func (r *PgxIdempotencyRepository) InsertIfAbsent(ctx context.Context, record domain.IdempotencyRecord) (bool, error) {
	query := `
		INSERT INTO idempotency_keys (market, org, idempotency_key, request_hash, response_status, response_body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (market, org, idempotency_key) DO NOTHING;
	`
	tag, err := r.db(ctx).Exec(ctx, query,
		record.Market.String(),
		record.Org.String(),
		record.IdempotencyKey,
		record.RequestHash,
		record.ResponseStatus,
		record.ResponseBody,
		record.CreatedAt,
	)
	if err != nil {
		return false, apperrors.NewInternal("failed to insert idempotency record", err)
	}
	return tag.RowsAffected() == 1, nil
}
