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

type PgxLedgerRepository struct {
	BaseRepository
}

func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerStore {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerStore = (*PgxLedgerRepository)(nil)

// FindLatestHashForAccount serializes like the journal chain, one advisory
// lock per account chain.
func (r *PgxLedgerRepository) FindLatestHashForAccount(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) ([]byte, error) {
	lockQuery := `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2));`
	if _, err := r.db(ctx).Exec(ctx, lockQuery, market.String()+"|"+org.String(), accountID.String()); err != nil {
		return nil, apperrors.NewInternal("failed to lock ledger scope", err)
	}

	query := `
		SELECT entry_hash
		FROM ledger_entries
		WHERE market = $1 AND org = $2 AND account_id = $3
		ORDER BY occurred_at DESC, entry_id DESC
		LIMIT 1;
	`
	var hash []byte
	err := r.db(ctx).QueryRow(ctx, query, market.String(), org.String(), accountID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to query latest ledger hash", err)
	}
	return hash, nil
}

func (r *PgxLedgerRepository) AppendEntries(ctx context.Context, entries []domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (
			entry_id, market, org, legal_entity_id, account_id, transfer_id,
			direction, currency_code, amount_minor, occurred_at, prev_hash, entry_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	for _, entry := range entries {
		_, err := r.db(ctx).Exec(ctx, query,
			entry.EntryID,
			entry.Market.String(),
			entry.Org.String(),
			entry.LegalEntity.String(),
			entry.AccountID,
			entry.TransferID,
			string(entry.Direction),
			entry.Currency.String(),
			entry.AmountMinor,
			entry.OccurredAt,
			entry.PrevHash,
			entry.EntryHash,
		)
		if err != nil {
			return apperrors.NewInternal("failed to insert ledger entry "+entry.EntryID.String(), err)
		}
	}
	return nil
}

func (r *PgxLedgerRepository) ListByAccount(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) ([]domain.LedgerEntry, error) {
	query := `
		SELECT entry_id, market, org, legal_entity_id, account_id, transfer_id,
		       direction, currency_code, amount_minor, occurred_at, prev_hash, entry_hash
		FROM ledger_entries
		WHERE market = $1 AND org = $2 AND account_id = $3
		ORDER BY occurred_at ASC, entry_id ASC;
	`
	rows, err := r.db(ctx).Query(ctx, query, market.String(), org.String(), accountID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list ledger entries", err)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var (
			entry    domain.LedgerEntry
			currency string
		)
		err := rows.Scan(
			&entry.EntryID,
			&entry.Market,
			&entry.Org,
			&entry.LegalEntity,
			&entry.AccountID,
			&entry.TransferID,
			&entry.Direction,
			&currency,
			&entry.AmountMinor,
			&entry.OccurredAt,
			&entry.PrevHash,
			&entry.EntryHash,
		)
		if err != nil {
			return nil, apperrors.NewInternal("failed to scan ledger entry", err)
		}
		entry.Currency = domain.CurrencyCode(currency)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal("failed to read ledger entries", err)
	}
	return entries, nil
}
