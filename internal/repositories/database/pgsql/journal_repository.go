package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
	"github.com/kitewire/treasury_backend/internal/utils/pagination"
)

type PgxJournalRepository struct {
	BaseRepository
}

func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalStore {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.JournalStore = (*PgxJournalRepository)(nil)

// FindLatestHash takes a transaction-scoped advisory lock on the
// (market, org) scope before reading the chain head, so a concurrent
// poster cannot append between this read and the caller's AppendPosted.
func (r *PgxJournalRepository) FindLatestHash(ctx context.Context, market domain.MarketID, org domain.OrgID) ([]byte, error) {
	lockQuery := `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2));`
	if _, err := r.db(ctx).Exec(ctx, lockQuery, market.String(), org.String()); err != nil {
		return nil, apperrors.NewInternal("failed to lock journal scope", err)
	}

	query := `
		SELECT entry_hash
		FROM journal_entries
		WHERE market = $1 AND org = $2
		ORDER BY posted_at DESC, entry_id DESC
		LIMIT 1;
	`
	var hash []byte
	err := r.db(ctx).QueryRow(ctx, query, market.String(), org.String()).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to query latest journal hash", err)
	}
	return hash, nil
}

func (r *PgxJournalRepository) AppendPosted(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	entryQuery := `
		INSERT INTO journal_entries (
			entry_id, market, org, correlation_id, reference_type, reference_id,
			status, posted_at, prev_hash, entry_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.db(ctx).Exec(ctx, entryQuery,
		entry.EntryID,
		entry.Market.String(),
		entry.Org.String(),
		entry.CorrelationID,
		entry.ReferenceType,
		entry.ReferenceID,
		string(entry.Status),
		entry.PostedAt,
		entry.PrevHash,
		entry.EntryHash,
	)
	if err != nil {
		return apperrors.NewInternal("failed to insert journal entry "+entry.EntryID.String(), err)
	}

	lineQuery := `
		INSERT INTO journal_lines (line_id, entry_id, account_id, currency_code, direction, line_type, amount, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	for _, line := range lines {
		_, err := r.db(ctx).Exec(ctx, lineQuery,
			line.LineID,
			line.EntryID,
			line.AccountID,
			line.Currency.String(),
			string(line.Direction),
			string(line.LineType),
			line.Amount,
			line.Memo,
		)
		if err != nil {
			return apperrors.NewInternal("failed to insert journal line "+line.LineID.String(), err)
		}
	}
	return nil
}

func (r *PgxJournalRepository) ListEntries(ctx context.Context, market domain.MarketID, org domain.OrgID, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	query := `
		SELECT entry_id, market, org, correlation_id, reference_type, reference_id,
		       status, posted_at, prev_hash, entry_hash
		FROM journal_entries
		WHERE market = $1 AND org = $2
	`
	args := []any{market.String(), org.String()}
	if nextToken != nil {
		afterTime, afterID, err := pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidation("invalid pagination token", nil)
		}
		query += ` AND (posted_at, entry_id::text) > ($3, $4)`
		args = append(args, afterTime, afterID)
	}
	query += ` ORDER BY posted_at ASC, entry_id ASC LIMIT ` + strconv.Itoa(limit+1) + `;`

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewInternal("failed to list journal entries", err)
	}
	defer rows.Close()

	var entries []domain.JournalEntry
	for rows.Next() {
		var entry domain.JournalEntry
		err := rows.Scan(
			&entry.EntryID,
			&entry.Market,
			&entry.Org,
			&entry.CorrelationID,
			&entry.ReferenceType,
			&entry.ReferenceID,
			&entry.Status,
			&entry.PostedAt,
			&entry.PrevHash,
			&entry.EntryHash,
		)
		if err != nil {
			return nil, nil, apperrors.NewInternal("failed to scan journal entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewInternal("failed to read journal entries", err)
	}

	var token *string
	if len(entries) > limit {
		entries = entries[:limit]
		last := entries[len(entries)-1]
		encoded := pagination.EncodeCursor(last.PostedAt, last.EntryID.String())
		token = &encoded
	}
	return entries, token, nil
}

func (r *PgxJournalRepository) LinesByEntry(ctx context.Context, market domain.MarketID, org domain.OrgID, entryID uuid.UUID) ([]domain.JournalLine, error) {
	query := `
		SELECT jl.line_id, jl.entry_id, jl.account_id, jl.currency_code, jl.direction, jl.line_type, jl.amount, jl.memo
		FROM journal_lines jl
		JOIN journal_entries je ON je.entry_id = jl.entry_id
		WHERE jl.entry_id = $1 AND je.market = $2 AND je.org = $3
		ORDER BY jl.account_id ASC, jl.direction ASC;
	`
	rows, err := r.db(ctx).Query(ctx, query, entryID, market, org)
	if err != nil {
		return nil, apperrors.NewInternal("failed to query journal lines for entry "+entryID.String(), err)
	}
	defer rows.Close()

	var lines []domain.JournalLine
	for rows.Next() {
		var (
			line     domain.JournalLine
			currency string
		)
		err := rows.Scan(
			&line.LineID,
			&line.EntryID,
			&line.AccountID,
			&currency,
			&line.Direction,
			&line.LineType,
			&line.Amount,
			&line.Memo,
		)
		if err != nil {
			return nil, apperrors.NewInternal("failed to scan journal line", err)
		}
		line.Currency = domain.CurrencyCode(currency)
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternal("failed to read journal lines", err)
	}
	return lines, nil
}
