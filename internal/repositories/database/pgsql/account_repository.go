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

type PgxAccountRepository struct {
	BaseRepository
}

func newPgxAccountRepository(pool *pgxpool.Pool) portsrepo.AccountStore {
	return &PgxAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountStore = (*PgxAccountRepository)(nil)

func (r *PgxAccountRepository) FindByID(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) (*domain.Account, error) {
	query := `
		SELECT account_id, market, org, legal_entity_id, currency_code, status, allow_overdraft, created_at
		FROM accounts
		WHERE market = $1 AND org = $2 AND account_id = $3;
	`
	var (
		account  domain.Account
		currency string
	)
	err := r.db(ctx).QueryRow(ctx, query, market.String(), org.String(), accountID).Scan(
		&account.AccountID,
		&account.Market,
		&account.Org,
		&account.LegalEntity,
		&currency,
		&account.Status,
		&account.AllowOverdraft,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to query account "+accountID.String(), err)
	}
	account.Currency = domain.CurrencyCode(currency)
	return &account, nil
}
