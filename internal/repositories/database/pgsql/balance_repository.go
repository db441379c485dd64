package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
)

type PgxBalanceRepository struct {
	BaseRepository
}

func newPgxBalanceRepository(pool *pgxpool.Pool) portsrepo.BalanceStore {
	return &PgxBalanceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BalanceStore = (*PgxBalanceRepository)(nil)

func (r *PgxBalanceRepository) FindByAccountID(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) (*domain.AccountBalance, error) {
	query := `
		SELECT account_id, market, org, legal_entity_id, currency_code,
		       available_minor, reserved_minor, pending_minor, ledger_minor, version, updated_at
		FROM account_balances
		WHERE market = $1 AND org = $2 AND account_id = $3;
	`
	return r.scanBalance(r.db(ctx).QueryRow(ctx, query, market.String(), org.String(), accountID))
}

// lockBalance loads the balance row under a row lock, lazily creating a
// zeroed row that inherits the account's legal entity and currency on first
// touch. Must run inside a unit of work so the lock spans the read-modify
// -write.
func (r *PgxBalanceRepository) lockBalance(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID, currency domain.CurrencyCode) (*domain.AccountBalance, error) {
	insert := `
		INSERT INTO account_balances (account_id, market, org, legal_entity_id, currency_code,
		       available_minor, reserved_minor, pending_minor, ledger_minor, version, updated_at)
		SELECT a.account_id, a.market, a.org, a.legal_entity_id, a.currency_code, 0, 0, 0, 0, 1, now()
		FROM accounts a
		WHERE a.market = $1 AND a.org = $2 AND a.account_id = $3
		ON CONFLICT (account_id) DO NOTHING;
	`
	if _, err := r.db(ctx).Exec(ctx, insert, market.String(), org.String(), accountID); err != nil {
		return nil, apperrors.NewInternal("failed to initialize balance for account "+accountID.String(), err)
	}

	query := `
		SELECT account_id, market, org, legal_entity_id, currency_code,
		       available_minor, reserved_minor, pending_minor, ledger_minor, version, updated_at
		FROM account_balances
		WHERE market = $1 AND org = $2 AND account_id = $3
		FOR UPDATE;
	`
	balance, err := r.scanBalance(r.db(ctx).QueryRow(ctx, query, market.String(), org.String(), accountID))
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, apperrors.NewNotFound("account not found", map[string]any{"account_id": accountID.String()})
	}
	if balance.Currency != currency {
		return nil, apperrors.NewConflict("currency mismatch for account balance", map[string]any{
			"account_id":       accountID.String(),
			"balance_currency": balance.Currency.String(),
			"currency":         currency.String(),
		})
	}
	return balance, nil
}

func (r *PgxBalanceRepository) writeBalance(ctx context.Context, balance *domain.AccountBalance) error {
	query := `
		UPDATE account_balances
		SET available_minor = $1, reserved_minor = $2, ledger_minor = $3, version = version + 1, updated_at = $4
		WHERE account_id = $5 AND version = $6;
	`
	tag, err := r.db(ctx).Exec(ctx, query,
		balance.AvailableMinor,
		balance.ReservedMinor,
		balance.LedgerMinor,
		time.Now(),
		balance.AccountID,
		balance.Version,
	)
	if err != nil {
		return apperrors.NewInternal("failed to update balance for account "+balance.AccountID.String(), err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflict("balance modified concurrently", map[string]any{
			"account_id": balance.AccountID.String()})
	}
	return nil
}

func (r *PgxBalanceRepository) Reserve(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID, amountMinor int64, currency domain.CurrencyCode) error {
	balance, err := r.lockBalance(ctx, market, org, accountID, currency)
	if err != nil {
		return err
	}

	var allowOverdraft bool
	overdraftQuery := `SELECT allow_overdraft FROM accounts WHERE account_id = $1;`
	if err := r.db(ctx).QueryRow(ctx, overdraftQuery, accountID).Scan(&allowOverdraft); err != nil {
		return apperrors.NewInternal("failed to query account "+accountID.String(), err)
	}

	availableAfter := balance.AvailableMinor - amountMinor
	if !allowOverdraft && availableAfter < 0 {
		return apperrors.NewConflict("insufficient available funds", map[string]any{
			"account_id":      accountID.String(),
			"available_minor": balance.AvailableMinor,
			"amount_minor":    amountMinor,
		})
	}

	balance.AvailableMinor = availableAfter
	balance.ReservedMinor += amountMinor
	return r.writeBalance(ctx, balance)
}

func (r *PgxBalanceRepository) ReleaseReservation(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID, amountMinor int64, currency domain.CurrencyCode) error {
	balance, err := r.lockBalance(ctx, market, org, accountID, currency)
	if err != nil {
		return err
	}

	reservedAfter := balance.ReservedMinor - amountMinor
	if reservedAfter < 0 {
		return apperrors.NewInvariantViolation("reservation underflow", map[string]any{
			"account_id":     accountID.String(),
			"reserved_minor": balance.ReservedMinor,
			"amount_minor":   amountMinor,
		})
	}

	balance.ReservedMinor = reservedAfter
	balance.AvailableMinor += amountMinor
	return r.writeBalance(ctx, balance)
}

func (r *PgxBalanceRepository) Settle(ctx context.Context, market domain.MarketID, org domain.OrgID, sourceAccountID, destinationAccountID uuid.UUID, amountMinor int64, currency domain.CurrencyCode) error {
	// Lock in a fixed order so concurrent settlements touching the same
	// pair cannot deadlock.
	first, second := sourceAccountID, destinationAccountID
	if second.String() < first.String() {
		first, second = second, first
	}
	if _, err := r.lockBalance(ctx, market, org, first, currency); err != nil {
		return err
	}
	if _, err := r.lockBalance(ctx, market, org, second, currency); err != nil {
		return err
	}

	sourceBal, err := r.FindByAccountID(ctx, market, org, sourceAccountID)
	if err != nil {
		return err
	}
	destBal, err := r.FindByAccountID(ctx, market, org, destinationAccountID)
	if err != nil {
		return err
	}

	reservedAfter := sourceBal.ReservedMinor - amountMinor
	if reservedAfter < 0 {
		return apperrors.NewInvariantViolation("reservation underflow", map[string]any{
			"account_id":     sourceAccountID.String(),
			"reserved_minor": sourceBal.ReservedMinor,
			"amount_minor":   amountMinor,
		})
	}

	// Source available was already debited at reservation time.
	sourceBal.ReservedMinor = reservedAfter
	sourceBal.LedgerMinor -= amountMinor
	if err := r.writeBalance(ctx, sourceBal); err != nil {
		return err
	}

	destBal.LedgerMinor += amountMinor
	destBal.AvailableMinor += amountMinor
	return r.writeBalance(ctx, destBal)
}

func (r *PgxBalanceRepository) scanBalance(row pgx.Row) (*domain.AccountBalance, error) {
	var (
		balance  domain.AccountBalance
		currency string
	)
	err := row.Scan(
		&balance.AccountID,
		&balance.Market,
		&balance.Org,
		&balance.LegalEntity,
		&currency,
		&balance.AvailableMinor,
		&balance.ReservedMinor,
		&balance.PendingMinor,
		&balance.LedgerMinor,
		&balance.Version,
		&balance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to scan account balance", err)
	}
	balance.Currency = domain.CurrencyCode(currency)
	return &balance, nil
}
