package pgsql

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
)

type PgxTransferRepository struct {
	BaseRepository
}

func newPgxTransferRepository(pool *pgxpool.Pool) portsrepo.TransferStore {
	return &PgxTransferRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransferStore = (*PgxTransferRepository)(nil)

func (r *PgxTransferRepository) Save(ctx context.Context, transfer *domain.Transfer) error {
	query := `
		INSERT INTO transfers (
			transfer_id, market, org, legal_entity_id, source_account_id, destination_account_id,
			amount_minor, currency_code, transfer_type, status, reason,
			created_by_subject, approved_by_subject, canceled_by_subject, failed_reason,
			version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18);
	`
	transfer.Version = 1
	_, err := r.db(ctx).Exec(ctx, query,
		transfer.TransferID,
		transfer.Market.String(),
		transfer.Org.String(),
		transfer.LegalEntity.String(),
		transfer.SourceAccountID,
		transfer.DestinationAccountID,
		transfer.Money.AmountMinor,
		transfer.Money.Currency.String(),
		string(transfer.Type),
		string(transfer.Status),
		transfer.Reason,
		transfer.CreatedBySubject,
		transfer.ApprovedBySubject,
		transfer.CanceledBySubject,
		transfer.FailedReason,
		transfer.Version,
		transfer.CreatedAt,
		transfer.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.NewConflict("transfer already exists", map[string]any{
				"transfer_id": transfer.TransferID.String()})
		}
		return apperrors.NewInternal("failed to insert transfer "+transfer.TransferID.String(), err)
	}
	return nil
}

func (r *PgxTransferRepository) FindByID(ctx context.Context, market domain.MarketID, org domain.OrgID, transferID uuid.UUID) (*domain.Transfer, error) {
	query := `
		SELECT transfer_id, market, org, legal_entity_id, source_account_id, destination_account_id,
		       amount_minor, currency_code, transfer_type, status, reason,
		       created_by_subject, approved_by_subject, canceled_by_subject, failed_reason,
		       version, created_at, updated_at
		FROM transfers
		WHERE market = $1 AND org = $2 AND transfer_id = $3;
	`
	var (
		transfer domain.Transfer
		currency string
	)
	err := r.db(ctx).QueryRow(ctx, query, market.String(), org.String(), transferID).Scan(
		&transfer.TransferID,
		&transfer.Market,
		&transfer.Org,
		&transfer.LegalEntity,
		&transfer.SourceAccountID,
		&transfer.DestinationAccountID,
		&transfer.Money.AmountMinor,
		&currency,
		&transfer.Type,
		&transfer.Status,
		&transfer.Reason,
		&transfer.CreatedBySubject,
		&transfer.ApprovedBySubject,
		&transfer.CanceledBySubject,
		&transfer.FailedReason,
		&transfer.Version,
		&transfer.CreatedAt,
		&transfer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.NewInternal("failed to query transfer "+transferID.String(), err)
	}
	transfer.Money.Currency = domain.CurrencyCode(currency)
	return &transfer, nil
}

func (r *PgxTransferRepository) Update(ctx context.Context, transfer *domain.Transfer) error {
	query := `
		UPDATE transfers
		SET status = $1, reason = $2, approved_by_subject = $3, canceled_by_subject = $4,
		    failed_reason = $5, version = version + 1, updated_at = $6
		WHERE transfer_id = $7 AND version = $8;
	`
	tag, err := r.db(ctx).Exec(ctx, query,
		string(transfer.Status),
		transfer.Reason,
		transfer.ApprovedBySubject,
		transfer.CanceledBySubject,
		transfer.FailedReason,
		transfer.UpdatedAt,
		transfer.TransferID,
		transfer.Version,
	)
	if err != nil {
		return apperrors.NewInternal("failed to update transfer "+transfer.TransferID.String(), err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflict("transfer modified concurrently", map[string]any{
			"transfer_id": transfer.TransferID.String()})
	}
	transfer.Version++
	return nil
}
