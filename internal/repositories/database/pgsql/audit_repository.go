package pgsql

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
)

type PgxAuditRepository struct {
	BaseRepository
}

func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditStore {
	return &PgxAuditRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AuditStore = (*PgxAuditRepository)(nil)

func (r *PgxAuditRepository) Write(ctx context.Context, event domain.AuditEvent) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return apperrors.NewInternal("failed to encode audit metadata", err)
	}

	query := `
		INSERT INTO audit_events (
			market, org, legal_entity_id, correlation_id, subject, action,
			resource_type, resource_id, outcome, occurred_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err = r.db(ctx).Exec(ctx, query,
		event.Market.String(),
		event.Org.String(),
		event.LegalEntity.String(),
		event.CorrelationID,
		event.Subject,
		event.Action,
		event.ResourceType,
		event.ResourceID,
		event.Outcome,
		event.OccurredAt,
		metadata,
	)
	if err != nil {
		return apperrors.NewInternal("failed to insert audit event", err)
	}
	return nil
}
