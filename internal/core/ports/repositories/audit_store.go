package repositories

import (
	"context"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// AuditStore appends compliance records. Append-only.
type AuditStore interface {
	Write(ctx context.Context, event domain.AuditEvent) error
}
