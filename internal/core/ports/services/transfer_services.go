package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// TransferReaderSvc defines read operations for transfers.
type TransferReaderSvc interface {
	// GetTransfer loads a transfer within the request scope.
	GetTransfer(ctx context.Context, scope domain.RequestScope, transferID uuid.UUID) (*domain.Transfer, error)
}

// TransferWriterSvc defines the mutating transfer lifecycle operations.
// Every call is one unit of work across transfer persistence, balances,
// journal, outbox and audit.
type TransferWriterSvc interface {
	// CreateTransfer validates the draft against its accounts, persists it
	// as PENDING_APPROVAL, reserves the amount on the source account and
	// emits TransferCreated.
	CreateTransfer(ctx context.Context, scope domain.RequestScope, draft *domain.Transfer, correlationID string) (*domain.Transfer, error)

	// ApproveTransfer runs the full approve flow: queue, process, post the
	// double-entry journal, settle balances, complete, emitting the
	// corresponding events.
	ApproveTransfer(ctx context.Context, scope domain.RequestScope, transferID uuid.UUID, correlationID string) (*domain.Transfer, error)

	// CancelTransfer cancels a PENDING_APPROVAL or QUEUED transfer and
	// releases its reservation.
	CancelTransfer(ctx context.Context, scope domain.RequestScope, transferID uuid.UUID, reason string, correlationID string) (*domain.Transfer, error)
}

// TransferSvcFacade combines the transfer service interfaces.
type TransferSvcFacade interface {
	TransferReaderSvc
	TransferWriterSvc
}
