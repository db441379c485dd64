package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// LedgerReaderSvc is the query surface over balances and the two chains.
type LedgerReaderSvc interface {
	// GetBalance returns the balance row of one account, or NOT_FOUND for
	// an account the treasury has never touched.
	GetBalance(ctx context.Context, scope domain.RequestScope, accountID uuid.UUID) (*domain.AccountBalance, error)

	// ListJournalEntries pages through the scope's journal chain in posting
	// order.
	ListJournalEntries(ctx context.Context, scope domain.RequestScope, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)

	// GetJournalLines returns the lines of one entry.
	GetJournalLines(ctx context.Context, scope domain.RequestScope, entryID uuid.UUID) ([]domain.JournalLine, error)

	// ListLedgerEntries returns one account's ledger chain in occurrence
	// order.
	ListLedgerEntries(ctx context.Context, scope domain.RequestScope, accountID uuid.UUID) ([]domain.LedgerEntry, error)
}

// LedgerSvcFacade combines the ledger query interfaces.
type LedgerSvcFacade interface {
	LedgerReaderSvc
}
