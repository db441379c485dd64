package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
	portssvc "github.com/kitewire/treasury_backend/internal/core/ports/services"
)

// maxListLimit caps page sizes on the query surface.
const maxListLimit = 100

// ledgerService is the read-only query surface over balances, the journal
// chain and the per-account ledger chains.
type ledgerService struct {
	balances portsrepo.BalanceStore
	journal  portsrepo.JournalStore
	ledger   portsrepo.LedgerStore
}

// NewLedgerService creates the ledger query service.
func NewLedgerService(balances portsrepo.BalanceStore, journal portsrepo.JournalStore, ledger portsrepo.LedgerStore) portssvc.LedgerSvcFacade {
	return &ledgerService{balances: balances, journal: journal, ledger: ledger}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

func (s *ledgerService) GetBalance(ctx context.Context, scope domain.RequestScope, accountID uuid.UUID) (*domain.AccountBalance, error) {
	balance, err := s.balances.FindByAccountID(ctx, scope.Market, scope.Org, accountID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, apperrors.NewNotFound("balance not found", map[string]any{"account_id": accountID.String()})
	}
	if err := ensureLegalEntityAllowed(scope, balance.LegalEntity); err != nil {
		return nil, err
	}
	return balance, nil
}

func (s *ledgerService) ListJournalEntries(ctx context.Context, scope domain.RequestScope, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return s.journal.ListEntries(ctx, scope.Market, scope.Org, limit, nextToken)
}

func (s *ledgerService) GetJournalLines(ctx context.Context, scope domain.RequestScope, entryID uuid.UUID) ([]domain.JournalLine, error) {
	lines, err := s.journal.LinesByEntry(ctx, scope.Market, scope.Org, entryID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, apperrors.NewNotFound("journal entry not found", map[string]any{"entry_id": entryID.String()})
	}
	return lines, nil
}

func (s *ledgerService) ListLedgerEntries(ctx context.Context, scope domain.RequestScope, accountID uuid.UUID) ([]domain.LedgerEntry, error) {
	entries, err := s.ledger.ListByAccount(ctx, scope.Market, scope.Org, accountID)
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 {
		if err := ensureLegalEntityAllowed(scope, entries[0].LegalEntity); err != nil {
			return nil, err
		}
	}
	return entries, nil
}
