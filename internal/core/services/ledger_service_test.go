package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
	portssvc "github.com/kitewire/treasury_backend/internal/core/ports/services"
	"github.com/kitewire/treasury_backend/internal/core/services"
	"github.com/kitewire/treasury_backend/internal/repositories/database/memory"
	"github.com/kitewire/treasury_backend/internal/utils/hashchain"
)

type LedgerServiceTestSuite struct {
	suite.Suite
	stores   *memory.Stores
	provider portsrepo.StoreProvider
	service  portssvc.LedgerSvcFacade
	scope    domain.RequestScope
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.stores = memory.NewStores()
	s.provider = s.stores.Provider()
	s.service = services.NewLedgerService(s.provider.Balances, s.provider.Journal, s.provider.Ledger)

	scope, err := domain.NewRequestScope("KE", "org-1", nil, "reader@example.com")
	s.Require().NoError(err)
	s.scope = scope
}

// postEntry writes one chained journal entry with two lines for the given
// scope directly to the store.
func (s *LedgerServiceTestSuite) postEntry(market domain.MarketID, org domain.OrgID) domain.JournalEntry {
	entryID := uuid.New()
	entry := domain.JournalEntry{
		EntryID:       entryID,
		Market:        market,
		Org:           org,
		ReferenceType: "transfer",
		ReferenceID:   uuid.New(),
		Status:        domain.JournalPosted,
		PostedAt:      time.Now(),
	}
	lines := []domain.JournalLine{
		{
			LineID: uuid.New(), EntryID: entryID, AccountID: uuid.New(),
			Currency: "KES", Direction: domain.Debit, LineType: domain.LinePrincipal,
			Amount: decimal.RequireFromString("10.00"),
		},
		{
			LineID: uuid.New(), EntryID: entryID, AccountID: uuid.New(),
			Currency: "KES", Direction: domain.Credit, LineType: domain.LinePrincipal,
			Amount: decimal.RequireFromString("10.00"),
		},
	}
	entry.EntryHash = hashchain.JournalEntryHash(nil, entry, lines)
	s.Require().NoError(s.provider.Journal.AppendPosted(context.Background(), entry, lines))
	return entry
}

// putLedgerEntry writes one ledger chain entry for an account of the given
// legal entity.
func (s *LedgerServiceTestSuite) putLedgerEntry(accountID uuid.UUID, legalEntity domain.LegalEntityID) {
	entry := domain.LedgerEntry{
		EntryID:     uuid.New(),
		Market:      "KE",
		Org:         "org-1",
		LegalEntity: legalEntity,
		AccountID:   accountID,
		TransferID:  uuid.New(),
		Direction:   domain.Credit,
		Currency:    "KES",
		AmountMinor: 12_345,
		OccurredAt:  time.Now(),
	}
	entry.EntryHash = hashchain.LedgerEntryHash(nil, entry)
	s.Require().NoError(s.provider.Ledger.AppendEntries(context.Background(), []domain.LedgerEntry{entry}))
}

func (s *LedgerServiceTestSuite) TestGetJournalLines_WithinScope() {
	entry := s.postEntry("KE", "org-1")

	lines, err := s.service.GetJournalLines(context.Background(), s.scope, entry.EntryID)
	s.Require().NoError(err)
	s.Len(lines, 2)
}

func (s *LedgerServiceTestSuite) TestGetJournalLines_ForeignScopeSeesNothing() {
	entry := s.postEntry("KE", "org-1")

	foreign, err := domain.NewRequestScope("NG", "org-other", nil, "reader@example.com")
	s.Require().NoError(err)

	lines, err := s.service.GetJournalLines(context.Background(), foreign, entry.EntryID)
	s.Nil(lines)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *LedgerServiceTestSuite) TestGetJournalLines_SameMarketOtherOrg() {
	entry := s.postEntry("KE", "org-1")

	other, err := domain.NewRequestScope("KE", "org-2", nil, "reader@example.com")
	s.Require().NoError(err)

	_, err = s.service.GetJournalLines(context.Background(), other, entry.EntryID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *LedgerServiceTestSuite) TestGetJournalLines_UnknownEntry() {
	_, err := s.service.GetJournalLines(context.Background(), s.scope, uuid.New())
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *LedgerServiceTestSuite) TestListLedgerEntries_LegalEntityGuard() {
	accountID := uuid.New()
	s.putLedgerEntry(accountID, "le-2")

	restricted, err := domain.NewRequestScope("KE", "org-1",
		[]domain.LegalEntityID{"le-1"}, "reader@example.com")
	s.Require().NoError(err)

	_, err = s.service.ListLedgerEntries(context.Background(), restricted, accountID)
	s.True(apperrors.IsKind(err, apperrors.KindConflict))

	entries, err := s.service.ListLedgerEntries(context.Background(), s.scope, accountID)
	s.Require().NoError(err)
	s.Len(entries, 1)
}

func (s *LedgerServiceTestSuite) TestListLedgerEntries_UntouchedAccountIsEmpty() {
	restricted, err := domain.NewRequestScope("KE", "org-1",
		[]domain.LegalEntityID{"le-1"}, "reader@example.com")
	s.Require().NoError(err)

	entries, err := s.service.ListLedgerEntries(context.Background(), restricted, uuid.New())
	s.Require().NoError(err)
	s.Empty(entries)
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
