package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
	portssvc "github.com/kitewire/treasury_backend/internal/core/ports/services"
	"github.com/kitewire/treasury_backend/internal/core/services"
	"github.com/kitewire/treasury_backend/internal/repositories/database/memory"
	"github.com/kitewire/treasury_backend/internal/utils/hashchain"
)

type TransferServiceTestSuite struct {
	suite.Suite
	stores   *memory.Stores
	provider portsrepo.StoreProvider
	service  portssvc.TransferSvcFacade
	scope    domain.RequestScope

	sourceID uuid.UUID
	destID   uuid.UUID
}

func (s *TransferServiceTestSuite) SetupTest() {
	s.stores = memory.NewStores()
	s.provider = s.stores.Provider()
	s.service = services.NewTransferService(s.provider)

	scope, err := domain.NewRequestScope("KE", "org-1", nil, "maker@example.com")
	s.Require().NoError(err)
	s.scope = scope

	s.sourceID = uuid.New()
	s.destID = uuid.New()

	for _, accountID := range []uuid.UUID{s.sourceID, s.destID} {
		s.stores.PutAccount(domain.Account{
			AccountID:   accountID,
			Market:      "KE",
			Org:         "org-1",
			LegalEntity: "le-1",
			Currency:    "KES",
			Status:      domain.AccountActive,
			CreatedAt:   time.Now(),
		})
	}
	s.stores.PutBalance(domain.AccountBalance{
		AccountID:      s.sourceID,
		Market:         "KE",
		Org:            "org-1",
		LegalEntity:    "le-1",
		Currency:       "KES",
		AvailableMinor: 1_000_000,
		LedgerMinor:    1_000_000,
		Version:        1,
		UpdatedAt:      time.Now(),
	})
}

func (s *TransferServiceTestSuite) newDraft(amountMinor int64) *domain.Transfer {
	money, err := domain.NewMoney(amountMinor, "KES")
	s.Require().NoError(err)
	draft, err := domain.NewPendingTransfer("KE", "org-1", "le-1", s.sourceID, s.destID,
		money, s.scope.Subject, "supplier payout", time.Now())
	s.Require().NoError(err)
	return draft
}

func (s *TransferServiceTestSuite) mustBalance(accountID uuid.UUID) *domain.AccountBalance {
	balance, err := s.provider.Balances.FindByAccountID(context.Background(), "KE", "org-1", accountID)
	s.Require().NoError(err)
	s.Require().NotNil(balance)
	return balance
}

func (s *TransferServiceTestSuite) TestCreateTransfer_ReservesFunds() {
	created, err := s.service.CreateTransfer(context.Background(), s.scope, s.newDraft(12_345), "corr-1")
	s.Require().NoError(err)

	s.Equal(domain.TransferPendingApproval, created.Status)

	balance := s.mustBalance(s.sourceID)
	s.Equal(int64(987_655), balance.AvailableMinor)
	s.Equal(int64(12_345), balance.ReservedMinor)
	s.Equal(int64(1_000_000), balance.LedgerMinor)

	record, err := s.provider.Outbox.NextUnpublished(context.Background(), "KE", "org-1")
	s.Require().NoError(err)
	s.Require().NotNil(record)
	s.Equal("TransferCreated", record.EventType)
	s.Equal("transfer-created:"+created.TransferID.String(), record.DedupeKey)

	events := s.stores.AuditEvents()
	s.Require().Len(events, 1)
	s.Equal("transfer.create", events[0].Action)
	s.Equal("corr-1", events[0].CorrelationID)
}

func (s *TransferServiceTestSuite) TestCreateTransfer_InsufficientFunds() {
	draft := s.newDraft(2_000_000)
	_, err := s.service.CreateTransfer(context.Background(), s.scope, draft, "corr-1")
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindConflict))

	// The whole unit of work rolled back: no transfer, no reservation, no
	// outbox record.
	_, err = s.service.GetTransfer(context.Background(), s.scope, draft.TransferID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))

	balance := s.mustBalance(s.sourceID)
	s.Equal(int64(1_000_000), balance.AvailableMinor)
	s.Equal(int64(0), balance.ReservedMinor)

	record, err := s.provider.Outbox.NextUnpublished(context.Background(), "KE", "org-1")
	s.Require().NoError(err)
	s.Nil(record)
}

func (s *TransferServiceTestSuite) TestCreateTransfer_CurrencyMismatch() {
	s.stores.PutAccount(domain.Account{
		AccountID:   s.destID,
		Market:      "KE",
		Org:         "org-1",
		LegalEntity: "le-1",
		Currency:    "USD",
		Status:      domain.AccountActive,
	})

	draft := s.newDraft(12_345)
	_, err := s.service.CreateTransfer(context.Background(), s.scope, draft, "corr-1")
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindConflict))

	_, err = s.service.GetTransfer(context.Background(), s.scope, draft.TransferID)
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *TransferServiceTestSuite) TestCreateTransfer_FrozenSource() {
	s.stores.PutAccount(domain.Account{
		AccountID:   s.sourceID,
		Market:      "KE",
		Org:         "org-1",
		LegalEntity: "le-1",
		Currency:    "KES",
		Status:      domain.AccountFrozen,
	})

	_, err := s.service.CreateTransfer(context.Background(), s.scope, s.newDraft(100), "corr-1")
	s.True(apperrors.IsKind(err, apperrors.KindConflict))
}

func (s *TransferServiceTestSuite) TestCreateTransfer_UnknownAccount() {
	draft := s.newDraft(100)
	draft.DestinationAccountID = uuid.New()

	_, err := s.service.CreateTransfer(context.Background(), s.scope, draft, "corr-1")
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *TransferServiceTestSuite) TestCreateTransfer_LegalEntityNotAllowed() {
	restricted, err := domain.NewRequestScope("KE", "org-1", []domain.LegalEntityID{"le-other"}, "maker@example.com")
	s.Require().NoError(err)

	_, err = s.service.CreateTransfer(context.Background(), restricted, s.newDraft(100), "corr-1")
	s.True(apperrors.IsKind(err, apperrors.KindConflict))
}

func (s *TransferServiceTestSuite) TestApproveTransfer_SettlesAndPostsJournal() {
	created, err := s.service.CreateTransfer(context.Background(), s.scope, s.newDraft(12_345), "corr-1")
	s.Require().NoError(err)

	approved, err := s.service.ApproveTransfer(context.Background(), s.scope, created.TransferID, "corr-2")
	s.Require().NoError(err)
	s.Equal(domain.TransferCompleted, approved.Status)
	s.Equal(s.scope.Subject, approved.ApprovedBySubject)

	sourceBal := s.mustBalance(s.sourceID)
	s.Equal(int64(987_655), sourceBal.AvailableMinor)
	s.Equal(int64(0), sourceBal.ReservedMinor)
	s.Equal(int64(987_655), sourceBal.LedgerMinor)

	destBal := s.mustBalance(s.destID)
	s.Equal(int64(12_345), destBal.AvailableMinor)
	s.Equal(int64(12_345), destBal.LedgerMinor)
	s.Equal(int64(0), destBal.ReservedMinor)

	entries, _, err := s.provider.Journal.ListEntries(context.Background(), "KE", "org-1", 10, nil)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("transfer", entries[0].ReferenceType)
	s.Equal(created.TransferID, entries[0].ReferenceID)

	lines, err := s.provider.Journal.LinesByEntry(context.Background(), "KE", "org-1", entries[0].EntryID)
	s.Require().NoError(err)
	s.Require().Len(lines, 2)
	for _, line := range lines {
		s.Equal("123.45", line.Amount.StringFixed(2))
		s.Equal(domain.LinePrincipal, line.LineType)
	}

	verified, err := hashchain.VerifyJournalChain([]hashchain.PostedEntry{{Entry: entries[0], Lines: lines}})
	s.Require().NoError(err)
	s.Equal(1, verified)

	for _, accountID := range []uuid.UUID{s.sourceID, s.destID} {
		ledgerEntries, err := s.provider.Ledger.ListByAccount(context.Background(), "KE", "org-1", accountID)
		s.Require().NoError(err)
		s.Require().Len(ledgerEntries, 1)
		s.Equal(int64(12_345), ledgerEntries[0].AmountMinor)

		_, err = hashchain.VerifyLedgerChain(ledgerEntries)
		s.Require().NoError(err)
	}
}

func (s *TransferServiceTestSuite) TestApproveTransfer_EmitsLifecycleEvents() {
	created, err := s.service.CreateTransfer(context.Background(), s.scope, s.newDraft(500), "corr-1")
	s.Require().NoError(err)
	_, err = s.service.ApproveTransfer(context.Background(), s.scope, created.TransferID, "corr-2")
	s.Require().NoError(err)

	var eventTypes []string
	for {
		record, err := s.provider.Outbox.NextUnpublished(context.Background(), "KE", "org-1")
		s.Require().NoError(err)
		if record == nil {
			break
		}
		eventTypes = append(eventTypes, record.EventType)
		s.Require().NoError(s.provider.Outbox.MarkPublished(context.Background(), record.OutboxID, time.Now()))
	}
	s.Equal([]string{"TransferCreated", "TransferQueued", "TransferProcessing", "TransferCompleted"}, eventTypes)
}

func (s *TransferServiceTestSuite) TestApproveTransfer_FourEyes() {
	created, err := s.service.CreateTransfer(context.Background(), s.scope, s.newDraft(1_000_000), "corr-1")
	s.Require().NoError(err)

	// The creator cannot approve at or above the threshold.
	_, err = s.service.ApproveTransfer(context.Background(), s.scope, created.TransferID, "corr-2")
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindConflict))

	current, err := s.service.GetTransfer(context.Background(), s.scope, created.TransferID)
	s.Require().NoError(err)
	s.Equal(domain.TransferPendingApproval, current.Status)

	checker, err := domain.NewRequestScope("KE", "org-1", nil, "checker@example.com")
	s.Require().NoError(err)
	approved, err := s.service.ApproveTransfer(context.Background(), checker, created.TransferID, "corr-3")
	s.Require().NoError(err)
	s.Equal(domain.TransferCompleted, approved.Status)
	s.Equal("checker@example.com", approved.ApprovedBySubject)
}

func (s *TransferServiceTestSuite) TestApproveTransfer_NotFound() {
	_, err := s.service.ApproveTransfer(context.Background(), s.scope, uuid.New(), "corr-1")
	s.True(apperrors.IsKind(err, apperrors.KindNotFound))
}

func (s *TransferServiceTestSuite) TestCancelTransfer_ReleasesReservation() {
	created, err := s.service.CreateTransfer(context.Background(), s.scope, s.newDraft(12_345), "corr-1")
	s.Require().NoError(err)

	canceled, err := s.service.CancelTransfer(context.Background(), s.scope, created.TransferID, "fat finger", "corr-2")
	s.Require().NoError(err)
	s.Equal(domain.TransferCanceled, canceled.Status)
	s.Equal("fat finger", canceled.Reason)

	balance := s.mustBalance(s.sourceID)
	s.Equal(int64(1_000_000), balance.AvailableMinor)
	s.Equal(int64(0), balance.ReservedMinor)
}

func (s *TransferServiceTestSuite) TestCancelTransfer_AfterCompletionConflicts() {
	created, err := s.service.CreateTransfer(context.Background(), s.scope, s.newDraft(12_345), "corr-1")
	s.Require().NoError(err)
	_, err = s.service.ApproveTransfer(context.Background(), s.scope, created.TransferID, "corr-2")
	s.Require().NoError(err)

	_, err = s.service.CancelTransfer(context.Background(), s.scope, created.TransferID, "too late", "corr-3")
	s.Require().Error(err)
	s.True(apperrors.IsKind(err, apperrors.KindConflict))

	// Settlement stands.
	destBal := s.mustBalance(s.destID)
	s.Equal(int64(12_345), destBal.AvailableMinor)
}

func (s *TransferServiceTestSuite) TestJournalChainLinksAcrossTransfers() {
	for i := 0; i < 3; i++ {
		created, err := s.service.CreateTransfer(context.Background(), s.scope, s.newDraft(100), "corr")
		s.Require().NoError(err)
		_, err = s.service.ApproveTransfer(context.Background(), s.scope, created.TransferID, "corr")
		s.Require().NoError(err)
	}

	entries, _, err := s.provider.Journal.ListEntries(context.Background(), "KE", "org-1", 10, nil)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)

	chain := make([]hashchain.PostedEntry, 0, len(entries))
	for _, entry := range entries {
		lines, err := s.provider.Journal.LinesByEntry(context.Background(), "KE", "org-1", entry.EntryID)
		s.Require().NoError(err)
		chain = append(chain, hashchain.PostedEntry{Entry: entry, Lines: lines})
	}

	verified, err := hashchain.VerifyJournalChain(chain)
	s.Require().NoError(err)
	s.Equal(3, verified)
}

func TestTransferServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransferServiceTestSuite))
}

func TestEnsureNoCrossTenantReads(t *testing.T) {
	stores := memory.NewStores()
	provider := stores.Provider()

	accountID := uuid.New()
	stores.PutAccount(domain.Account{
		AccountID:   accountID,
		Market:      "KE",
		Org:         "org-1",
		LegalEntity: "le-1",
		Currency:    "KES",
		Status:      domain.AccountActive,
	})

	account, err := provider.Accounts.FindByID(context.Background(), "NG", "org-1", accountID)
	require.NoError(t, err)
	assert.Nil(t, account)

	account, err = provider.Accounts.FindByID(context.Background(), "KE", "org-2", accountID)
	require.NoError(t, err)
	assert.Nil(t, account)
}
