package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	"github.com/kitewire/treasury_backend/internal/repositories/database/memory"
)

func newOutboxRecord(dedupeKey string, createdAt time.Time) domain.OutboxRecord {
	return domain.OutboxRecord{
		OutboxID:      uuid.New(),
		Market:        "KE",
		Org:           "org-1",
		AggregateType: "Transfer",
		AggregateID:   uuid.New(),
		EventType:     "TransferCreated",
		PayloadJSON:   `{"transfer_id":"x"}`,
		DedupeKey:     dedupeKey,
		CreatedAt:     createdAt,
	}
}

func TestOutboxFIFOAndMarkPublished(t *testing.T) {
	provider := memory.NewStores().Provider()
	ctx := context.Background()
	now := time.Now()

	first := newOutboxRecord("k-1", now)
	second := newOutboxRecord("k-2", now.Add(time.Second))
	require.NoError(t, provider.Outbox.Add(ctx, first))
	require.NoError(t, provider.Outbox.Add(ctx, second))

	next, err := provider.Outbox.NextUnpublished(ctx, "KE", "org-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "k-1", next.DedupeKey)

	require.NoError(t, provider.Outbox.MarkPublished(ctx, first.OutboxID, now))
	// Marking again is a no-op, not an error.
	require.NoError(t, provider.Outbox.MarkPublished(ctx, first.OutboxID, now.Add(time.Minute)))

	next, err = provider.Outbox.NextUnpublished(ctx, "KE", "org-1")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "k-2", next.DedupeKey)

	require.NoError(t, provider.Outbox.MarkPublished(ctx, second.OutboxID, now))
	next, err = provider.Outbox.NextUnpublished(ctx, "KE", "org-1")
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestOutboxDedupeKeyUniquePerScope(t *testing.T) {
	provider := memory.NewStores().Provider()
	ctx := context.Background()

	require.NoError(t, provider.Outbox.Add(ctx, newOutboxRecord("k-1", time.Now())))
	err := provider.Outbox.Add(ctx, newOutboxRecord("k-1", time.Now()))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))

	other := newOutboxRecord("k-1", time.Now())
	other.Org = "org-2"
	require.NoError(t, provider.Outbox.Add(ctx, other))
}

func TestScopesWithUnpublished(t *testing.T) {
	provider := memory.NewStores().Provider()
	ctx := context.Background()

	scopes, err := provider.Outbox.ScopesWithUnpublished(ctx)
	require.NoError(t, err)
	assert.Empty(t, scopes)

	record := newOutboxRecord("k-1", time.Now())
	require.NoError(t, provider.Outbox.Add(ctx, record))
	other := newOutboxRecord("k-2", time.Now())
	other.Org = "org-2"
	require.NoError(t, provider.Outbox.Add(ctx, other))

	scopes, err = provider.Outbox.ScopesWithUnpublished(ctx)
	require.NoError(t, err)
	assert.Len(t, scopes, 2)

	require.NoError(t, provider.Outbox.MarkPublished(ctx, record.OutboxID, time.Now()))
	scopes, err = provider.Outbox.ScopesWithUnpublished(ctx)
	require.NoError(t, err)
	require.Len(t, scopes, 1)
	assert.Equal(t, domain.OrgID("org-2"), scopes[0].Org)
}

func TestWithTxRollsBackAllStores(t *testing.T) {
	stores := memory.NewStores()
	provider := stores.Provider()
	ctx := context.Background()

	accountID := uuid.New()
	stores.PutAccount(domain.Account{
		AccountID:   accountID,
		Market:      "KE",
		Org:         "org-1",
		LegalEntity: "le-1",
		Currency:    "KES",
		Status:      domain.AccountActive,
	})
	stores.PutBalance(domain.AccountBalance{
		AccountID:      accountID,
		Market:         "KE",
		Org:            "org-1",
		LegalEntity:    "le-1",
		Currency:       "KES",
		AvailableMinor: 1000,
	})

	boom := errors.New("boom")
	err := provider.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := provider.Balances.Reserve(ctx, "KE", "org-1", accountID, 400, "KES"); err != nil {
			return err
		}
		if err := provider.Outbox.Add(ctx, newOutboxRecord("k-1", time.Now())); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	balance, err := provider.Balances.FindByAccountID(ctx, "KE", "org-1", accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), balance.AvailableMinor)
	assert.Equal(t, int64(0), balance.ReservedMinor)

	record, err := provider.Outbox.NextUnpublished(ctx, "KE", "org-1")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestWithTxNestedJoinsOuter(t *testing.T) {
	stores := memory.NewStores()
	provider := stores.Provider()
	ctx := context.Background()

	err := provider.Tx.WithTx(ctx, func(ctx context.Context) error {
		return provider.Tx.WithTx(ctx, func(ctx context.Context) error {
			return provider.Outbox.Add(ctx, newOutboxRecord("k-1", time.Now()))
		})
	})
	require.NoError(t, err)

	record, err := provider.Outbox.NextUnpublished(ctx, "KE", "org-1")
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func TestBalanceReserveLazilyCreatesRow(t *testing.T) {
	stores := memory.NewStores()
	provider := stores.Provider()
	ctx := context.Background()

	accountID := uuid.New()
	stores.PutAccount(domain.Account{
		AccountID:      accountID,
		Market:         "KE",
		Org:            "org-1",
		LegalEntity:    "le-1",
		Currency:       "KES",
		Status:         domain.AccountActive,
		AllowOverdraft: true,
	})

	require.NoError(t, provider.Balances.Reserve(ctx, "KE", "org-1", accountID, 250, "KES"))

	balance, err := provider.Balances.FindByAccountID(ctx, "KE", "org-1", accountID)
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.Equal(t, domain.LegalEntityID("le-1"), balance.LegalEntity)
	assert.Equal(t, int64(-250), balance.AvailableMinor)
	assert.Equal(t, int64(250), balance.ReservedMinor)
}

func TestBalanceReleaseUnderflowIsInvariantViolation(t *testing.T) {
	stores := memory.NewStores()
	provider := stores.Provider()
	ctx := context.Background()

	accountID := uuid.New()
	stores.PutAccount(domain.Account{
		AccountID: accountID, Market: "KE", Org: "org-1",
		LegalEntity: "le-1", Currency: "KES", Status: domain.AccountActive,
	})
	stores.PutBalance(domain.AccountBalance{
		AccountID: accountID, Market: "KE", Org: "org-1",
		LegalEntity: "le-1", Currency: "KES",
		ReservedMinor: 100,
	})

	err := provider.Balances.ReleaseReservation(ctx, "KE", "org-1", accountID, 200, "KES")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvariantViolation))
}

func TestTransferUpdateVersionConflict(t *testing.T) {
	stores := memory.NewStores()
	provider := stores.Provider()
	ctx := context.Background()

	money, err := domain.NewMoney(100, "KES")
	require.NoError(t, err)
	transfer, err := domain.NewPendingTransfer("KE", "org-1", "le-1", uuid.New(), uuid.New(),
		money, "maker", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, provider.Transfers.Save(ctx, transfer))

	stale := *transfer
	stale.Version = transfer.Version - 1

	err = provider.Transfers.Update(ctx, &stale)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
}

func TestIdempotencyInsertIfAbsent(t *testing.T) {
	provider := memory.NewStores().Provider()
	ctx := context.Background()

	record := domain.IdempotencyRecord{
		Market:         "KE",
		Org:            "org-1",
		IdempotencyKey: "key-1",
		RequestHash:    "h1",
		ResponseStatus: 201,
		ResponseBody:   []byte(`{}`),
		CreatedAt:      time.Now(),
	}

	inserted, err := provider.Idempotency.InsertIfAbsent(ctx, record)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = provider.Idempotency.InsertIfAbsent(ctx, record)
	require.NoError(t, err)
	assert.False(t, inserted)

	found, err := provider.Idempotency.Find(ctx, "KE", "org-1", "key-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "h1", found.RequestHash)
}
