package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
)

func newTestTransfer(t *testing.T) *domain.Transfer {
	t.Helper()
	money, err := domain.NewMoney(12345, "KES")
	require.NoError(t, err)

	transfer, err := domain.NewPendingTransfer(
		domain.MarketID("KE"),
		domain.OrgID("org-1"),
		domain.LegalEntityID("le-1"),
		uuid.New(),
		uuid.New(),
		money,
		"maker@example.com",
		"supplier payout",
		time.Now(),
	)
	require.NoError(t, err)
	return transfer
}

func TestNewPendingTransfer(t *testing.T) {
	transfer := newTestTransfer(t)

	assert.Equal(t, domain.TransferPendingApproval, transfer.Status)
	assert.Equal(t, domain.TransferInternal, transfer.Type)
	assert.Equal(t, "maker@example.com", transfer.CreatedBySubject)
	assert.NotEqual(t, uuid.Nil, transfer.TransferID)
	assert.False(t, transfer.IsTerminal())
}

func TestNewPendingTransfer_Validation(t *testing.T) {
	money, err := domain.NewMoney(100, "KES")
	require.NoError(t, err)
	accountID := uuid.New()
	now := time.Now()

	_, err = domain.NewPendingTransfer("KE", "org-1", "le-1", uuid.Nil, uuid.New(), money, "maker", "", now)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = domain.NewPendingTransfer("KE", "org-1", "le-1", uuid.New(), uuid.Nil, money, "maker", "", now)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = domain.NewPendingTransfer("KE", "org-1", "le-1", accountID, accountID, money, "maker", "", now)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))

	_, err = domain.NewPendingTransfer("KE", "org-1", "le-1", uuid.New(), uuid.New(), money, "  ", "", now)
	assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
}

func TestTransferHappyPath(t *testing.T) {
	transfer := newTestTransfer(t)
	now := time.Now()

	require.NoError(t, transfer.Approve("checker@example.com", now))
	assert.Equal(t, domain.TransferQueued, transfer.Status)
	assert.Equal(t, "checker@example.com", transfer.ApprovedBySubject)

	require.NoError(t, transfer.StartProcessing(now))
	assert.Equal(t, domain.TransferProcessing, transfer.Status)

	require.NoError(t, transfer.Complete(now))
	assert.Equal(t, domain.TransferCompleted, transfer.Status)
	assert.True(t, transfer.IsTerminal())
}

func TestTransferCancel(t *testing.T) {
	now := time.Now()

	pending := newTestTransfer(t)
	require.NoError(t, pending.Cancel("ops@example.com", "duplicate submission", now))
	assert.Equal(t, domain.TransferCanceled, pending.Status)
	assert.Equal(t, "ops@example.com", pending.CanceledBySubject)
	assert.Equal(t, "duplicate submission", pending.Reason)

	queued := newTestTransfer(t)
	require.NoError(t, queued.Approve("checker", now))
	require.NoError(t, queued.Cancel("ops", "late cancel", now))
	assert.Equal(t, domain.TransferCanceled, queued.Status)
}

func TestTransferFail(t *testing.T) {
	now := time.Now()

	transfer := newTestTransfer(t)
	require.NoError(t, transfer.Approve("checker", now))
	require.NoError(t, transfer.Fail("downstream timeout", now))
	assert.Equal(t, domain.TransferFailed, transfer.Status)
	assert.Equal(t, "downstream timeout", transfer.FailedReason)
	assert.True(t, transfer.IsTerminal())
}

func TestTransferIllegalTransitions(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name    string
		prepare func(tr *domain.Transfer)
		attempt func(tr *domain.Transfer) error
	}{
		{
			name:    "approve twice",
			prepare: func(tr *domain.Transfer) { _ = tr.Approve("a", now) },
			attempt: func(tr *domain.Transfer) error { return tr.Approve("b", now) },
		},
		{
			name:    "process before approval",
			prepare: func(tr *domain.Transfer) {},
			attempt: func(tr *domain.Transfer) error { return tr.StartProcessing(now) },
		},
		{
			name:    "complete before processing",
			prepare: func(tr *domain.Transfer) { _ = tr.Approve("a", now) },
			attempt: func(tr *domain.Transfer) error { return tr.Complete(now) },
		},
		{
			name:    "fail from pending approval",
			prepare: func(tr *domain.Transfer) {},
			attempt: func(tr *domain.Transfer) error { return tr.Fail("x", now) },
		},
		{
			name: "cancel after completion",
			prepare: func(tr *domain.Transfer) {
				_ = tr.Approve("a", now)
				_ = tr.StartProcessing(now)
				_ = tr.Complete(now)
			},
			attempt: func(tr *domain.Transfer) error { return tr.Cancel("b", "too late", now) },
		},
		{
			name: "approve after cancel",
			prepare: func(tr *domain.Transfer) {
				_ = tr.Cancel("a", "changed mind", now)
			},
			attempt: func(tr *domain.Transfer) error { return tr.Approve("b", now) },
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			transfer := newTestTransfer(t)
			tc.prepare(transfer)
			err := tc.attempt(transfer)
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindConflict))
			details := apperrors.DetailsOf(err)
			assert.Equal(t, transfer.TransferID.String(), details["transfer_id"])
		})
	}
}
