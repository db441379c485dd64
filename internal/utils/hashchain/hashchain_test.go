package hashchain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	"github.com/kitewire/treasury_backend/internal/utils/hashchain"
)

func makeEntry(prevHash []byte, postedAt time.Time) (domain.JournalEntry, []domain.JournalLine) {
	entryID := uuid.New()
	entry := domain.JournalEntry{
		EntryID:       entryID,
		Market:        "KE",
		Org:           "org-1",
		CorrelationID: "corr-1",
		ReferenceType: "transfer",
		ReferenceID:   uuid.New(),
		Status:        domain.JournalPosted,
		PostedAt:      postedAt,
		PrevHash:      prevHash,
	}
	lines := []domain.JournalLine{
		{
			LineID:    uuid.New(),
			EntryID:   entryID,
			AccountID: uuid.New(),
			Currency:  "KES",
			Direction: domain.Debit,
			LineType:  domain.LinePrincipal,
			Amount:    decimal.RequireFromString("123.45"),
			Memo:      "principal",
		},
		{
			LineID:    uuid.New(),
			EntryID:   entryID,
			AccountID: uuid.New(),
			Currency:  "KES",
			Direction: domain.Credit,
			LineType:  domain.LinePrincipal,
			Amount:    decimal.RequireFromString("123.45"),
			Memo:      "principal",
		},
	}
	entry.EntryHash = hashchain.JournalEntryHash(prevHash, entry, lines)
	return entry, lines
}

func TestJournalEntryHashDeterministicUnderLineReorder(t *testing.T) {
	entry, lines := makeEntry(nil, time.Now())

	reversed := []domain.JournalLine{lines[1], lines[0]}
	assert.Equal(t,
		hashchain.JournalEntryHash(nil, entry, lines),
		hashchain.JournalEntryHash(nil, entry, reversed),
	)
}

func TestJournalEntryHashChangesWithContent(t *testing.T) {
	entry, lines := makeEntry(nil, time.Now())
	base := hashchain.JournalEntryHash(nil, entry, lines)

	tampered := make([]domain.JournalLine, len(lines))
	copy(tampered, lines)
	tampered[0].Amount = decimal.RequireFromString("123.46")
	assert.NotEqual(t, base, hashchain.JournalEntryHash(nil, entry, tampered))

	otherPrev := hashchain.JournalEntryHash(nil, entry, lines)
	assert.NotEqual(t, base, hashchain.JournalEntryHash(otherPrev, entry, lines))
}

func TestVerifyJournalChain(t *testing.T) {
	now := time.Now()

	first, firstLines := makeEntry(nil, now)
	second, secondLines := makeEntry(first.EntryHash, now.Add(time.Second))
	third, thirdLines := makeEntry(second.EntryHash, now.Add(2*time.Second))

	chain := []hashchain.PostedEntry{
		{Entry: first, Lines: firstLines},
		{Entry: second, Lines: secondLines},
		{Entry: third, Lines: thirdLines},
	}

	verified, err := hashchain.VerifyJournalChain(chain)
	require.NoError(t, err)
	assert.Equal(t, 3, verified)
}

func TestVerifyJournalChainDetectsTamperedLine(t *testing.T) {
	now := time.Now()

	first, firstLines := makeEntry(nil, now)
	second, secondLines := makeEntry(first.EntryHash, now.Add(time.Second))

	secondLines[0].Amount = decimal.RequireFromString("999.99")

	position, err := hashchain.VerifyJournalChain([]hashchain.PostedEntry{
		{Entry: first, Lines: firstLines},
		{Entry: second, Lines: secondLines},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvariantViolation))
	assert.Equal(t, 1, position)
}

func TestVerifyJournalChainDetectsBrokenLinkage(t *testing.T) {
	now := time.Now()

	first, firstLines := makeEntry(nil, now)
	// Second entry claims a different parent than the actual chain head.
	orphan, orphanLines := makeEntry([]byte("not-the-head"), now.Add(time.Second))

	position, err := hashchain.VerifyJournalChain([]hashchain.PostedEntry{
		{Entry: first, Lines: firstLines},
		{Entry: orphan, Lines: orphanLines},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvariantViolation))
	assert.Equal(t, 1, position)
}

func TestVerifyLedgerChain(t *testing.T) {
	now := time.Now()
	accountID := uuid.New()

	var entries []domain.LedgerEntry
	var prev []byte
	for i := 0; i < 3; i++ {
		entry := domain.LedgerEntry{
			EntryID:     uuid.New(),
			Market:      "KE",
			Org:         "org-1",
			LegalEntity: "le-1",
			AccountID:   accountID,
			TransferID:  uuid.New(),
			Direction:   domain.Debit,
			Currency:    "KES",
			AmountMinor: int64(1000 * (i + 1)),
			OccurredAt:  now.Add(time.Duration(i) * time.Second),
			PrevHash:    prev,
		}
		entry.EntryHash = hashchain.LedgerEntryHash(prev, entry)
		prev = entry.EntryHash
		entries = append(entries, entry)
	}

	verified, err := hashchain.VerifyLedgerChain(entries)
	require.NoError(t, err)
	assert.Equal(t, 3, verified)

	entries[1].AmountMinor = 1
	_, err = hashchain.VerifyLedgerChain(entries)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvariantViolation))
}
