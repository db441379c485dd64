// Package hashchain computes and verifies the canonical SHA-256 hashes that
// link journal and ledger entries into tamper-evident chains. Hashing is
// deterministic: two processes with the same data reach the same hash
// independent of line insertion order.
package hashchain

import (
	"bytes"
	"crypto/sha256"
	"sort"
	"strconv"
	"time"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// AmountScale is the fixed scale line amounts are serialized at when hashed
// and stored.
const AmountScale = 6

// JournalEntryHash computes the chain hash of a journal entry from its
// stored fields. prevHash is nil for the first entry of a (market, org)
// scope. Lines are sorted canonically before hashing.
func JournalEntryHash(prevHash []byte, entry domain.JournalEntry, lines []domain.JournalLine) []byte {
	digest := sha256.New()
	if len(prevHash) > 0 {
		digest.Write(prevHash)
	}

	digest.Write([]byte(entry.Market.String()))
	digest.Write([]byte(entry.Org.String()))
	digest.Write([]byte(entry.CorrelationID))
	digest.Write([]byte(entry.ReferenceType))
	digest.Write([]byte(entry.ReferenceID.String()))
	digest.Write([]byte(entry.Status))
	digest.Write([]byte(entry.PostedAt.UTC().Format(time.RFC3339Nano)))

	sorted := make([]domain.JournalLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.AccountID != b.AccountID {
			return a.AccountID.String() < b.AccountID.String()
		}
		if a.Direction != b.Direction {
			return a.Direction < b.Direction
		}
		if a.LineType != b.LineType {
			return a.LineType < b.LineType
		}
		if a.Currency != b.Currency {
			return a.Currency < b.Currency
		}
		return a.Amount.StringFixed(AmountScale) < b.Amount.StringFixed(AmountScale)
	})

	for _, line := range sorted {
		digest.Write([]byte(line.AccountID.String()))
		digest.Write([]byte(line.Direction))
		digest.Write([]byte(line.LineType))
		digest.Write([]byte(line.Currency.String()))
		digest.Write([]byte(line.Amount.StringFixed(AmountScale)))
		if line.Memo != "" {
			digest.Write([]byte(line.Memo))
		}
	}
	return digest.Sum(nil)
}

// LedgerEntryHash computes the chain hash of a per-account ledger entry.
func LedgerEntryHash(prevHash []byte, entry domain.LedgerEntry) []byte {
	digest := sha256.New()
	if len(prevHash) > 0 {
		digest.Write(prevHash)
	}
	digest.Write([]byte(entry.Market.String()))
	digest.Write([]byte(entry.Org.String()))
	digest.Write([]byte(entry.LegalEntity.String()))
	digest.Write([]byte(entry.AccountID.String()))
	digest.Write([]byte(entry.TransferID.String()))
	digest.Write([]byte(entry.Direction))
	digest.Write([]byte(entry.Currency.String()))
	digest.Write([]byte(strconv.FormatInt(entry.AmountMinor, 10)))
	digest.Write([]byte(entry.OccurredAt.UTC().Format(time.RFC3339Nano)))
	return digest.Sum(nil)
}

// PostedEntry pairs a journal entry with its lines for verification.
type PostedEntry struct {
	Entry domain.JournalEntry
	Lines []domain.JournalLine
}

// VerifyJournalChain walks entries in postedAt order, recomputes each hash
// from stored fields and checks prevHash linkage. It returns the number of
// entries verified; a mismatch is an invariant violation naming the entry.
func VerifyJournalChain(entries []PostedEntry) (int, error) {
	var prev []byte
	for i, posted := range entries {
		if !bytes.Equal(posted.Entry.PrevHash, prev) && !(len(posted.Entry.PrevHash) == 0 && len(prev) == 0) {
			return i, apperrors.NewInvariantViolation("journal chain prev hash mismatch", map[string]any{
				"entry_id": posted.Entry.EntryID.String(),
				"position": i,
			})
		}
		recomputed := JournalEntryHash(posted.Entry.PrevHash, posted.Entry, posted.Lines)
		if !bytes.Equal(recomputed, posted.Entry.EntryHash) {
			return i, apperrors.NewInvariantViolation("journal entry hash mismatch", map[string]any{
				"entry_id": posted.Entry.EntryID.String(),
				"position": i,
			})
		}
		prev = posted.Entry.EntryHash
	}
	return len(entries), nil
}

// VerifyLedgerChain walks one account's ledger entries in occurredAt order
// and checks hashes and linkage.
func VerifyLedgerChain(entries []domain.LedgerEntry) (int, error) {
	var prev []byte
	for i, entry := range entries {
		if !bytes.Equal(entry.PrevHash, prev) && !(len(entry.PrevHash) == 0 && len(prev) == 0) {
			return i, apperrors.NewInvariantViolation("ledger chain prev hash mismatch", map[string]any{
				"entry_id": entry.EntryID.String(),
				"position": i,
			})
		}
		recomputed := LedgerEntryHash(entry.PrevHash, entry)
		if !bytes.Equal(recomputed, entry.EntryHash) {
			return i, apperrors.NewInvariantViolation("ledger entry hash mismatch", map[string]any{
				"entry_id": entry.EntryID.String(),
				"position": i,
			})
		}
		prev = entry.EntryHash
	}
	return len(entries), nil
}
