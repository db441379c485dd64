package dto

import (
	"encoding/hex"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// BalanceResponse is the API view of one account balance.
type BalanceResponse struct {
	AccountID      string    `json:"account_id"`
	LegalEntityID  string    `json:"legal_entity_id"`
	Currency       string    `json:"currency"`
	AvailableMinor int64     `json:"available_minor"`
	ReservedMinor  int64     `json:"reserved_minor"`
	PendingMinor   int64     `json:"pending_minor"`
	LedgerMinor    int64     `json:"ledger_minor"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToBalanceResponse converts a domain.AccountBalance to its API view.
func ToBalanceResponse(b *domain.AccountBalance) BalanceResponse {
	return BalanceResponse{
		AccountID:      b.AccountID.String(),
		LegalEntityID:  b.LegalEntity.String(),
		Currency:       b.Currency.String(),
		AvailableMinor: b.AvailableMinor,
		ReservedMinor:  b.ReservedMinor,
		PendingMinor:   b.PendingMinor,
		LedgerMinor:    b.LedgerMinor,
		UpdatedAt:      b.UpdatedAt,
	}
}

// JournalEntryResponse is the API view of one journal entry. Hashes are hex
// encoded.
type JournalEntryResponse struct {
	EntryID       string    `json:"entry_id"`
	CorrelationID string    `json:"correlation_id"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   string    `json:"reference_id"`
	Status        string    `json:"status"`
	PostedAt      time.Time `json:"posted_at"`
	PrevHash      string    `json:"prev_hash,omitempty"`
	EntryHash     string    `json:"entry_hash"`
}

// ListJournalEntriesResponse pages through a scope's journal chain.
type ListJournalEntriesResponse struct {
	Entries   []JournalEntryResponse `json:"entries"`
	NextToken *string                `json:"next_token,omitempty"`
}

// JournalLineResponse is the API view of one journal line.
type JournalLineResponse struct {
	LineID    string          `json:"line_id"`
	AccountID string          `json:"account_id"`
	Currency  string          `json:"currency"`
	Direction string          `json:"direction"`
	LineType  string          `json:"line_type"`
	Amount    decimal.Decimal `json:"amount"`
	Memo      string          `json:"memo,omitempty"`
}

// LedgerEntryResponse is the API view of one per-account ledger entry.
type LedgerEntryResponse struct {
	EntryID     string    `json:"entry_id"`
	AccountID   string    `json:"account_id"`
	TransferID  string    `json:"transfer_id"`
	Direction   string    `json:"direction"`
	Currency    string    `json:"currency"`
	AmountMinor int64     `json:"amount_minor"`
	OccurredAt  time.Time `json:"occurred_at"`
	PrevHash    string    `json:"prev_hash,omitempty"`
	EntryHash   string    `json:"entry_hash"`
}

// ToJournalEntryResponse converts a domain.JournalEntry to its API view.
func ToJournalEntryResponse(e *domain.JournalEntry) JournalEntryResponse {
	return JournalEntryResponse{
		EntryID:       e.EntryID.String(),
		CorrelationID: e.CorrelationID,
		ReferenceType: e.ReferenceType,
		ReferenceID:   e.ReferenceID.String(),
		Status:        string(e.Status),
		PostedAt:      e.PostedAt,
		PrevHash:      hex.EncodeToString(e.PrevHash),
		EntryHash:     hex.EncodeToString(e.EntryHash),
	}
}

// ToJournalEntryResponses converts a slice of entries.
func ToJournalEntryResponses(entries []domain.JournalEntry) []JournalEntryResponse {
	responses := make([]JournalEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = ToJournalEntryResponse(&entry)
	}
	return responses
}

// ToJournalLineResponses converts a slice of lines.
func ToJournalLineResponses(lines []domain.JournalLine) []JournalLineResponse {
	responses := make([]JournalLineResponse, len(lines))
	for i, line := range lines {
		responses[i] = JournalLineResponse{
			LineID:    line.LineID.String(),
			AccountID: line.AccountID.String(),
			Currency:  line.Currency.String(),
			Direction: string(line.Direction),
			LineType:  string(line.LineType),
			Amount:    line.Amount,
			Memo:      line.Memo,
		}
	}
	return responses
}

// ToLedgerEntryResponses converts a slice of ledger entries.
func ToLedgerEntryResponses(entries []domain.LedgerEntry) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = LedgerEntryResponse{
			EntryID:     entry.EntryID.String(),
			AccountID:   entry.AccountID.String(),
			TransferID:  entry.TransferID.String(),
			Direction:   string(entry.Direction),
			Currency:    entry.Currency.String(),
			AmountMinor: entry.AmountMinor,
			OccurredAt:  entry.OccurredAt,
			PrevHash:    hex.EncodeToString(entry.PrevHash),
			EntryHash:   hex.EncodeToString(entry.EntryHash),
		}
	}
	return responses
}
