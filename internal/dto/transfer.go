// Package dto defines the request and response shapes of the HTTP API and
// the mapping to and from domain types.
package dto

import (
	"time"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// MoneyDTO is an exact-integer monetary amount in the currency's minor
// unit.
type MoneyDTO struct {
	AmountMinor int64  `json:"amount_minor" binding:"required,gt=0"`
	Currency    string `json:"currency" binding:"required,currency"`
}

// CreateTransferRequest is the body of POST /transfers.
type CreateTransferRequest struct {
	LegalEntityID        string   `json:"legal_entity_id" binding:"required"`
	SourceAccountID      string   `json:"source_account_id" binding:"required,uuid"`
	DestinationAccountID string   `json:"destination_account_id" binding:"required,uuid"`
	Amount               MoneyDTO `json:"amount" binding:"required"`
	Reason               string   `json:"reason" binding:"max=500"`
}

// CancelTransferRequest is the body of POST /transfers/:transferID/cancel.
type CancelTransferRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// TransferResponse is the API view of a transfer.
type TransferResponse struct {
	TransferID           string    `json:"transfer_id"`
	LegalEntityID        string    `json:"legal_entity_id"`
	SourceAccountID      string    `json:"source_account_id"`
	DestinationAccountID string    `json:"destination_account_id"`
	Amount               MoneyDTO  `json:"amount"`
	Type                 string    `json:"type"`
	Status               string    `json:"status"`
	Reason               string    `json:"reason,omitempty"`
	CreatedBy            string    `json:"created_by"`
	ApprovedBy           string    `json:"approved_by,omitempty"`
	CanceledBy           string    `json:"canceled_by,omitempty"`
	FailedReason         string    `json:"failed_reason,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ToTransferResponse converts a domain.Transfer to its API view.
func ToTransferResponse(t *domain.Transfer) TransferResponse {
	return TransferResponse{
		TransferID:           t.TransferID.String(),
		LegalEntityID:        t.LegalEntity.String(),
		SourceAccountID:      t.SourceAccountID.String(),
		DestinationAccountID: t.DestinationAccountID.String(),
		Amount: MoneyDTO{
			AmountMinor: t.Money.AmountMinor,
			Currency:    t.Money.Currency.String(),
		},
		Type:         string(t.Type),
		Status:       string(t.Status),
		Reason:       t.Reason,
		CreatedBy:    t.CreatedBySubject,
		ApprovedBy:   t.ApprovedBySubject,
		CanceledBy:   t.CanceledBySubject,
		FailedReason: t.FailedReason,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}
