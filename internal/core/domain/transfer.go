package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/apperrors"
)

// TransferStatus is the lifecycle state of a transfer.
type TransferStatus string

const (
	// TransferDraft is a legacy wire value kept for backward compatibility;
	// no current transition produces it.
	TransferDraft           TransferStatus = "DRAFT"
	TransferPendingApproval TransferStatus = "PENDING_APPROVAL"
	TransferQueued          TransferStatus = "QUEUED"
	TransferProcessing      TransferStatus = "PROCESSING"
	TransferCompleted       TransferStatus = "COMPLETED"
	TransferFailed          TransferStatus = "FAILED"
	// TransferApproved is a legacy alias; current flows move approved
	// transfers to QUEUED instead.
	TransferApproved TransferStatus = "APPROVED"
	TransferCanceled TransferStatus = "CANCELED"
)

// TransferType distinguishes internal book transfers from future external
// rails.
type TransferType string

const (
	TransferInternal TransferType = "INTERNAL"
)

// Transfer is the aggregate moving money between two accounts of one legal
// entity. Created once at submission; mutated only via its own transition
// methods; never deleted.
type Transfer struct {
	TransferID           uuid.UUID
	Market               MarketID
	Org                  OrgID
	LegalEntity          LegalEntityID
	SourceAccountID      uuid.UUID
	DestinationAccountID uuid.UUID
	Money                Money
	Type                 TransferType
	Status               TransferStatus
	Reason               string
	CreatedBySubject     string
	ApprovedBySubject    string
	CanceledBySubject    string
	FailedReason         string
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// NewPendingTransfer builds a PENDING_APPROVAL transfer draft.
func NewPendingTransfer(
	market MarketID,
	org OrgID,
	legalEntity LegalEntityID,
	sourceAccountID uuid.UUID,
	destinationAccountID uuid.UUID,
	money Money,
	createdBySubject string,
	reason string,
	now time.Time,
) (*Transfer, error) {
	if sourceAccountID == uuid.Nil {
		return nil, apperrors.NewValidation("source account id is required", nil)
	}
	if destinationAccountID == uuid.Nil {
		return nil, apperrors.NewValidation("destination account id is required", nil)
	}
	if sourceAccountID == destinationAccountID {
		return nil, apperrors.NewValidation("source and destination accounts must differ",
			map[string]any{"account_id": sourceAccountID.String()})
	}
	if strings.TrimSpace(createdBySubject) == "" {
		return nil, apperrors.NewValidation("creating subject is required", nil)
	}
	return &Transfer{
		TransferID:           uuid.New(),
		Market:               market,
		Org:                  org,
		LegalEntity:          legalEntity,
		SourceAccountID:      sourceAccountID,
		DestinationAccountID: destinationAccountID,
		Money:                money,
		Type:                 TransferInternal,
		Status:               TransferPendingApproval,
		Reason:               reason,
		CreatedBySubject:     createdBySubject,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

func (t *Transfer) stateConflict(operation string) error {
	return apperrors.NewConflict("transfer cannot be "+operation+" in current state", map[string]any{
		"transfer_id": t.TransferID.String(),
		"status":      string(t.Status),
	})
}

// Approve moves PENDING_APPROVAL -> QUEUED and records the approving
// subject.
func (t *Transfer) Approve(subject string, now time.Time) error {
	if t.Status != TransferPendingApproval {
		return t.stateConflict("approved")
	}
	t.Status = TransferQueued
	t.ApprovedBySubject = subject
	t.UpdatedAt = now
	return nil
}

// StartProcessing moves QUEUED -> PROCESSING.
func (t *Transfer) StartProcessing(now time.Time) error {
	if t.Status != TransferQueued {
		return t.stateConflict("processed")
	}
	t.Status = TransferProcessing
	t.UpdatedAt = now
	return nil
}

// Complete moves PROCESSING -> COMPLETED.
func (t *Transfer) Complete(now time.Time) error {
	if t.Status != TransferProcessing {
		return t.stateConflict("completed")
	}
	t.Status = TransferCompleted
	t.UpdatedAt = now
	return nil
}

// Fail moves QUEUED|PROCESSING -> FAILED and records the failure reason.
func (t *Transfer) Fail(reason string, now time.Time) error {
	if t.Status != TransferQueued && t.Status != TransferProcessing {
		return t.stateConflict("failed")
	}
	t.Status = TransferFailed
	t.FailedReason = reason
	t.UpdatedAt = now
	return nil
}

// Cancel moves PENDING_APPROVAL|QUEUED -> CANCELED and records the
// canceling subject and reason.
func (t *Transfer) Cancel(subject, reason string, now time.Time) error {
	if t.Status != TransferPendingApproval && t.Status != TransferQueued {
		return t.stateConflict("canceled")
	}
	t.Status = TransferCanceled
	t.CanceledBySubject = subject
	t.Reason = reason
	t.UpdatedAt = now
	return nil
}

// IsTerminal reports whether no further transition is legal.
func (t *Transfer) IsTerminal() bool {
	switch t.Status {
	case TransferCompleted, TransferFailed, TransferCanceled:
		return true
	}
	return false
}
