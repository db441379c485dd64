package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
	portssvc "github.com/kitewire/treasury_backend/internal/core/ports/services"
	"github.com/kitewire/treasury_backend/internal/middleware"
	"github.com/kitewire/treasury_backend/internal/platform/metrics"
	"github.com/kitewire/treasury_backend/internal/utils/hashchain"
)

// fourEyesThresholdMinor is the amount at and above which the approver must
// differ from the creator. Policy-engine hook point.
const fourEyesThresholdMinor = int64(1_000_000)

// transferService orchestrates the transfer lifecycle across the stores.
type transferService struct {
	transfers portsrepo.TransferStore
	accounts  portsrepo.AccountStore
	balances  portsrepo.BalanceStore
	journal   portsrepo.JournalStore
	ledger    portsrepo.LedgerStore
	outbox    portsrepo.OutboxStore
	audit     portsrepo.AuditStore
	tx        portsrepo.TxManager
	now       func() time.Time
}

// NewTransferService creates the transfer orchestrator.
func NewTransferService(stores portsrepo.StoreProvider) portssvc.TransferSvcFacade {
	return &transferService{
		transfers: stores.Transfers,
		accounts:  stores.Accounts,
		balances:  stores.Balances,
		journal:   stores.Journal,
		ledger:    stores.Ledger,
		outbox:    stores.Outbox,
		audit:     stores.Audit,
		tx:        stores.Tx,
		now:       time.Now,
	}
}

var _ portssvc.TransferSvcFacade = (*transferService)(nil)

// CreateTransfer validates the draft, persists it, reserves funds on the
// source account and enqueues TransferCreated, all in one unit of work.
func (s *transferService) CreateTransfer(ctx context.Context, scope domain.RequestScope, draft *domain.Transfer, correlationID string) (*domain.Transfer, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := ensureLegalEntityAllowed(scope, draft.LegalEntity); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		source, err := s.accounts.FindByID(ctx, scope.Market, scope.Org, draft.SourceAccountID)
		if err != nil {
			return err
		}
		if source == nil {
			return apperrors.NewNotFound("source account not found", map[string]any{"account_id": draft.SourceAccountID.String()})
		}
		dest, err := s.accounts.FindByID(ctx, scope.Market, scope.Org, draft.DestinationAccountID)
		if err != nil {
			return err
		}
		if dest == nil {
			return apperrors.NewNotFound("destination account not found", map[string]any{"account_id": draft.DestinationAccountID.String()})
		}

		if !source.IsActive() {
			return apperrors.NewConflict("source account not active", map[string]any{
				"account_id": source.AccountID.String(), "status": string(source.Status)})
		}
		if !dest.IsActive() {
			return apperrors.NewConflict("destination account not active", map[string]any{
				"account_id": dest.AccountID.String(), "status": string(dest.Status)})
		}
		if source.LegalEntity != draft.LegalEntity || dest.LegalEntity != draft.LegalEntity {
			return apperrors.NewConflict("accounts must belong to the same legal entity as the transfer", map[string]any{
				"legal_entity_id": draft.LegalEntity.String()})
		}
		if source.Currency != draft.Money.Currency {
			return apperrors.NewConflict("source account currency must match transfer currency", map[string]any{
				"account_id": source.AccountID.String(), "currency": draft.Money.Currency.String()})
		}
		if dest.Currency != draft.Money.Currency {
			return apperrors.NewConflict("destination account currency must match transfer currency", map[string]any{
				"account_id": dest.AccountID.String(), "currency": draft.Money.Currency.String()})
		}

		if err := s.transfers.Save(ctx, draft); err != nil {
			return err
		}

		// Reserve funds at initiation, or fail fast.
		if err := s.balances.Reserve(ctx, scope.Market, scope.Org, draft.SourceAccountID, draft.Money.AmountMinor, draft.Money.Currency); err != nil {
			return err
		}

		if err := s.addTransferEvent(ctx, scope, draft, "TransferCreated", "transfer-created"); err != nil {
			return err
		}

		return s.audit.Write(ctx, domain.AuditEvent{
			Market:        scope.Market,
			Org:           scope.Org,
			LegalEntity:   draft.LegalEntity,
			CorrelationID: correlationID,
			Subject:       scope.Subject,
			Action:        "transfer.create",
			ResourceType:  "transfer",
			ResourceID:    draft.TransferID.String(),
			Outcome:       "SUCCESS",
			OccurredAt:    s.now(),
			Metadata: map[string]any{
				"amount_minor": draft.Money.AmountMinor,
				"currency":     draft.Money.Currency.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.TransfersCreated.Inc()
	logger.Info("Transfer created",
		slog.String("transfer_id", draft.TransferID.String()),
		slog.Int64("amount_minor", draft.Money.AmountMinor),
		slog.String("currency", draft.Money.Currency.String()),
	)
	return draft, nil
}

// GetTransfer loads a transfer or returns NOT_FOUND.
func (s *transferService) GetTransfer(ctx context.Context, scope domain.RequestScope, transferID uuid.UUID) (*domain.Transfer, error) {
	transfer, err := s.transfers.FindByID(ctx, scope.Market, scope.Org, transferID)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, apperrors.NewNotFound("transfer not found", map[string]any{"transfer_id": transferID.String()})
	}
	return transfer, nil
}

// ApproveTransfer runs the full approve flow as a single unit of work:
// queue, process, post the double-entry journal, extend the per-account
// ledger chains, settle balances and complete.
func (s *transferService) ApproveTransfer(ctx context.Context, scope domain.RequestScope, transferID uuid.UUID, correlationID string) (*domain.Transfer, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var transfer *domain.Transfer
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		transfer, err = s.GetTransfer(ctx, scope, transferID)
		if err != nil {
			return err
		}
		if err := ensureLegalEntityAllowed(scope, transfer.LegalEntity); err != nil {
			return err
		}

		if transfer.Money.AmountMinor >= fourEyesThresholdMinor && scope.Subject == transfer.CreatedBySubject {
			return apperrors.NewConflict("4-eyes approval required", map[string]any{
				"transfer_id": transfer.TransferID.String()})
		}

		if err := transfer.Approve(scope.Subject, s.now()); err != nil {
			return err
		}
		if err := s.addTransferEvent(ctx, scope, transfer, "TransferQueued", "transfer-queued"); err != nil {
			return err
		}

		// Synchronous processor for INTERNAL transfers.
		if err := transfer.StartProcessing(s.now()); err != nil {
			return err
		}
		if err := s.addTransferEvent(ctx, scope, transfer, "TransferProcessing", "transfer-processing"); err != nil {
			return err
		}

		if err := s.postJournal(ctx, scope, transfer, correlationID); err != nil {
			return err
		}
		if err := s.appendLedgerEntries(ctx, scope, transfer); err != nil {
			return err
		}
		if err := s.balances.Settle(ctx, scope.Market, scope.Org, transfer.SourceAccountID, transfer.DestinationAccountID, transfer.Money.AmountMinor, transfer.Money.Currency); err != nil {
			return err
		}

		if err := transfer.Complete(s.now()); err != nil {
			return err
		}
		if err := s.transfers.Update(ctx, transfer); err != nil {
			return err
		}
		if err := s.addTransferEvent(ctx, scope, transfer, "TransferCompleted", "transfer-completed"); err != nil {
			return err
		}

		return s.audit.Write(ctx, domain.AuditEvent{
			Market:        scope.Market,
			Org:           scope.Org,
			LegalEntity:   transfer.LegalEntity,
			CorrelationID: correlationID,
			Subject:       scope.Subject,
			Action:        "transfer.approve",
			ResourceType:  "transfer",
			ResourceID:    transfer.TransferID.String(),
			Outcome:       "SUCCESS",
			OccurredAt:    s.now(),
			Metadata: map[string]any{
				"amount_minor": transfer.Money.AmountMinor,
				"currency":     transfer.Money.Currency.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.TransfersCompleted.Inc()
	logger.Info("Transfer completed", slog.String("transfer_id", transfer.TransferID.String()))
	return transfer, nil
}

// CancelTransfer cancels a pre-settlement transfer and releases its
// reservation.
func (s *transferService) CancelTransfer(ctx context.Context, scope domain.RequestScope, transferID uuid.UUID, reason string, correlationID string) (*domain.Transfer, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var transfer *domain.Transfer
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		transfer, err = s.GetTransfer(ctx, scope, transferID)
		if err != nil {
			return err
		}
		if err := ensureLegalEntityAllowed(scope, transfer.LegalEntity); err != nil {
			return err
		}

		if err := transfer.Cancel(scope.Subject, reason, s.now()); err != nil {
			return err
		}

		// Return the reserved funds; the transfer never settled.
		if err := s.balances.ReleaseReservation(ctx, scope.Market, scope.Org, transfer.SourceAccountID, transfer.Money.AmountMinor, transfer.Money.Currency); err != nil {
			return err
		}
		if err := s.transfers.Update(ctx, transfer); err != nil {
			return err
		}
		if err := s.addTransferEvent(ctx, scope, transfer, "TransferCanceled", "transfer-canceled"); err != nil {
			return err
		}

		return s.audit.Write(ctx, domain.AuditEvent{
			Market:        scope.Market,
			Org:           scope.Org,
			LegalEntity:   transfer.LegalEntity,
			CorrelationID: correlationID,
			Subject:       scope.Subject,
			Action:        "transfer.cancel",
			ResourceType:  "transfer",
			ResourceID:    transfer.TransferID.String(),
			Outcome:       "SUCCESS",
			OccurredAt:    s.now(),
			Metadata:      map[string]any{"reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.TransfersCanceled.Inc()
	logger.Info("Transfer canceled", slog.String("transfer_id", transfer.TransferID.String()))
	return transfer, nil
}

// postJournal appends the double-entry posting for a transfer: one DEBIT
// line on the source account and one CREDIT line on the destination, same
// currency and amount, extending the scope's hash chain.
func (s *transferService) postJournal(ctx context.Context, scope domain.RequestScope, transfer *domain.Transfer, correlationID string) error {
	amount, err := transfer.Money.Decimal()
	if err != nil {
		return err
	}

	entryID := uuid.New()
	memo := fmt.Sprintf("transfer %s principal", transfer.TransferID)

	lines := []domain.JournalLine{
		{
			LineID:    uuid.New(),
			EntryID:   entryID,
			AccountID: transfer.SourceAccountID,
			Currency:  transfer.Money.Currency,
			Direction: domain.Debit,
			LineType:  domain.LinePrincipal,
			Amount:    amount,
			Memo:      memo,
		},
		{
			LineID:    uuid.New(),
			EntryID:   entryID,
			AccountID: transfer.DestinationAccountID,
			Currency:  transfer.Money.Currency,
			Direction: domain.Credit,
			LineType:  domain.LinePrincipal,
			Amount:    amount,
			Memo:      memo,
		},
	}

	// A mismatch here is a programming defect, not a user conflict.
	if err := ensureBalanced(lines); err != nil {
		return err
	}

	prevHash, err := s.journal.FindLatestHash(ctx, scope.Market, scope.Org)
	if err != nil {
		return err
	}

	entry := domain.JournalEntry{
		EntryID:       entryID,
		Market:        scope.Market,
		Org:           scope.Org,
		CorrelationID: correlationID,
		ReferenceType: "transfer",
		ReferenceID:   transfer.TransferID,
		Status:        domain.JournalPosted,
		PostedAt:      s.now(),
		PrevHash:      prevHash,
	}
	entry.EntryHash = hashchain.JournalEntryHash(prevHash, entry, lines)

	if err := s.journal.AppendPosted(ctx, entry, lines); err != nil {
		return err
	}
	metrics.JournalEntriesPosted.Inc()
	return nil
}

// appendLedgerEntries extends the per-account chains with the account-level
// projection of the settlement.
func (s *transferService) appendLedgerEntries(ctx context.Context, scope domain.RequestScope, transfer *domain.Transfer) error {
	occurredAt := s.now()

	entries := make([]domain.LedgerEntry, 0, 2)
	for _, side := range []struct {
		accountID uuid.UUID
		direction domain.LedgerDirection
	}{
		{transfer.SourceAccountID, domain.Debit},
		{transfer.DestinationAccountID, domain.Credit},
	} {
		prevHash, err := s.ledger.FindLatestHashForAccount(ctx, scope.Market, scope.Org, side.accountID)
		if err != nil {
			return err
		}
		entry := domain.LedgerEntry{
			EntryID:     uuid.New(),
			Market:      scope.Market,
			Org:         scope.Org,
			LegalEntity: transfer.LegalEntity,
			AccountID:   side.accountID,
			TransferID:  transfer.TransferID,
			Direction:   side.direction,
			Currency:    transfer.Money.Currency,
			AmountMinor: transfer.Money.AmountMinor,
			OccurredAt:  occurredAt,
			PrevHash:    prevHash,
		}
		entry.EntryHash = hashchain.LedgerEntryHash(prevHash, entry)
		entries = append(entries, entry)
	}

	return s.ledger.AppendEntries(ctx, entries)
}

// addTransferEvent enqueues one outbox record for the transfer with the
// canonical dedupe key pattern "<event-kind>:<transferId>".
func (s *transferService) addTransferEvent(ctx context.Context, scope domain.RequestScope, transfer *domain.Transfer, eventType, dedupePrefix string) error {
	return s.outbox.Add(ctx, domain.OutboxRecord{
		OutboxID:      uuid.New(),
		Market:        scope.Market,
		Org:           scope.Org,
		AggregateType: "Transfer",
		AggregateID:   transfer.TransferID,
		EventType:     eventType,
		PayloadJSON:   fmt.Sprintf(`{"transfer_id":%q}`, transfer.TransferID.String()),
		DedupeKey:     fmt.Sprintf("%s:%s", dedupePrefix, transfer.TransferID),
		CreatedAt:     s.now(),
	})
}

func ensureLegalEntityAllowed(scope domain.RequestScope, legalEntity domain.LegalEntityID) error {
	if !scope.AllowsLegalEntity(legalEntity) {
		return apperrors.NewConflict("subject not allowed for legal entity", map[string]any{
			"legal_entity_id": legalEntity.String()})
	}
	return nil
}

// ensureBalanced checks the double-entry invariant: for each currency in
// the line set, the debit sum equals the credit sum exactly.
func ensureBalanced(lines []domain.JournalLine) error {
	type sums struct {
		debit  decimal.Decimal
		credit decimal.Decimal
	}

	byCurrency := make(map[domain.CurrencyCode]sums)
	for _, line := range lines {
		current := byCurrency[line.Currency]
		if line.Direction == domain.Debit {
			current.debit = current.debit.Add(line.Amount)
		} else {
			current.credit = current.credit.Add(line.Amount)
		}
		byCurrency[line.Currency] = current
	}

	for currencyCode, total := range byCurrency {
		if !total.debit.Equal(total.credit) {
			return apperrors.NewInvariantViolation("unbalanced journal entry", map[string]any{
				"currency": currencyCode.String(),
				"debits":   total.debit.String(),
				"credits":  total.credit.String(),
			})
		}
	}
	return nil
}
