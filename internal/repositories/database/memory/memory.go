// Package memory provides mutex-guarded in-memory implementations of every
// store contract. Units of work are snapshot/restore: an error inside
// WithTx rolls the whole state back, mirroring the all-or-nothing semantics
// of the pgsql implementation. Used by service tests and local development.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
	"github.com/kitewire/treasury_backend/internal/utils/pagination"
)

type txMarker struct{}

type journalRecord struct {
	entry domain.JournalEntry
	lines []domain.JournalLine
}

type state struct {
	accounts    map[uuid.UUID]domain.Account
	balances    map[uuid.UUID]domain.AccountBalance
	transfers   map[uuid.UUID]domain.Transfer
	journal     []journalRecord
	ledger      []domain.LedgerEntry
	outbox      []domain.OutboxRecord
	idempotency map[string]domain.IdempotencyRecord
	audit       []domain.AuditEvent
	runs        map[uuid.UUID]domain.ReconciliationRun
}

func newState() *state {
	return &state{
		accounts:    make(map[uuid.UUID]domain.Account),
		balances:    make(map[uuid.UUID]domain.AccountBalance),
		transfers:   make(map[uuid.UUID]domain.Transfer),
		idempotency: make(map[string]domain.IdempotencyRecord),
		runs:        make(map[uuid.UUID]domain.ReconciliationRun),
	}
}

func (s *state) clone() *state {
	cloned := newState()
	for k, v := range s.accounts {
		cloned.accounts[k] = v
	}
	for k, v := range s.balances {
		cloned.balances[k] = v
	}
	for k, v := range s.transfers {
		cloned.transfers[k] = v
	}
	for k, v := range s.idempotency {
		cloned.idempotency[k] = v
	}
	for k, v := range s.runs {
		cloned.runs[k] = v
	}
	cloned.journal = append([]journalRecord(nil), s.journal...)
	cloned.ledger = append([]domain.LedgerEntry(nil), s.ledger...)
	cloned.outbox = append([]domain.OutboxRecord(nil), s.outbox...)
	cloned.audit = append([]domain.AuditEvent(nil), s.audit...)
	return cloned
}

// Stores is the in-memory backing for all store contracts.
type Stores struct {
	mu    sync.Mutex
	state *state
}

// NewStores creates an empty in-memory store set.
func NewStores() *Stores {
	return &Stores{state: newState()}
}

// Provider returns the store contracts backed by this instance.
func (s *Stores) Provider() portsrepo.StoreProvider {
	return portsrepo.StoreProvider{
		Accounts:       &accountStore{s},
		Balances:       &balanceStore{s},
		Journal:        &journalStore{s},
		Ledger:         &ledgerStore{s},
		Outbox:         &outboxStore{s},
		Audit:          &auditStore{s},
		Transfers:      &transferStore{s},
		Idempotency:    &idempotencyStore{s},
		Reconciliation: &reconciliationStore{s},
		Tx:             &txManager{s},
	}
}

// PutAccount seeds an account read view.
func (s *Stores) PutAccount(account domain.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.accounts[account.AccountID] = account
}

// PutBalance seeds a balance row.
func (s *Stores) PutBalance(balance domain.AccountBalance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.balances[balance.AccountID] = balance
}

// AuditEvents returns a copy of the audit log.
func (s *Stores) AuditEvents() []domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEvent(nil), s.state.audit...)
}

// enter acquires the state lock unless the context already runs inside a
// unit of work (which holds it for its whole duration).
func (s *Stores) enter(ctx context.Context) func() {
	if ctx.Value(txMarker{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type txManager struct{ s *Stores }

var _ portsrepo.TxManager = (*txManager)(nil)

func (t *txManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txMarker{}) != nil {
		return fn(ctx)
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	snapshot := t.s.state.clone()
	err := fn(context.WithValue(ctx, txMarker{}, struct{}{}))
	if err != nil {
		t.s.state = snapshot
	}
	return err
}

type accountStore struct{ s *Stores }

var _ portsrepo.AccountStore = (*accountStore)(nil)

func (r *accountStore) FindByID(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) (*domain.Account, error) {
	defer r.s.enter(ctx)()
	account, ok := r.s.state.accounts[accountID]
	if !ok || account.Market != market || account.Org != org {
		return nil, nil
	}
	return &account, nil
}

type balanceStore struct{ s *Stores }

var _ portsrepo.BalanceStore = (*balanceStore)(nil)

func (r *balanceStore) FindByAccountID(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) (*domain.AccountBalance, error) {
	defer r.s.enter(ctx)()
	balance, ok := r.s.state.balances[accountID]
	if !ok || balance.Market != market || balance.Org != org {
		return nil, nil
	}
	return &balance, nil
}

// loadOrCreate lazily creates a zeroed balance row inheriting the account's
// legal entity and currency. Caller holds the lock.
func (r *balanceStore) loadOrCreate(market domain.MarketID, org domain.OrgID, accountID uuid.UUID, currency domain.CurrencyCode) (domain.AccountBalance, error) {
	if balance, ok := r.s.state.balances[accountID]; ok {
		if balance.Currency != currency {
			return domain.AccountBalance{}, apperrors.NewConflict("currency mismatch for account balance", map[string]any{
				"account_id": accountID.String(), "currency": currency.String()})
		}
		return balance, nil
	}
	account, ok := r.s.state.accounts[accountID]
	if !ok {
		return domain.AccountBalance{}, apperrors.NewNotFound("account not found", map[string]any{"account_id": accountID.String()})
	}
	return domain.AccountBalance{
		AccountID:   accountID,
		Market:      market,
		Org:         org,
		LegalEntity: account.LegalEntity,
		Currency:    currency,
	}, nil
}

func (r *balanceStore) Reserve(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID, amountMinor int64, currency domain.CurrencyCode) error {
	defer r.s.enter(ctx)()

	balance, err := r.loadOrCreate(market, org, accountID, currency)
	if err != nil {
		return err
	}
	account := r.s.state.accounts[accountID]

	availableAfter := balance.AvailableMinor - amountMinor
	if !account.AllowOverdraft && availableAfter < 0 {
		return apperrors.NewConflict("insufficient available funds", map[string]any{
			"account_id":      accountID.String(),
			"available_minor": balance.AvailableMinor,
			"amount_minor":    amountMinor,
		})
	}

	balance.AvailableMinor = availableAfter
	balance.ReservedMinor += amountMinor
	balance.Version++
	balance.UpdatedAt = time.Now()
	r.s.state.balances[accountID] = balance
	return nil
}

func (r *balanceStore) ReleaseReservation(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID, amountMinor int64, currency domain.CurrencyCode) error {
	defer r.s.enter(ctx)()

	balance, ok := r.s.state.balances[accountID]
	if !ok {
		return apperrors.NewNotFound("balance not found", map[string]any{"account_id": accountID.String()})
	}
	if balance.Currency != currency {
		return apperrors.NewConflict("currency mismatch for account balance", map[string]any{
			"account_id": accountID.String(), "currency": currency.String()})
	}

	reservedAfter := balance.ReservedMinor - amountMinor
	if reservedAfter < 0 {
		return apperrors.NewInvariantViolation("reservation underflow", map[string]any{
			"account_id":     accountID.String(),
			"reserved_minor": balance.ReservedMinor,
			"amount_minor":   amountMinor,
		})
	}

	balance.ReservedMinor = reservedAfter
	balance.AvailableMinor += amountMinor
	balance.Version++
	balance.UpdatedAt = time.Now()
	r.s.state.balances[accountID] = balance
	return nil
}

func (r *balanceStore) Settle(ctx context.Context, market domain.MarketID, org domain.OrgID, sourceAccountID, destinationAccountID uuid.UUID, amountMinor int64, currency domain.CurrencyCode) error {
	defer r.s.enter(ctx)()

	sourceBal, err := r.loadOrCreate(market, org, sourceAccountID, currency)
	if err != nil {
		return err
	}
	destBal, err := r.loadOrCreate(market, org, destinationAccountID, currency)
	if err != nil {
		return err
	}

	reservedAfter := sourceBal.ReservedMinor - amountMinor
	if reservedAfter < 0 {
		return apperrors.NewInvariantViolation("reservation underflow", map[string]any{
			"account_id":     sourceAccountID.String(),
			"reserved_minor": sourceBal.ReservedMinor,
			"amount_minor":   amountMinor,
		})
	}

	// Source available was already debited at reservation time.
	sourceBal.ReservedMinor = reservedAfter
	sourceBal.LedgerMinor -= amountMinor
	sourceBal.Version++
	sourceBal.UpdatedAt = time.Now()

	destBal.LedgerMinor += amountMinor
	destBal.AvailableMinor += amountMinor
	destBal.Version++
	destBal.UpdatedAt = time.Now()

	r.s.state.balances[sourceAccountID] = sourceBal
	r.s.state.balances[destinationAccountID] = destBal
	return nil
}

type journalStore struct{ s *Stores }

var _ portsrepo.JournalStore = (*journalStore)(nil)

func (r *journalStore) FindLatestHash(ctx context.Context, market domain.MarketID, org domain.OrgID) ([]byte, error) {
	defer r.s.enter(ctx)()
	for i := len(r.s.state.journal) - 1; i >= 0; i-- {
		entry := r.s.state.journal[i].entry
		if entry.Market == market && entry.Org == org {
			return entry.EntryHash, nil
		}
	}
	return nil, nil
}

func (r *journalStore) AppendPosted(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	defer r.s.enter(ctx)()
	r.s.state.journal = append(r.s.state.journal, journalRecord{
		entry: entry,
		lines: append([]domain.JournalLine(nil), lines...),
	})
	return nil
}

func (r *journalStore) ListEntries(ctx context.Context, market domain.MarketID, org domain.OrgID, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	defer r.s.enter(ctx)()

	var afterTime time.Time
	var afterID string
	if nextToken != nil {
		var err error
		afterTime, afterID, err = pagination.DecodeCursor(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidation("invalid pagination token", nil)
		}
	}

	var scoped []domain.JournalEntry
	for _, record := range r.s.state.journal {
		entry := record.entry
		if entry.Market != market || entry.Org != org {
			continue
		}
		if nextToken != nil {
			if entry.PostedAt.Before(afterTime) {
				continue
			}
			if entry.PostedAt.Equal(afterTime) && entry.EntryID.String() <= afterID {
				continue
			}
		}
		scoped = append(scoped, entry)
	}
	sort.Slice(scoped, func(i, j int) bool {
		if !scoped[i].PostedAt.Equal(scoped[j].PostedAt) {
			return scoped[i].PostedAt.Before(scoped[j].PostedAt)
		}
		return scoped[i].EntryID.String() < scoped[j].EntryID.String()
	})

	var token *string
	if len(scoped) > limit {
		scoped = scoped[:limit]
		last := scoped[len(scoped)-1]
		encoded := pagination.EncodeCursor(last.PostedAt, last.EntryID.String())
		token = &encoded
	}
	return scoped, token, nil
}

func (r *journalStore) LinesByEntry(ctx context.Context, market domain.MarketID, org domain.OrgID, entryID uuid.UUID) ([]domain.JournalLine, error) {
	defer r.s.enter(ctx)()
	for _, record := range r.s.state.journal {
		if record.entry.EntryID == entryID && record.entry.Market == market && record.entry.Org == org {
			return append([]domain.JournalLine(nil), record.lines...), nil
		}
	}
	return nil, nil
}

type ledgerStore struct{ s *Stores }

var _ portsrepo.LedgerStore = (*ledgerStore)(nil)

func (r *ledgerStore) FindLatestHashForAccount(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) ([]byte, error) {
	defer r.s.enter(ctx)()
	for i := len(r.s.state.ledger) - 1; i >= 0; i-- {
		entry := r.s.state.ledger[i]
		if entry.Market == market && entry.Org == org && entry.AccountID == accountID {
			return entry.EntryHash, nil
		}
	}
	return nil, nil
}

func (r *ledgerStore) AppendEntries(ctx context.Context, entries []domain.LedgerEntry) error {
	defer r.s.enter(ctx)()
	r.s.state.ledger = append(r.s.state.ledger, entries...)
	return nil
}

func (r *ledgerStore) ListByAccount(ctx context.Context, market domain.MarketID, org domain.OrgID, accountID uuid.UUID) ([]domain.LedgerEntry, error) {
	defer r.s.enter(ctx)()
	var scoped []domain.LedgerEntry
	for _, entry := range r.s.state.ledger {
		if entry.Market == market && entry.Org == org && entry.AccountID == accountID {
			scoped = append(scoped, entry)
		}
	}
	return scoped, nil
}

type outboxStore struct{ s *Stores }

var _ portsrepo.OutboxStore = (*outboxStore)(nil)

func (r *outboxStore) Add(ctx context.Context, record domain.OutboxRecord) error {
	defer r.s.enter(ctx)()
	for _, existing := range r.s.state.outbox {
		if existing.Market == record.Market && existing.Org == record.Org && existing.DedupeKey == record.DedupeKey {
			return apperrors.NewConflict("duplicate outbox dedupe key", map[string]any{"dedupe_key": record.DedupeKey})
		}
	}
	r.s.state.outbox = append(r.s.state.outbox, record)
	return nil
}

func (r *outboxStore) NextUnpublished(ctx context.Context, market domain.MarketID, org domain.OrgID) (*domain.OutboxRecord, error) {
	defer r.s.enter(ctx)()
	for _, record := range r.s.state.outbox {
		if record.Market == market && record.Org == org && record.PublishedAt == nil {
			found := record
			return &found, nil
		}
	}
	return nil, nil
}

func (r *outboxStore) MarkPublished(ctx context.Context, outboxID uuid.UUID, at time.Time) error {
	defer r.s.enter(ctx)()
	for i, record := range r.s.state.outbox {
		if record.OutboxID == outboxID {
			if record.PublishedAt == nil {
				published := at
				r.s.state.outbox[i].PublishedAt = &published
			}
			return nil
		}
	}
	return apperrors.NewNotFound("outbox record not found", map[string]any{"outbox_id": outboxID.String()})
}

func (r *outboxStore) ScopesWithUnpublished(ctx context.Context) ([]domain.OutboxScopeRef, error) {
	defer r.s.enter(ctx)()
	seen := make(map[domain.OutboxScopeRef]struct{})
	var scopes []domain.OutboxScopeRef
	for _, record := range r.s.state.outbox {
		if record.PublishedAt != nil {
			continue
		}
		ref := domain.OutboxScopeRef{Market: record.Market, Org: record.Org}
		if _, ok := seen[ref]; !ok {
			seen[ref] = struct{}{}
			scopes = append(scopes, ref)
		}
	}
	return scopes, nil
}

type auditStore struct{ s *Stores }

var _ portsrepo.AuditStore = (*auditStore)(nil)

func (r *auditStore) Write(ctx context.Context, event domain.AuditEvent) error {
	defer r.s.enter(ctx)()
	r.s.state.audit = append(r.s.state.audit, event)
	return nil
}

type transferStore struct{ s *Stores }

var _ portsrepo.TransferStore = (*transferStore)(nil)

func (r *transferStore) Save(ctx context.Context, transfer *domain.Transfer) error {
	defer r.s.enter(ctx)()
	if _, exists := r.s.state.transfers[transfer.TransferID]; exists {
		return apperrors.NewConflict("transfer already exists", map[string]any{"transfer_id": transfer.TransferID.String()})
	}
	transfer.Version = 1
	r.s.state.transfers[transfer.TransferID] = *transfer
	return nil
}

func (r *transferStore) FindByID(ctx context.Context, market domain.MarketID, org domain.OrgID, transferID uuid.UUID) (*domain.Transfer, error) {
	defer r.s.enter(ctx)()
	transfer, ok := r.s.state.transfers[transferID]
	if !ok || transfer.Market != market || transfer.Org != org {
		return nil, nil
	}
	return &transfer, nil
}

func (r *transferStore) Update(ctx context.Context, transfer *domain.Transfer) error {
	defer r.s.enter(ctx)()
	stored, ok := r.s.state.transfers[transfer.TransferID]
	if !ok {
		return apperrors.NewNotFound("transfer not found", map[string]any{"transfer_id": transfer.TransferID.String()})
	}
	if stored.Version != transfer.Version {
		return apperrors.NewConflict("transfer modified concurrently", map[string]any{
			"transfer_id": transfer.TransferID.String()})
	}
	transfer.Version++
	r.s.state.transfers[transfer.TransferID] = *transfer
	return nil
}

type idempotencyStore struct{ s *Stores }

var _ portsrepo.IdempotencyStore = (*idempotencyStore)(nil)

func idempotencyKeyOf(market domain.MarketID, org domain.OrgID, key string) string {
	return market.String() + "|" + org.String() + "|" + key
}

func (r *idempotencyStore) Find(ctx context.Context, market domain.MarketID, org domain.OrgID, key string) (*domain.IdempotencyRecord, error) {
	defer r.s.enter(ctx)()
	record, ok := r.s.state.idempotency[idempotencyKeyOf(market, org, key)]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (r *idempotencyStore) InsertIfAbsent(ctx context.Context, record domain.IdempotencyRecord) (bool, error) {
	defer r.s.enter(ctx)()
	composite := idempotencyKeyOf(record.Market, record.Org, record.IdempotencyKey)
	if _, exists := r.s.state.idempotency[composite]; exists {
		return false, nil
	}
	r.s.state.idempotency[composite] = record
	return true, nil
}

type reconciliationStore struct{ s *Stores }

var _ portsrepo.ReconciliationStore = (*reconciliationStore)(nil)

func (r *reconciliationStore) Save(ctx context.Context, run *domain.ReconciliationRun) error {
	defer r.s.enter(ctx)()
	r.s.state.runs[run.RunID] = *run
	return nil
}

func (r *reconciliationStore) Update(ctx context.Context, run *domain.ReconciliationRun) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.state.runs[run.RunID]; !ok {
		return apperrors.NewNotFound("reconciliation run not found", map[string]any{"run_id": run.RunID.String()})
	}
	r.s.state.runs[run.RunID] = *run
	return nil
}

func (r *reconciliationStore) FindByID(ctx context.Context, market domain.MarketID, org domain.OrgID, runID uuid.UUID) (*domain.ReconciliationRun, error) {
	defer r.s.enter(ctx)()
	run, ok := r.s.state.runs[runID]
	if !ok || run.Market != market || run.Org != org {
		return nil, nil
	}
	return &run, nil
}
