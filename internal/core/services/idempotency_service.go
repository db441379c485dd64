package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/kitewire/treasury_backend/internal/apperrors"
	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
	portssvc "github.com/kitewire/treasury_backend/internal/core/ports/services"
	"github.com/kitewire/treasury_backend/internal/middleware"
	"github.com/kitewire/treasury_backend/internal/platform/metrics"
)

// errLostIdempotencyRace aborts the unit of work when a concurrent request
// claimed the key first; the loser's side effects roll back and the
// winner's stored response is replayed.
var errLostIdempotencyRace = errors.New("idempotency key claimed concurrently")

type idempotencyService struct {
	store portsrepo.IdempotencyStore
	tx    portsrepo.TxManager
	now   func() time.Time
}

// NewIdempotencyService creates the request-deduplication guard.
func NewIdempotencyService(store portsrepo.IdempotencyStore, tx portsrepo.TxManager) portssvc.IdempotencySvcFacade {
	return &idempotencyService{store: store, tx: tx, now: time.Now}
}

var _ portssvc.IdempotencySvcFacade = (*idempotencyService)(nil)

// Execute runs op at most once per (scope, key, payload). The operation and
// the record insert share one unit of work, so two concurrent identical
// submissions cannot both apply their side effects: the insert is atomic
// insert-if-absent and the loser rolls back.
func (s *idempotencyService) Execute(ctx context.Context, scope domain.RequestScope, key string, request any, op portssvc.IdempotentOp) (*portssvc.IdempotentResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	requestHash, err := CanonicalRequestHash(request)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.Find(ctx, scope.Market, scope.Org, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.replay(existing, requestHash, logger)
	}

	var fresh *portssvc.IdempotentResponse
	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		status, body, opErr := op(ctx)
		if opErr != nil {
			return opErr
		}

		bodyBytes, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return apperrors.NewInternal("unable to serialize response for idempotency record", marshalErr)
		}

		inserted, insertErr := s.store.InsertIfAbsent(ctx, domain.IdempotencyRecord{
			Market:         scope.Market,
			Org:            scope.Org,
			IdempotencyKey: key,
			RequestHash:    requestHash,
			ResponseStatus: status,
			ResponseBody:   bodyBytes,
			CreatedAt:      s.now(),
		})
		if insertErr != nil {
			return insertErr
		}
		if !inserted {
			return errLostIdempotencyRace
		}

		fresh = &portssvc.IdempotentResponse{Status: status, Body: bodyBytes}
		return nil
	})
	if errors.Is(err, errLostIdempotencyRace) {
		winner, findErr := s.store.Find(ctx, scope.Market, scope.Org, key)
		if findErr != nil {
			return nil, findErr
		}
		if winner == nil {
			return nil, apperrors.NewInternal("idempotency record vanished after conflict", nil)
		}
		return s.replay(winner, requestHash, logger)
	}
	if err != nil {
		return nil, err
	}
	return fresh, nil
}

// replay returns the stored response verbatim, or IDEMPOTENCY_CONFLICT when
// the same key arrives with a different payload.
func (s *idempotencyService) replay(record *domain.IdempotencyRecord, requestHash string, logger *slog.Logger) (*portssvc.IdempotentResponse, error) {
	if record.RequestHash != requestHash {
		return nil, apperrors.NewIdempotencyConflict("idempotency key reused with different payload")
	}
	metrics.IdempotentReplays.Inc()
	logger.Info("Replaying stored idempotent response", slog.String("idempotency_key", record.IdempotencyKey))
	return &portssvc.IdempotentResponse{
		Status:   record.ResponseStatus,
		Body:     record.ResponseBody,
		Replayed: true,
	}, nil
}

// CanonicalRequestHash serializes the request with deterministic key
// ordering and hashes it with SHA-256, hex encoded. Two requests that
// differ only in JSON field order produce the same hash.
func CanonicalRequestHash(request any) (string, error) {
	raw, err := json.Marshal(request)
	if err != nil {
		return "", apperrors.NewInternal("unable to hash request", err)
	}

	// Round-trip through a generic value: Go marshals map keys in sorted
	// order, which canonicalizes nested objects.
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", apperrors.NewInternal("unable to hash request", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", apperrors.NewInternal("unable to hash request", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
