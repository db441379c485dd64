package services

import (
	"context"

	"github.com/kitewire/treasury_backend/internal/core/domain"
)

// IdempotentResponse is the stored or fresh outcome of a deduplicated
// operation. Replayed responses are byte-identical to the original,
// including the status code.
type IdempotentResponse struct {
	Status   int
	Body     []byte
	Replayed bool
}

// IdempotentOp produces the response for a first-time request. It runs
// inside the guard's unit of work.
type IdempotentOp func(ctx context.Context) (int, any, error)

// IdempotencySvcFacade wraps mutating entry points with request
// deduplication keyed by (market, org, idempotency key).
type IdempotencySvcFacade interface {
	// Execute runs op at most once per key+payload. A repeat with the same
	// canonical payload replays the stored response; the same key with a
	// different payload fails with IDEMPOTENCY_CONFLICT.
	Execute(ctx context.Context, scope domain.RequestScope, key string, request any, op IdempotentOp) (*IdempotentResponse, error)
}
