// Package jobs holds background workers that run alongside the HTTP
// server.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/kitewire/treasury_backend/internal/core/domain"
	portsrepo "github.com/kitewire/treasury_backend/internal/core/ports/repositories"
	"github.com/kitewire/treasury_backend/internal/platform/metrics"
)

// EventSink delivers one outbox record to the downstream event transport.
type EventSink interface {
	Publish(ctx context.Context, record domain.OutboxRecord) error
}

// RedisStreamSink publishes outbox records to a Redis stream. Delivery is
// at-least-once; consumers dedupe on the dedupe_key field.
type RedisStreamSink struct {
	client *redis.Client
	stream string
}

// NewRedisStreamSink creates a sink writing to the named stream.
func NewRedisStreamSink(client *redis.Client, stream string) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream}
}

var _ EventSink = (*RedisStreamSink)(nil)

func (s *RedisStreamSink) Publish(ctx context.Context, record domain.OutboxRecord) error {
	return s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"event_type":     record.EventType,
			"aggregate_type": record.AggregateType,
			"aggregate_id":   record.AggregateID.String(),
			"payload":        record.PayloadJSON,
			"dedupe_key":     record.DedupeKey,
			"market":         record.Market.String(),
			"org":            record.Org.String(),
		},
	}).Err()
}

// OutboxPublisher drains the outbox table into the event sink on a fixed
// interval, one scope at a time in FIFO order. Sink failures trip a
// circuit breaker so a dead transport does not hammer every poll.
type OutboxPublisher struct {
	outbox   portsrepo.OutboxStore
	sink     EventSink
	breaker  *gobreaker.CircuitBreaker
	interval time.Duration
	logger   *slog.Logger
}

// NewOutboxPublisher wires a publisher over the given store and sink.
func NewOutboxPublisher(outbox portsrepo.OutboxStore, sink EventSink, interval time.Duration, logger *slog.Logger) *OutboxPublisher {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "outbox-sink",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &OutboxPublisher{
		outbox:   outbox,
		sink:     sink,
		breaker:  breaker,
		interval: interval,
		logger:   logger,
	}
}

// Run polls until the context is canceled.
func (p *OutboxPublisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox publisher stopping")
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll drains every scope that currently holds unpublished records.
func (p *OutboxPublisher) Poll(ctx context.Context) {
	started := time.Now()
	defer func() {
		metrics.OutboxPollDuration.Observe(time.Since(started).Seconds())
	}()

	scopes, err := p.outbox.ScopesWithUnpublished(ctx)
	if err != nil {
		p.logger.Error("failed to list outbox scopes", slog.String("error", err.Error()))
		return
	}

	for _, scope := range scopes {
		if err := p.drainScope(ctx, scope); err != nil {
			p.logger.Error("failed to drain outbox scope",
				slog.String("market", scope.Market.String()),
				slog.String("org", scope.Org.String()),
				slog.String("error", err.Error()))
		}
	}
}

// drainScope publishes records strictly in creation order. The first
// failure stops the scope; ordering would break if later records went out
// first.
func (p *OutboxPublisher) drainScope(ctx context.Context, scope domain.OutboxScopeRef) error {
	for {
		record, err := p.outbox.NextUnpublished(ctx, scope.Market, scope.Org)
		if err != nil {
			return err
		}
		if record == nil {
			return nil
		}

		_, err = p.breaker.Execute(func() (any, error) {
			return nil, p.sink.Publish(ctx, *record)
		})
		if err != nil {
			metrics.OutboxPublishErrors.Inc()
			return err
		}

		if err := p.outbox.MarkPublished(ctx, record.OutboxID, time.Now()); err != nil {
			return err
		}
		metrics.OutboxPublished.Inc()
		p.logger.Debug("published outbox record",
			slog.String("event_type", record.EventType),
			slog.String("dedupe_key", record.DedupeKey))
	}
}
