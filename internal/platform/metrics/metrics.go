// Package metrics registers the service's Prometheus collectors. They are
// registered on the default registry and exposed via /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TransfersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treasury_transfers_created_total",
		Help: "Number of transfers accepted into PENDING_APPROVAL.",
	})
	TransfersCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treasury_transfers_completed_total",
		Help: "Number of transfers settled and completed.",
	})
	TransfersCanceled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treasury_transfers_canceled_total",
		Help: "Number of transfers canceled before settlement.",
	})
	JournalEntriesPosted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treasury_journal_entries_posted_total",
		Help: "Number of journal entries appended to the hash chain.",
	})
	IdempotentReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treasury_idempotent_replays_total",
		Help: "Number of requests answered from stored idempotency records.",
	})
	OutboxPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treasury_outbox_published_total",
		Help: "Number of outbox records handed to the event stream.",
	})
	OutboxPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "treasury_outbox_publish_errors_total",
		Help: "Number of failed outbox publish attempts.",
	})
	OutboxPollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "treasury_outbox_poll_duration_seconds",
		Help:    "Duration of one outbox drain cycle.",
		Buckets: prometheus.DefBuckets,
	})
)
