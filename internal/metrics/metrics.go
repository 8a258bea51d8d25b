// Package metrics exposes Prometheus collectors for the ingestion service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marketdesk/feedsync/internal/model"
)

var (
	crawlInvocationsTotal *prometheus.CounterVec
	crawlDurationSeconds  *prometheus.HistogramVec
	ingestItemsTotal      *prometheus.CounterVec
	batchResponsesTotal   *prometheus.CounterVec

	once sync.Once
)

// Init registers the collectors. Safe to call more than once.
func Init() {
	once.Do(func() {
		crawlInvocationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsync_crawl_invocations_total",
				Help: "Crawler invocations, labeled by source kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		crawlDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "feedsync_crawl_duration_seconds",
				Help:    "Wall-clock duration of crawler invocations.",
				Buckets: []float64{1, 5, 15, 30, 60, 90, 120, 180},
			},
			[]string{"kind"},
		)

		ingestItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsync_ingest_items_total",
				Help: "Canonical records processed, labeled by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		)

		batchResponsesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedsync_batch_responses_total",
				Help: "Batch LLM response drafts, labeled by outcome.",
			},
			[]string{"outcome"},
		)
	})
}

// Timer tracks one crawl invocation from start to outcome.
type Timer struct {
	kind  model.SourceKind
	start time.Time
}

// CrawlTimer starts timing a crawl invocation.
func CrawlTimer(kind model.SourceKind) *Timer {
	return &Timer{kind: kind, start: time.Now()}
}

// Done records the invocation outcome and its duration.
func (t *Timer) Done(outcome string) {
	if crawlInvocationsTotal == nil {
		return
	}
	crawlInvocationsTotal.WithLabelValues(string(t.kind), outcome).Inc()
	crawlDurationSeconds.WithLabelValues(string(t.kind)).Observe(time.Since(t.start).Seconds())
}

// RecordIngestItem counts one processed record by outcome
// (created, duplicate, failed).
func RecordIngestItem(kind model.SourceKind, outcome string) {
	if ingestItemsTotal == nil {
		return
	}
	ingestItemsTotal.WithLabelValues(string(kind), outcome).Inc()
}

// RecordBatchResponse counts one batch response draft by outcome.
func RecordBatchResponse(outcome string) {
	if batchResponsesTotal == nil {
		return
	}
	batchResponsesTotal.WithLabelValues(outcome).Inc()
}
