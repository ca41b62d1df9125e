// Package metrics exposes the scan coverage counters on a Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "token_scanner"

// Pass results
const (
	PassCompleted  = "completed"
	PassFailed     = "failed"
	PassInProgress = "in_progress"
	PassLockHeld   = "lock_held"
)

// Metrics holds all Prometheus metrics for the scanner
type Metrics struct {
	Passes       *prometheus.CounterVec
	ScanDuration prometheus.Histogram
	ScanHead     prometheus.Gauge

	// Coverage
	BlocksScanned   prometheus.Counter
	BlocksSkipped   prometheus.Counter
	ReceiptsSkipped prometheus.Counter
	GapBlocks       prometheus.Counter

	// Pipeline
	Candidates         prometheus.Counter
	KnownSkipped       prometheus.Counter
	NotTokens          prometheus.Counter
	TokensStored       prometheus.Counter
	StoreFailures      prometheus.Counter
	EnrichmentFailures *prometheus.CounterVec
	PublishFailures    prometheus.Counter
	TokensByStatus     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the metrics on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the metrics on reg and serves them from gatherer
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Passes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "passes_total",
			Help:      "Total number of scan attempts by result",
		}, []string{"result"}),
		ScanDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Duration of completed scan passes",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		ScanHead: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "head_block",
			Help:      "Highest block covered by a completed pass",
		}),
		BlocksScanned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coverage",
			Name:      "blocks_scanned_total",
			Help:      "Total number of blocks fetched and inspected",
		}),
		BlocksSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coverage",
			Name:      "blocks_skipped_total",
			Help:      "Total number of blocks that could not be fetched",
		}),
		ReceiptsSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coverage",
			Name:      "receipts_skipped_total",
			Help:      "Total number of contract creation receipts that could not be fetched",
		}),
		GapBlocks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "coverage",
			Name:      "gap_blocks_total",
			Help:      "Total number of blocks that fell between two scan windows",
		}),
		Candidates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "candidates_total",
			Help:      "Total number of created contract addresses found",
		}),
		KnownSkipped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "known_skipped_total",
			Help:      "Total number of candidates skipped as already stored, ignored or queued",
		}),
		NotTokens: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "not_tokens_total",
			Help:      "Total number of candidates that failed the token probe",
		}),
		TokensStored: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tokens_stored_total",
			Help:      "Total number of token records written",
		}),
		StoreFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "store_failures_total",
			Help:      "Total number of token records that failed to persist",
		}),
		EnrichmentFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "enrichment_failures_total",
			Help:      "Total number of failed enrichment calls by provider",
		}, []string{"provider"}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "publish_failures_total",
			Help:      "Total number of discovery events that failed to publish",
		}),
		TokensByStatus: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tokens_by_status_total",
			Help:      "Total number of token records written by risk status",
		}, []string{"status"}),
		gatherer: gatherer,
	}
}

// Handler serves the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
