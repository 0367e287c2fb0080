package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Index, search and summary Prometheus metrics.
var (
	IndexRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_records_total",
			Help:      "Bookmark records processed by the indexing pipeline",
		},
		[]string{"outcome"}, // "ok" or a failure kind
	)

	IndexRemovedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_removed_total",
			Help:      "Entries removed by reconciliation or explicit delete",
		},
	)

	IndexPersistErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "index_persist_errors_total",
			Help:      "Write-through persistence failures",
		},
	)

	IndexEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_entries",
			Help:      "Number of entries in the semantic index",
		},
	)

	ANNRebuildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "ann_rebuild_duration_seconds",
			Help:      "Vantage-point tree rebuild duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "End-to-end search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"status"},
	)

	SearchResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 3, 5, 10, 25, 50, 100},
		},
	)

	SummaryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "summary_total",
			Help:      "Summarizer outcomes",
		},
		[]string{"outcome"}, // "ok" / "absent" / "error"
	)
)

var registerEngine sync.Once

// RegisterEngineMetrics adds index, search and summary metrics to the default
// registry. Repeated calls are no-ops.
func RegisterEngineMetrics() {
	registerEngine.Do(func() {
		prometheus.MustRegister(
			IndexRecordsTotal,
			IndexRemovedTotal,
			IndexPersistErrorsTotal,
			IndexEntries,
			ANNRebuildDuration,
			SearchDuration,
			SearchResults,
			SummaryTotal,
		)
	})
}
