package selection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	selectionRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_requests_total",
			Help: "Total number of selection requests by algorithm and outcome",
		},
		[]string{"algorithm", "outcome"}, // "ok", "insufficient_pool", "unknown_algorithm", "invalid", "error"
	)

	selectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "selection_duration_seconds",
			Help:    "Duration of selection calls in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"algorithm"},
	)

	selectionOverlapUsed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "selection_overlap_used",
			Help:    "Number of previously seen items per selection result",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	historyFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "selection_history_fallbacks_total",
			Help: "Selections that continued with empty history because the history source failed",
		},
	)

	historyBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "selection_history_breaker_state",
			Help: "History source circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	recorderFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_recorder_failures_total",
			Help: "Usage recorder failures by operation",
		},
		[]string{"operation"}, // "bump_usage", "record_audit"
	)

	catalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_catalog_cache_lookups_total",
			Help: "Catalog snapshot cache lookups by result",
		},
		[]string{"result"}, // "hit", "miss", "error"
	)
)
