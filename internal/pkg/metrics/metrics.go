// Package metrics exposes Prometheus metrics for the matching core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	RefreshRuns = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "volunteer_match",
		Subsystem: "ranker",
		Name:      "refresh_runs_total",
		Help:      "Completed batch refresh runs.",
	})

	RefreshFailures = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "volunteer_match",
		Subsystem: "ranker",
		Name:      "refresh_failures_total",
		Help:      "Batch refresh runs that failed and rolled back.",
	})

	RefreshDuration = promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: "volunteer_match",
		Subsystem: "ranker",
		Name:      "refresh_duration_seconds",
		Help:      "Wall time of a full batch refresh.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	MatchesInserted = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "volunteer_match",
		Subsystem: "ranker",
		Name:      "matches_inserted",
		Help:      "Match records written by the last completed refresh.",
	})

	EnrollmentTransitions = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "volunteer_match",
		Subsystem: "enrollment",
		Name:      "transitions_total",
		Help:      "Applied enrollment state transitions by action.",
	}, []string{"action"})

	CacheHits = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "volunteer_match",
		Subsystem: "match_cache",
		Name:      "hits_total",
		Help:      "Top-N reads served from the redis layer.",
	})

	CacheMisses = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "volunteer_match",
		Subsystem: "match_cache",
		Name:      "misses_total",
		Help:      "Top-N reads that fell through to Postgres.",
	})

	FallbackComputations = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "volunteer_match",
		Subsystem: "ranker",
		Name:      "fallback_computations_total",
		Help:      "On-demand degraded scoring runs taken because the cache was empty.",
	})
)

// ObserveRefresh records one refresh outcome.
func ObserveRefresh(d time.Duration, inserted int64, err error) {
	if err != nil {
		RefreshFailures.Inc()
		return
	}
	RefreshRuns.Inc()
	RefreshDuration.Observe(d.Seconds())
	MatchesInserted.Set(float64(inserted))
}

// Handler serves the registry for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
