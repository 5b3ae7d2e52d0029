package metrics

import (
	"time"

	"umd-lhcb/tupling/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EvalMetrics tracks expression evaluation and branch fetching.
//
// Metrics:
//   - tupling_eval_fetches_total: Bulk fetches by tree and status
//   - tupling_eval_fetch_duration_seconds: Bulk fetch duration by tree
//   - tupling_eval_fetched_branches_total: Branches read by tree
//   - tupling_eval_evaluations_total: Evaluations by status
//   - tupling_eval_duration_seconds: Evaluation duration
//   - tupling_eval_cache_hits_total: Variable references served from the cache
type EvalMetrics struct {
	fetchesTotal     *prometheus.CounterVec
	fetchDuration    *prometheus.HistogramVec
	branchesTotal    *prometheus.CounterVec
	evaluationsTotal *prometheus.CounterVec
	evalDuration     prometheus.Histogram
	cacheHitsTotal   prometheus.Counter
}

// NewEvalMetrics creates and registers evaluator metrics with the provided registry.
func NewEvalMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EvalMetrics {
	em := &EvalMetrics{
		fetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "eval",
				Name:      "fetches_total",
				Help:      "Total number of bulk branch fetches",
			},
			[]string{"tree", "status"},
		),

		fetchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "eval",
				Name:      "fetch_duration_seconds",
				Help:      "Duration of bulk branch fetches in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"tree"},
		),

		branchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "eval",
				Name:      "fetched_branches_total",
				Help:      "Total number of branches read from ntuple trees",
			},
			[]string{"tree"},
		),

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "eval",
				Name:      "evaluations_total",
				Help:      "Total number of expression evaluations",
			},
			[]string{"status"},
		),

		evalDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "eval",
				Name:      "duration_seconds",
				Help:      "Duration of expression evaluations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
		),

		cacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "eval",
				Name:      "cache_hits_total",
				Help:      "Total number of variable references served from the branch cache",
			},
		),
	}

	registry.MustRegister(
		em.fetchesTotal,
		em.fetchDuration,
		em.branchesTotal,
		em.evaluationsTotal,
		em.evalDuration,
		em.cacheHitsTotal,
	)

	return em
}

// RecordFetch records one bulk fetch.
func (em *EvalMetrics) RecordFetch(tree string, branches int, duration time.Duration, status string) {
	em.fetchesTotal.WithLabelValues(tree, status).Inc()
	em.fetchDuration.WithLabelValues(tree).Observe(duration.Seconds())
	if branches > 0 {
		em.branchesTotal.WithLabelValues(tree).Add(float64(branches))
	}
}

// RecordEval records one evaluation.
func (em *EvalMetrics) RecordEval(duration time.Duration, cacheHits int, status string) {
	em.evaluationsTotal.WithLabelValues(status).Inc()
	em.evalDuration.Observe(duration.Seconds())
	if cacheHits > 0 {
		em.cacheHitsTotal.Add(float64(cacheHits))
	}
}
