package metrics

import (
	"time"

	"umd-lhcb/tupling/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CutflowMetrics tracks cutflow runs and the counts of their rules.
//
// Metrics:
//   - tupling_cutflow_rule_input_events: Events entering a rule in the last run
//   - tupling_cutflow_rule_output_events: Events passing a rule in the last run
//   - tupling_cutflow_rule_efficiency: Output over input of a rule in the last run
//   - tupling_cutflow_rule_duration_seconds: Rule evaluation duration
//   - tupling_cutflow_runs_total: Runs by tree and status
//   - tupling_cutflow_run_duration_seconds: Run duration
//   - tupling_cutflow_rules: Number of rules in the last run
type CutflowMetrics struct {
	ruleInput    *prometheus.GaugeVec
	ruleOutput   *prometheus.GaugeVec
	efficiency   *prometheus.GaugeVec
	ruleDuration *prometheus.HistogramVec
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	rules        *prometheus.GaugeVec
}

// NewCutflowMetrics creates and registers cutflow metrics with the provided registry.
func NewCutflowMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CutflowMetrics {
	cm := &CutflowMetrics{
		ruleInput: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "cutflow",
				Name:      "rule_input_events",
				Help:      "Events entering the rule in the most recent run",
			},
			[]string{"tree", "rule"},
		),

		ruleOutput: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "cutflow",
				Name:      "rule_output_events",
				Help:      "Events passing the rule in the most recent run",
			},
			[]string{"tree", "rule"},
		),

		efficiency: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "cutflow",
				Name:      "rule_efficiency",
				Help:      "Ratio of output to input events of the rule in the most recent run",
			},
			[]string{"tree", "rule"},
		),

		ruleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "cutflow",
				Name:      "rule_duration_seconds",
				Help:      "Duration of rule evaluations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"tree"},
		),

		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "cutflow",
				Name:      "runs_total",
				Help:      "Total number of cutflow runs",
			},
			[]string{"tree", "status"},
		),

		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "cutflow",
				Name:      "run_duration_seconds",
				Help:      "Duration of cutflow runs in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"tree"},
		),

		rules: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "cutflow",
				Name:      "rules",
				Help:      "Number of rules in the most recent run",
			},
			[]string{"tree"},
		),
	}

	registry.MustRegister(
		cm.ruleInput,
		cm.ruleOutput,
		cm.efficiency,
		cm.ruleDuration,
		cm.runsTotal,
		cm.runDuration,
		cm.rules,
	)

	return cm
}

// RecordRule records the counts of one rule.
func (cm *CutflowMetrics) RecordRule(tree, rule string, input, output int64, duration time.Duration) {
	cm.ruleInput.WithLabelValues(tree, rule).Set(float64(input))
	cm.ruleOutput.WithLabelValues(tree, rule).Set(float64(output))
	if input > 0 {
		cm.efficiency.WithLabelValues(tree, rule).Set(float64(output) / float64(input))
	}
	cm.ruleDuration.WithLabelValues(tree).Observe(duration.Seconds())
}

// RecordRun records a run outcome.
func (cm *CutflowMetrics) RecordRun(tree string, rules int, duration time.Duration, status string) {
	cm.runsTotal.WithLabelValues(tree, status).Inc()
	cm.runDuration.WithLabelValues(tree).Observe(duration.Seconds())
	if status == "success" {
		cm.rules.WithLabelValues(tree).Set(float64(rules))
	}
}
