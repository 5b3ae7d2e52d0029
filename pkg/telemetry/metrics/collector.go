package metrics

import (
	"fmt"
	"sync"
	"time"

	"umd-lhcb/tupling/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// otherLabel replaces label values past the cardinality limit.
const otherLabel = "other"

// Collector owns every Prometheus metric of the tupling tools. It implements
// both the evaluator's and the cutflow engine's Observer interfaces, so one
// collector can be handed to each.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	evalMetrics    *EvalMetrics
	cutflowMetrics *CutflowMetrics

	// Rule keys are free-form expressions; cap their label cardinality.
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "tupling",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		evalMetrics:        NewEvalMetrics(cfg, registry),
		cutflowMetrics:     NewCutflowMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

// ObserveFetch records a bulk branch fetch from an ntuple tree.
func (c *Collector) ObserveFetch(tree string, branches int, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}

	c.evalMetrics.RecordFetch(tree, branches, duration, status(err))
}

// ObserveEval records one expression evaluation.
func (c *Collector) ObserveEval(duration time.Duration, cacheHits int, err error) {
	if !c.config.Enabled {
		return
	}

	c.evalMetrics.RecordEval(duration, cacheHits, status(err))
}

// ObserveRule records the counts of one evaluated cutflow rule.
//
// Parameters:
//   - tree: ntuple tree name
//   - key: rule result key (its condition text)
//   - input: events entering the rule
//   - output: events passing the rule
//   - duration: time spent evaluating the rule
func (c *Collector) ObserveRule(tree, key string, input, output int64, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	if !c.cardinalityLimiter.Allow(fmt.Sprintf("rule:%s:%s", tree, key)) {
		key = otherLabel
	}

	c.cutflowMetrics.RecordRule(tree, key, input, output, duration)
}

// ObserveRun records a completed (or failed) cutflow run.
func (c *Collector) ObserveRun(tree string, rules int, duration time.Duration, err error) {
	if !c.config.Enabled {
		return
	}

	c.cutflowMetrics.RecordRun(tree, rules, duration, status(err))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the current metric values in the text exposition
// format, for pickup by the node exporter textfile collector. The file is
// written atomically.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %q: %w", path, err)
	}
	return nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
