// Package metrics provides Prometheus metrics for expression evaluation and
// cutflow runs.
//
// # Metrics Categories
//
//   - Eval Metrics: bulk fetch count, duration and branches read, evaluation
//     count and duration, branch cache hits
//   - Cutflow Metrics: per-rule input and output gauges, rule efficiency,
//     run count and duration
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	ev := eval.New(source, tree, eval.WithObserver(collector))
//	engine, err := cutflow.NewEngine(
//		cutflow.DefaultEngineConfig().WithObserver(collector),
//		ev, rules.Rules, rules.InitNum, logger,
//	)
//
//	// Batch jobs export to the node exporter textfile collector
//	if err := collector.WriteTextfile("/var/lib/node_exporter/tupling.prom"); err != nil {
//		return err
//	}
//
// # Cardinality
//
// Rule labels are the rule condition text. The collector keeps at most 1000
// distinct tree and rule pairs; further rules are reported under "other".
package metrics
