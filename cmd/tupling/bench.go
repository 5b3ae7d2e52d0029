package main

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"umd-lhcb/tupling/pkg/boolean/eval"
	"umd-lhcb/tupling/pkg/cli"
)

var benchFlags struct {
	data       []string
	tree       string
	iterations int
	cold       bool
	progress   bool
	format     string
}

var benchCmd = &cobra.Command{
	Use:   "bench <expression>",
	Short: "Time repeated evaluation of an expression",
	Long: `Evaluate an expression repeatedly and report latency percentiles.

By default one evaluator is reused, so branches are fetched and the expression
is parsed once and later iterations measure evaluation alone. With --cold every
iteration starts from a fresh evaluator and pays for parsing and fetching.

Examples:
  # Warm evaluation of a cut
  tupling bench "Y_PT > 2000 & muplus_isMuon" --data ntuple.yaml

  # Include fetch cost, 1000 iterations
  tupling bench "ETA(mu_P, mu_PZ) > 2" --data ntuple.db --cold --iterations 1000`,
	Args: cobra.ExactArgs(1),
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)

	benchCmd.Flags().StringSliceVarP(&benchFlags.data, "data", "d", nil, "data files (uses config if not specified)")
	benchCmd.Flags().StringVarP(&benchFlags.tree, "tree", "t", "", "tree name (uses config if not specified)")
	benchCmd.Flags().IntVarP(&benchFlags.iterations, "iterations", "n", 100, "number of evaluations")
	benchCmd.Flags().BoolVar(&benchFlags.cold, "cold", false, "use a fresh evaluator for every iteration")
	benchCmd.Flags().BoolVar(&benchFlags.progress, "progress", false, "report progress on stderr")
	benchCmd.Flags().StringVar(&benchFlags.format, "format", "text", "output format: text, json, yaml, csv, markdown")
}

// benchReport summarizes a benchmark.
type benchReport struct {
	Expression string  `json:"expression" yaml:"expression"`
	Tree       string  `json:"tree" yaml:"tree"`
	Iterations int     `json:"iterations" yaml:"iterations"`
	Cold       bool    `json:"cold" yaml:"cold"`
	Fetches    int     `json:"fetches" yaml:"fetches"`
	TotalMS    float64 `json:"total_ms" yaml:"total_ms"`
	Throughput float64 `json:"evals_per_second" yaml:"evals_per_second"`
	MinMS      float64 `json:"min_ms" yaml:"min_ms"`
	MeanMS     float64 `json:"mean_ms" yaml:"mean_ms"`
	MedianMS   float64 `json:"median_ms" yaml:"median_ms"`
	P95MS      float64 `json:"p95_ms" yaml:"p95_ms"`
	P99MS      float64 `json:"p99_ms" yaml:"p99_ms"`
	MaxMS      float64 `json:"max_ms" yaml:"max_ms"`
}

// Table implements cli.Tabular.
func (r *benchReport) Table() cli.Table {
	ms := func(v float64) string { return strconv.FormatFloat(v, 'f', 3, 64) + "ms" }
	return cli.Table{
		Headers:    []string{"Metric", "Value"},
		RightAlign: []bool{false, true},
		Rows: [][]string{
			{"Iterations", strconv.Itoa(r.Iterations)},
			{"Branch fetches", strconv.Itoa(r.Fetches)},
			{"Total", ms(r.TotalMS)},
			{"Throughput", fmt.Sprintf("%.1f evals/s", r.Throughput)},
			{"Min", ms(r.MinMS)},
			{"Mean", ms(r.MeanMS)},
			{"Median", ms(r.MedianMS)},
			{"p95", ms(r.P95MS)},
			{"p99", ms(r.P99MS)},
			{"Max", ms(r.MaxMS)},
		},
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	expr := args[0]

	formatter, err := outputFormat(benchFlags.format)
	if err != nil {
		return err
	}
	if benchFlags.iterations <= 0 {
		return cli.NewConfigError("iterations", "must be positive")
	}

	source, closeData, err := openData(&app.current().Data, benchFlags.data)
	if err != nil {
		return err
	}
	defer closeData()

	tree := firstNonEmpty(benchFlags.tree, app.current().Data.Tree)

	ctx, span := app.tracer.Start(commandContext(cmd), "tupling.bench")
	defer span.End()

	var progress cli.ProgressReporter
	if benchFlags.progress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "evals")
		progress.Start(int64(benchFlags.iterations))
	}

	var (
		ev        *eval.Evaluator
		fetches   int
		latencies = make([]time.Duration, 0, benchFlags.iterations)
	)
	start := time.Now()
	for i := range benchFlags.iterations {
		if ev == nil || benchFlags.cold {
			if ev != nil {
				fetches += ev.Fetches()
			}
			ev = newEvaluator(source, tree)
		}

		t := time.Now()
		if _, err := ev.Eval(ctx, expr); err != nil {
			if progress != nil {
				progress.Error(err)
			}
			return err
		}
		latencies = append(latencies, time.Since(t))

		if progress != nil {
			progress.Update(int64(i + 1))
		}
	}
	total := time.Since(start)
	fetches += ev.Fetches()
	if progress != nil {
		progress.Finish()
	}

	report := summarizeLatencies(latencies, total)
	report.Expression = expr
	report.Tree = tree
	report.Cold = benchFlags.cold
	report.Fetches = fetches
	return formatter.FormatTo(cmd.OutOrStdout(), report)
}

// summarizeLatencies fills the timing fields of a report.
func summarizeLatencies(latencies []time.Duration, total time.Duration) *benchReport {
	r := &benchReport{Iterations: len(latencies), TotalMS: millis(total)}
	if len(latencies) == 0 {
		return r
	}

	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}
	pct := func(p float64) time.Duration {
		return sorted[min(int(float64(len(sorted))*p), len(sorted)-1)]
	}

	r.MinMS = millis(sorted[0])
	r.MaxMS = millis(sorted[len(sorted)-1])
	r.MeanMS = millis(sum / time.Duration(len(sorted)))
	r.MedianMS = millis(sorted[len(sorted)/2])
	r.P95MS = millis(pct(0.95))
	r.P99MS = millis(pct(0.99))
	if total > 0 {
		r.Throughput = float64(len(latencies)) / total.Seconds()
	}
	return r
}

func millis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
