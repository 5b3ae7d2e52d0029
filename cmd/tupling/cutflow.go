package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"umd-lhcb/tupling/pkg/cli"
	"umd-lhcb/tupling/pkg/config"
	"umd-lhcb/tupling/pkg/cutflow"
	"umd-lhcb/tupling/pkg/cutflow/rulesrepo"
	"umd-lhcb/tupling/pkg/cutflow/store"
	"umd-lhcb/tupling/pkg/telemetry/logging"
	"umd-lhcb/tupling/pkg/telemetry/tracing"
)

var cutflowFlags struct {
	rules          string
	data           []string
	tree           string
	initNum        int64
	format         string
	strict         bool
	unique         bool
	dropDuplicates bool
	watch          bool
	progress       bool
	record         bool
	metricsFile    string
	metricsAddr    string
	repo           string
	revision       string
}

var cutflowCmd = &cobra.Command{
	Use:   "cutflow",
	Short: "Run a cutflow",
	Long: `Run an ordered list of selection rules and print the cutflow table.

Each rule's input is the output of the rule it is compared to (the previous
rule unless compare_to says otherwise) and its output is the number of events
passing both. Explicit rules are counted on their own.

Examples:
  # Run the rules file against a YAML fixture
  tupling cutflow --rules cuts.yaml --data ntuple.yaml

  # Count unique (run, event) pairs instead of entries
  tupling cutflow --rules cuts.yaml --data ntuple.db --unique

  # Re-run whenever the rules or data change, serving metrics
  tupling cutflow --rules cuts.yaml --data ntuple.yaml --watch --metrics-addr :9090

  # Markdown table for a merge request
  tupling cutflow --rules cuts.yaml --data ntuple.yaml --format markdown

  # Rules from a git repository, pinned to a commit
  tupling cutflow --repo https://github.com/umd-lhcb/cuts.git --rules b0/cuts.yaml \
    --data ntuple.yaml --revision 3f2a9c1`,
	Args: cobra.NoArgs,
	RunE: runCutflow,
}

func init() {
	rootCmd.AddCommand(cutflowCmd)

	cutflowCmd.Flags().StringVarP(&cutflowFlags.rules, "rules", "r", "", "rules file, or its path inside --repo (uses config if not specified)")
	cutflowCmd.Flags().StringSliceVarP(&cutflowFlags.data, "data", "d", nil, "data files (uses config if not specified)")
	cutflowCmd.Flags().StringVarP(&cutflowFlags.tree, "tree", "t", "", "tree name (overrides the rules file)")
	cutflowCmd.Flags().Int64Var(&cutflowFlags.initNum, "init-num", 0, "input count of the first rule (default: rules file, config, or tree size)")
	cutflowCmd.Flags().StringVar(&cutflowFlags.format, "format", "text", "output format: text, json, yaml, csv, markdown")
	cutflowCmd.Flags().BoolVar(&cutflowFlags.strict, "strict", false, "fail on references that do not point at an earlier rule")
	cutflowCmd.Flags().BoolVar(&cutflowFlags.unique, "unique", false, "count unique (run, event) pairs")
	cutflowCmd.Flags().BoolVar(&cutflowFlags.dropDuplicates, "drop-duplicates", false, "with --unique, only count pairs that occur once")
	cutflowCmd.Flags().BoolVarP(&cutflowFlags.watch, "watch", "w", false, "re-run when the rules, data or config files change")
	cutflowCmd.Flags().BoolVar(&cutflowFlags.progress, "progress", false, "report rule progress on stderr")
	cutflowCmd.Flags().BoolVar(&cutflowFlags.record, "record", false, "record the run in the run store (uses config if not specified)")
	cutflowCmd.Flags().StringVar(&cutflowFlags.metricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")
	cutflowCmd.Flags().StringVar(&cutflowFlags.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address in watch mode")
	cutflowCmd.Flags().StringVar(&cutflowFlags.repo, "repo", "", "git repository holding the rules file (uses config if not specified)")
	cutflowCmd.Flags().StringVar(&cutflowFlags.revision, "revision", "", "with a rules repository, the commit to check out")
}

// cutflowReport is the printed outcome of one run.
type cutflowReport struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	Tree       string        `json:"tree" yaml:"tree"`
	RulesFile  string        `json:"rules_file" yaml:"rules_file"`
	Revision   string        `json:"revision,omitempty" yaml:"revision,omitempty"`
	InitNum    int64         `json:"init_num" yaml:"init_num"`
	DurationMS int64         `json:"duration_ms" yaml:"duration_ms"`
	Steps      []cutflow.Row `json:"steps" yaml:"steps"`
}

// Table implements cli.Tabular.
func (r *cutflowReport) Table() cli.Table {
	return rowsTable(r.Steps)
}

// rowsTable renders cutflow rows. Named rules are shown by name.
func rowsTable(rows []cutflow.Row) cli.Table {
	t := cli.Table{
		Headers:    []string{"Cut", "Input", "Output", "Efficiency"},
		RightAlign: []bool{false, true, true, true},
		Rows:       make([][]string, len(rows)),
	}
	for i, row := range rows {
		label := row.Key
		if row.Name != "" {
			label = row.Name
		}
		t.Rows[i] = []string{
			label,
			strconv.FormatInt(row.Input, 10),
			strconv.FormatInt(row.Output, 10),
			fmt.Sprintf("%.2f%%", 100*row.Efficiency),
		}
	}
	return t
}

// cutflowRunner loads the rules and data and runs the engine. It is invoked
// once, or once per change in watch mode.
type cutflowRunner struct {
	cfg      config.CutflowConfig
	data     []string
	storage  store.Storage
	repo     *rulesrepo.Repository
	progress io.Writer
}

func (r *cutflowRunner) run(ctx context.Context) (*cutflowReport, error) {
	set, err := cutflow.LoadRules(r.cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	source, closeData, err := openData(&app.current().Data, r.data)
	if err != nil {
		return nil, err
	}
	defer closeData()

	tree := firstNonEmpty(cutflowFlags.tree, set.Tree, app.current().Data.Tree)
	if tree == "" {
		return nil, cli.NewConfigError("data.tree", "no tree given by --tree, the rules file or the config")
	}

	ctx = logging.WithTree(logging.WithRulesFile(ctx, r.cfg.RulesFile), tree)
	ctx, span := app.tracer.Start(ctx, "tupling.cutflow", tracing.NewAttributeBuilder().
		WithCommand("cutflow").
		WithTree(tree).
		WithRulesFile(r.cfg.RulesFile).
		WithDataSources(r.data).
		Build())
	defer span.End()

	ev := newEvaluator(source, tree)

	initNum := firstPositive(cutflowFlags.initNum, set.InitNum, r.cfg.InitNum)
	if initNum == 0 {
		entries, err := ev.Entries(ctx)
		if err != nil {
			tracing.SetError(span, err)
			return nil, fmt.Errorf("failed to size tree %q: %w", tree, err)
		}
		initNum = int64(entries)
	}

	var obs fanout = []cutflow.Observer{app.metrics}
	if r.progress != nil {
		p := newProgressObserver(r.progress)
		p.reporter.Start(int64(len(set.Rules)))
		obs = append(obs, p)
	}

	engineCfg := cutflow.DefaultEngineConfig().
		WithReferenceMode(cutflow.ReferenceMode(r.cfg.ReferenceMode)).
		WithRegulator(newRegulator(&r.cfg)).
		WithObserver(obs)
	if r.cfg.MaxRules > 0 {
		engineCfg.MaxRules = r.cfg.MaxRules
	}
	if r.storage != nil {
		engineCfg.WithRecorder(store.NewRecorder(r.storage, set.Rules, &store.RecorderConfig{
			Enabled:      true,
			Source:       strings.Join(r.data, ","),
			WriteTimeout: 5 * time.Second,
		}, app.logger.Slog()))
	}

	engine, err := cutflow.NewEngine(engineCfg, ev, set.Rules, initNum, app.logger.Slog())
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}

	result, err := engine.Run(ctx)
	if err != nil {
		tracing.SetError(span, err)
		return nil, err
	}
	tracing.SetRunAttributes(span, result.RunID, result.Tree, len(set.Rules))

	app.logger.InfoContext(logging.WithRunID(ctx, result.RunID), "cutflow finished",
		"rules", len(set.Rules),
		"init_num", initNum,
	)

	report := &cutflowReport{
		RunID:      result.RunID,
		Tree:       result.Tree,
		RulesFile:  r.cfg.RulesFile,
		InitNum:    result.InitNum,
		DurationMS: result.Duration().Milliseconds(),
		Steps:      result.Table(),
	}
	if r.repo != nil {
		commit, err := r.repo.CurrentCommit()
		if err != nil {
			return nil, err
		}
		report.Revision = commit.SHA
	}
	return report, nil
}

func runCutflow(cmd *cobra.Command, args []string) error {
	formatter, err := outputFormat(cutflowFlags.format)
	if err != nil {
		return err
	}

	cfg := app.cfg.Cutflow
	switch {
	case cutflowFlags.repo != "":
		cfg.Repo.URL = cutflowFlags.repo
		if cutflowFlags.rules != "" {
			cfg.Repo.Path = cutflowFlags.rules
		}
	case cutflowFlags.rules != "":
		cfg.RulesFile = cutflowFlags.rules
		cfg.Repo.URL = ""
	}
	if cutflowFlags.revision != "" {
		cfg.Repo.Revision = cutflowFlags.revision
	}
	if cfg.Repo.URL == "" && cfg.RulesFile == "" {
		return cli.NewConfigError("cutflow.rules_file", "no rules file given by --rules, --repo or the config")
	}
	if cutflowFlags.strict {
		cfg.ReferenceMode = string(cutflow.ReferenceStrict)
	}
	if cutflowFlags.unique {
		cfg.Regulator = "unique"
	}
	if cutflowFlags.dropDuplicates {
		cfg.Unique.DropDuplicates = true
	}
	if cutflowFlags.watch {
		cfg.Watch.Enabled = true
	}
	if cutflowFlags.metricsFile != "" {
		app.cfg.Telemetry.Metrics.Enabled = true
		app.cfg.Telemetry.Metrics.TextfilePath = cutflowFlags.metricsFile
	}

	data := cutflowFlags.data
	if len(data) == 0 {
		data = app.cfg.Data.Paths
	}

	ctx, stop := cli.SetupSignalHandler(tracing.ExtractFromEnv(commandContext(cmd)))
	defer stop()

	var repo *rulesrepo.Repository
	if cfg.Repo.URL != "" {
		if repo, err = syncRules(ctx, &cfg); err != nil {
			return err
		}
	}

	runner := &cutflowRunner{cfg: cfg, data: data, repo: repo}
	if cutflowFlags.progress {
		runner.progress = cmd.ErrOrStderr()
	}

	record := app.cfg.Storage.Enabled
	if flagChanged(cmd, "record") {
		record = cutflowFlags.record
	}
	var pruner *store.Pruner
	if record {
		st, err := openStorage(&app.cfg.Storage)
		if err != nil {
			return err
		}
		defer st.Close()
		runner.storage = st
		pruner = store.NewPruner(st, retentionConfig(&app.cfg.Storage.Retention), app.logger.Slog())
	}

	out := cmd.OutOrStdout()
	report, err := runner.run(ctx)
	if err != nil && !cfg.Watch.Enabled {
		return err
	}
	if err != nil {
		app.logger.Error("cutflow failed", "error", err)
	} else if err := formatter.FormatTo(out, report); err != nil {
		return err
	}

	if !cfg.Watch.Enabled {
		if pruner != nil {
			if _, err := pruner.Prune(ctx); err != nil {
				app.logger.Warn("failed to prune recorded runs", "error", err)
			}
		}
		return nil
	}

	return watchCutflow(ctx, cfg, data, runner, pruner, func(report *cutflowReport) error {
		fmt.Fprintln(out)
		return formatter.FormatTo(out, report)
	})
}

// watchCutflow re-runs the cutflow whenever the rules, data or config files
// change, until ctx is cancelled. Rules from a repository are polled for new
// commits instead of watched on disk. A changed config file is reloaded
// before the re-run; the flags and cutflow section captured at startup stay
// fixed.
func watchCutflow(ctx context.Context, cfg config.CutflowConfig, data []string, runner *cutflowRunner, pruner *store.Pruner, emit func(*cutflowReport) error) error {
	if cutflowFlags.metricsAddr != "" {
		srv := &http.Server{
			Addr:              cutflowFlags.metricsAddr,
			Handler:           metricsMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				app.logger.Error("metrics server failed", "addr", srv.Addr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		app.logger.Info("serving metrics", "addr", srv.Addr)
	}

	if pruner != nil {
		if err := pruner.Start(ctx); err != nil {
			return err
		}
		defer pruner.Stop()
	}

	var mu sync.Mutex
	rerun := func(ctx context.Context) error {
		mu.Lock()
		defer mu.Unlock()

		report, err := runner.run(ctx)
		if err != nil {
			return err
		}
		if err := app.tracer.ForceFlush(ctx); err != nil {
			app.logger.Warn("failed to flush spans", "error", err)
		}
		return emit(report)
	}

	paths := slices.Clone(data)
	if runner.repo == nil {
		paths = append([]string{cfg.RulesFile}, data...)
	} else {
		pollCtx, cancel := context.WithCancel(ctx)
		poller := rulesrepo.NewPoller(runner.repo, cfg.Repo.PollInterval, app.logger.Slog())
		done := make(chan struct{})
		go func() {
			defer close(done)
			poller.Poll(pollCtx, func(ctx context.Context, _ *rulesrepo.SyncResult) error {
				return rerun(ctx)
			})
		}()
		defer func() {
			cancel()
			<-done
		}()
	}

	if app.cfgPath != "" {
		paths = append(paths, app.cfgPath)
	}
	if len(paths) == 0 {
		<-ctx.Done()
		return nil
	}

	watcher, err := cutflow.NewWatcher(&cutflow.WatcherConfig{
		Paths:            paths,
		DebounceInterval: cfg.Watch.DebounceInterval,
	}, app.logger.Slog())
	if err != nil {
		return err
	}

	return watcher.Watch(ctx, func(ctx context.Context, path string) error {
		if _, err := reloadConfig(path); err != nil {
			return err
		}
		return rerun(ctx)
	})
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.metrics.Handler())
	return mux
}

// fanout notifies several observers.
type fanout []cutflow.Observer

func (f fanout) ObserveRule(tree, key string, input, output int64, duration time.Duration) {
	for _, o := range f {
		o.ObserveRule(tree, key, input, output, duration)
	}
}

func (f fanout) ObserveRun(tree string, rules int, duration time.Duration, err error) {
	for _, o := range f {
		o.ObserveRun(tree, rules, duration, err)
	}
}

// progressObserver reports finished rules.
type progressObserver struct {
	reporter cli.ProgressReporter
	done     int64
}

func newProgressObserver(w io.Writer) *progressObserver {
	return &progressObserver{reporter: cli.NewProgressReporter(w, "rules")}
}

func (p *progressObserver) ObserveRule(tree, key string, input, output int64, duration time.Duration) {
	p.done++
	p.reporter.Update(p.done)
}

func (p *progressObserver) ObserveRun(tree string, rules int, duration time.Duration, err error) {
	if err != nil {
		p.reporter.Error(err)
		return
	}
	p.reporter.Finish()
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int64) int64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
