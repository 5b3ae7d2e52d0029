package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"umd-lhcb/tupling/pkg/boolean/eval"
	"umd-lhcb/tupling/pkg/boolean/parser"
	"umd-lhcb/tupling/pkg/boolean/value"
	"umd-lhcb/tupling/pkg/cli"
	"umd-lhcb/tupling/pkg/config"
	"umd-lhcb/tupling/pkg/cutflow"
	"umd-lhcb/tupling/pkg/cutflow/rulesrepo"
	"umd-lhcb/tupling/pkg/cutflow/store"
	"umd-lhcb/tupling/pkg/ntuple"
	"umd-lhcb/tupling/pkg/telemetry/logging"
	"umd-lhcb/tupling/pkg/telemetry/metrics"
	"umd-lhcb/tupling/pkg/telemetry/tracing"
)

// application holds what every subcommand shares. It is built by setup
// before a subcommand runs and torn down after it.
type application struct {
	cfg     *config.Config
	cfgPath string
	logger  *logging.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
}

// current returns the active configuration. It differs from a.cfg only
// after a reload; telemetry keeps the settings it was built with.
func (a *application) current() *config.Config {
	if cfg := config.GetConfig(); cfg != nil {
		return cfg
	}
	return a.cfg
}

var app *application

// setup loads configuration and initializes telemetry.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, cmd.ErrOrStderr()))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger.Slog())

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithVersion(Version))
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}

	config.SetConfig(cfg)
	app = &application{
		cfg:     cfg,
		cfgPath: path,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Telemetry.Metrics, nil),
		tracer:  tracer,
	}
	return nil
}

// teardown flushes telemetry.
func teardown(ctx context.Context) error {
	if app == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	if path := app.cfg.Telemetry.Metrics.TextfilePath; path != "" && app.cfg.Telemetry.Metrics.Enabled {
		errs = append(errs, app.metrics.WriteTextfile(path))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	errs = append(errs, app.tracer.Shutdown(shutdownCtx))

	return errors.Join(errs...)
}

// loadConfig reads --config with environment overrides. The default file
// is optional; an explicitly named one must exist. The returned path is
// empty when the defaults were used.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path := cfgFile
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !flagChanged(cmd, "config") {
		path = ""
	}

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, "", cli.NewConfigError("config", err.Error())
	}
	return cfg, path, nil
}

// reloadConfig re-reads the config file when changed names it. It reports
// whether a reload was attempted; on error the previous configuration stays
// active.
func reloadConfig(changed string) (bool, error) {
	if app.cfgPath == "" || !samePath(changed, app.cfgPath) {
		return false, nil
	}

	cfg, err := config.ReloadConfig(app.cfgPath)
	if err != nil {
		return true, cli.NewConfigError("config", err.Error())
	}
	app.logger.Info("configuration reloaded",
		"path", app.cfgPath,
		"symbols", len(cfg.Evaluator.Symbols),
	)
	return true, nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// dataFormat returns the format of a data file, from the configured format
// or the file extension.
func dataFormat(path, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml", nil
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite", nil
	default:
		return "", cli.NewConfigError("data", fmt.Sprintf("cannot infer the format of %q; set data.format", path))
	}
}

// openData opens every data file and concatenates them. The returned close
// function releases database handles.
func openData(cfg *config.DataConfig, paths []string) (ntuple.Source, func() error, error) {
	if len(paths) == 0 {
		paths = cfg.Paths
	}
	if len(paths) == 0 {
		return nil, func() error { return nil }, nil
	}

	var (
		sources []ntuple.Source
		closers []io.Closer
	)
	closeAll := func() error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c.Close())
		}
		return errors.Join(errs...)
	}

	for _, path := range paths {
		format, err := dataFormat(path, cfg.Format)
		if err != nil {
			closeAll()
			return nil, nil, err
		}

		switch format {
		case "yaml":
			src, err := ntuple.LoadYAML(path)
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			sources = append(sources, src)
		case "sqlite":
			src, err := ntuple.NewSQLiteSource(&ntuple.SQLiteConfig{
				Path:        path,
				Driver:      cfg.SQLite.Driver,
				BusyTimeout: cfg.SQLite.BusyTimeout,
			})
			if err != nil {
				closeAll()
				return nil, nil, err
			}
			sources = append(sources, src)
			closers = append(closers, src)
		}
	}

	if len(sources) == 1 {
		return sources[0], closeAll, nil
	}
	return ntuple.NewConcatSource(sources...), closeAll, nil
}

// newEvaluator builds an evaluator with the configured extra constants.
func newEvaluator(source ntuple.Source, tree string) *eval.Evaluator {
	symbols := app.current().Evaluator.Symbols
	extra := make(eval.Symbols, len(symbols))
	for name, v := range symbols {
		extra[name] = value.Float(v)
	}

	return eval.New(source, tree,
		eval.WithSymbols(eval.DefaultSymbols().Merge(extra)),
		eval.WithParser(newParser()),
		eval.WithLogger(app.logger.Slog()),
		eval.WithObserver(app.metrics),
	)
}

func newParser() *parser.Parser {
	p := parser.NewParser()
	if depth := app.current().Evaluator.MaxDepth; depth > 0 {
		p = p.WithMaxDepth(depth)
	}
	return p
}

// newRegulator builds the count regulator named in the configuration.
func newRegulator(cfg *config.CutflowConfig) cutflow.CountRegulator {
	if cfg.Regulator == "unique" {
		return cutflow.UniqueEvents{
			RunBranch:      cfg.Unique.RunBranch,
			EventBranch:    cfg.Unique.EventBranch,
			DropDuplicates: cfg.Unique.DropDuplicates,
		}
	}
	return cutflow.SumRegulator{}
}

// openStorage opens the run store named in the configuration.
func openStorage(cfg *config.StorageConfig) (store.Storage, error) {
	switch cfg.Backend {
	case "memory":
		return store.NewMemoryStorage(), nil
	default:
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create storage directory: %w", err)
			}
		}
		return store.NewSQLiteStorage(&store.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			Driver:       cfg.SQLite.Driver,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		}, app.logger.Slog())
	}
}

// retentionConfig converts the configured retention policy.
func retentionConfig(cfg *config.RetentionConfig) *store.RetentionConfig {
	return &store.RetentionConfig{
		RetentionDays:       cfg.Days,
		PruneSchedule:       cfg.PruneSchedule,
		ArchiveBeforeDelete: cfg.ArchiveBeforeDelete,
		ArchivePath:         cfg.ArchivePath,
		MaxRuns:             cfg.MaxRuns,
	}
}

// outputFormat parses a --format flag into a formatter.
func outputFormat(flag string) (cli.Formatter, error) {
	format, err := cli.ParseFormat(flag)
	if err != nil {
		return nil, err
	}
	return cli.NewFormatter(format), nil
}

// syncRules clones or pulls the configured rules repository and points
// cfg.RulesFile at the rules file in its working tree.
func syncRules(ctx context.Context, cfg *config.CutflowConfig) (*rulesrepo.Repository, error) {
	repo, err := rulesrepo.NewRepository(&cfg.Repo, app.logger.Slog())
	if err != nil {
		return nil, cli.NewConfigError("cutflow.repo", err.Error())
	}
	if _, err := repo.Sync(ctx); err != nil {
		return nil, err
	}
	cfg.RulesFile = repo.RulesFile()
	return repo, nil
}
