package config

import "time"

// Config is the root configuration structure for tupling.
type Config struct {
	// Data selects the ntuple source that expressions and cutflows read.
	Data DataConfig `yaml:"data"`

	// Evaluator contains expression evaluator settings.
	Evaluator EvaluatorConfig `yaml:"evaluator"`

	// Cutflow contains cutflow engine settings.
	Cutflow CutflowConfig `yaml:"cutflow"`

	// Storage contains configuration for recording cutflow runs.
	Storage StorageConfig `yaml:"storage"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DataConfig describes where branches are read from.
type DataConfig struct {
	// Paths are the ntuple files. Several files are concatenated entry-wise.
	Paths []string `yaml:"paths"`

	// Format is the file format: "yaml" or "sqlite". Empty means detect
	// from the file extension (.yaml/.yml or .db/.sqlite).
	Format string `yaml:"format"`

	// Tree is the tree to read.
	// Default: "TupleB0/DecayTree"
	Tree string `yaml:"tree"`

	// SQLite contains settings for SQLite ntuple files.
	SQLite DataSQLiteConfig `yaml:"sqlite"`
}

// DataSQLiteConfig contains settings for SQLite ntuple files.
type DataSQLiteConfig struct {
	// Driver is "sqlite" (modernc.org/sqlite) or "sqlite3" (mattn/go-sqlite3).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// EvaluatorConfig contains expression evaluator settings.
type EvaluatorConfig struct {
	// MaxDepth bounds expression nesting.
	// Default: 256
	MaxDepth int `yaml:"max_depth"`

	// Symbols are extra named constants, merged over the built-in ones.
	Symbols map[string]float64 `yaml:"symbols"`
}

// CutflowConfig contains cutflow engine settings.
type CutflowConfig struct {
	// RulesFile is the YAML rules file.
	RulesFile string `yaml:"rules_file"`

	// InitNum is the input count of the first rule when the rules file does
	// not set one.
	InitNum int64 `yaml:"init_num"`

	// ReferenceMode is "permissive" or "strict".
	// Default: "permissive"
	ReferenceMode string `yaml:"reference_mode"`

	// MaxRules bounds the number of rules.
	// Default: 1000
	MaxRules int `yaml:"max_rules"`

	// Regulator selects how masks are counted: "sum" or "unique".
	// Default: "sum"
	Regulator string `yaml:"regulator"`

	// Unique configures the "unique" regulator.
	Unique UniqueConfig `yaml:"unique"`

	// Watch configures re-running on file changes.
	Watch WatchConfig `yaml:"watch"`

	// Repo fetches the rules file from a git repository.
	Repo RulesRepoConfig `yaml:"repo"`
}

// RulesRepoConfig configures a git repository holding the rules file. It is
// used when URL is set, and RulesFile is then ignored.
type RulesRepoConfig struct {
	// URL is the repository to clone (https, ssh or a local path).
	URL string `yaml:"url"`

	// Branch is the branch to track.
	// Default: "main"
	Branch string `yaml:"branch"`

	// Path is the rules file relative to the repository root.
	Path string `yaml:"path"`

	// Revision pins a commit SHA instead of the branch head.
	Revision string `yaml:"revision"`

	// LocalPath is where the repository is cloned.
	// Default: "data/rules-repo"
	LocalPath string `yaml:"local_path"`

	// Depth limits the clone history. Zero clones everything.
	Depth int `yaml:"depth"`

	// Timeout bounds each clone or pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// PollInterval is how often watch mode pulls the repository.
	// Default: 1m
	PollInterval time.Duration `yaml:"poll_interval"`

	// Auth configures repository credentials.
	Auth RulesRepoAuthConfig `yaml:"auth"`
}

// RulesRepoAuthConfig contains git credentials.
type RulesRepoAuthConfig struct {
	// Type is "none", "token" or "ssh".
	// Default: "none"
	Type string `yaml:"type"`

	// Token is an access token for https remotes.
	Token string `yaml:"token"`

	// SSHKeyPath is a private key for ssh remotes.
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase unlocks an encrypted key.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// UniqueConfig configures unique event counting.
type UniqueConfig struct {
	// RunBranch holds the run number.
	// Default: "runNumber"
	RunBranch string `yaml:"run_branch"`

	// EventBranch holds the event number.
	// Default: "eventNumber"
	EventBranch string `yaml:"event_branch"`

	// DropDuplicates counts only identifiers that occur once.
	DropDuplicates bool `yaml:"drop_duplicates"`
}

// WatchConfig configures the rules file watcher.
type WatchConfig struct {
	// Enabled re-runs the cutflow when the rules or data files change.
	Enabled bool `yaml:"enabled"`

	// DebounceInterval is the quiet period before re-running.
	// Default: 200ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// StorageConfig contains configuration for recording cutflow runs.
type StorageConfig struct {
	// Enabled enables run recording.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend settings.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention contains pruning settings.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite run storage configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/cutflow.db"
	Path string `yaml:"path"`

	// Driver is "sqlite" (modernc.org/sqlite) or "sqlite3" (mattn/go-sqlite3).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 4
	MaxOpenConns int `yaml:"max_open_conns"`

	// WALMode enables Write-Ahead Logging mode.
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains run retention configuration.
type RetentionConfig struct {
	// Days is the number of days to keep runs. 0 keeps runs forever.
	// Default: 90
	Days int `yaml:"days"`

	// MaxRuns is the maximum number of runs to keep. 0 means unlimited.
	MaxRuns int64 `yaml:"max_runs"`

	// PruneSchedule is a cron expression for scheduled pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// ArchiveBeforeDelete writes pruned runs to JSON first.
	ArchiveBeforeDelete bool `yaml:"archive_before_delete"`

	// ArchivePath is the archive directory.
	// Default: "data/archives/"
	ArchivePath string `yaml:"archive_path"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// TextfilePath, when set, receives the metrics in Prometheus text format
	// after each cutflow run, for the node exporter textfile collector.
	TextfilePath string `yaml:"textfile_path"`

	// Namespace is the metric name prefix.
	// Default: "tupling"
	Namespace string `yaml:"namespace"`

	// DurationBuckets defines histogram buckets for durations (seconds).
	// Default: [0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Exporter determines the trace exporter to use.
	// Options: "otlp"
	// Default: "otlp"
	Exporter string `yaml:"exporter"`

	// Endpoint is the trace collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "tupling"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
