package config

import "time"

// Default values for configuration fields.
const (
	// Data defaults
	DefaultDataTree              = "TupleB0/DecayTree"
	DefaultDataSQLiteDriver      = "sqlite"
	DefaultDataSQLiteBusyTimeout = 5 * time.Second

	// Evaluator defaults
	DefaultEvaluatorMaxDepth = 256

	// Cutflow defaults
	DefaultCutflowReferenceMode = "permissive"
	DefaultCutflowMaxRules      = 1000
	DefaultCutflowRegulator     = "sum"
	DefaultCutflowRunBranch     = "runNumber"
	DefaultCutflowEventBranch   = "eventNumber"
	DefaultCutflowWatchDebounce = 200 * time.Millisecond
	DefaultRulesRepoBranch      = "main"
	DefaultRulesRepoLocalPath   = "data/rules-repo"
	DefaultRulesRepoTimeout     = 30 * time.Second
	DefaultRulesRepoPoll        = time.Minute
	DefaultRulesRepoAuthType    = "none"

	// Storage defaults
	DefaultStorageBackend              = "sqlite"
	DefaultStorageSQLitePath           = "data/cutflow.db"
	DefaultStorageSQLiteDriver         = "sqlite"
	DefaultStorageSQLiteMaxOpenConns   = 4
	DefaultStorageSQLiteBusyTimeout    = 5 * time.Second
	DefaultStorageRetentionDays        = 90
	DefaultStorageRetentionSchedule    = "0 3 * * *"
	DefaultStorageRetentionArchivePath = "data/archives/"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "text"
	DefaultMetricsNamespace   = "tupling"
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingExporter    = "otlp"
	DefaultTracingServiceName = "tupling"
	DefaultTracingOTLPTimeout = 10 * time.Second
)

// DefaultDurationBuckets are the default histogram buckets in seconds.
var DefaultDurationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// NewDefaultConfig returns a configuration with every default applied, for
// running without a configuration file.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Data defaults
	if cfg.Data.Tree == "" {
		cfg.Data.Tree = DefaultDataTree
	}
	if cfg.Data.SQLite.Driver == "" {
		cfg.Data.SQLite.Driver = DefaultDataSQLiteDriver
	}
	if cfg.Data.SQLite.BusyTimeout == 0 {
		cfg.Data.SQLite.BusyTimeout = DefaultDataSQLiteBusyTimeout
	}

	// Evaluator defaults
	if cfg.Evaluator.MaxDepth == 0 {
		cfg.Evaluator.MaxDepth = DefaultEvaluatorMaxDepth
	}

	// Cutflow defaults
	if cfg.Cutflow.ReferenceMode == "" {
		cfg.Cutflow.ReferenceMode = DefaultCutflowReferenceMode
	}
	if cfg.Cutflow.MaxRules == 0 {
		cfg.Cutflow.MaxRules = DefaultCutflowMaxRules
	}
	if cfg.Cutflow.Regulator == "" {
		cfg.Cutflow.Regulator = DefaultCutflowRegulator
	}
	if cfg.Cutflow.Unique.RunBranch == "" {
		cfg.Cutflow.Unique.RunBranch = DefaultCutflowRunBranch
	}
	if cfg.Cutflow.Unique.EventBranch == "" {
		cfg.Cutflow.Unique.EventBranch = DefaultCutflowEventBranch
	}
	if cfg.Cutflow.Watch.DebounceInterval == 0 {
		cfg.Cutflow.Watch.DebounceInterval = DefaultCutflowWatchDebounce
	}
	applyRulesRepoDefaults(&cfg.Cutflow.Repo)

	// Storage defaults
	applyStorageDefaults(cfg)

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 && cfg.Telemetry.Tracing.Sampler == DefaultTracingSampler {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Exporter == "" {
		cfg.Telemetry.Tracing.Exporter = DefaultTracingExporter
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultTracingOTLPTimeout
	}
}

func applyRulesRepoDefaults(r *RulesRepoConfig) {
	if r.Branch == "" {
		r.Branch = DefaultRulesRepoBranch
	}
	if r.LocalPath == "" {
		r.LocalPath = DefaultRulesRepoLocalPath
	}
	if r.Timeout == 0 {
		r.Timeout = DefaultRulesRepoTimeout
	}
	if r.PollInterval == 0 {
		r.PollInterval = DefaultRulesRepoPoll
	}
	if r.Auth.Type == "" {
		r.Auth.Type = DefaultRulesRepoAuthType
	}
}

// applyStorageDefaults applies defaults to the storage section. WAL mode
// defaults to on when the SQLite section is otherwise unset.
func applyStorageDefaults(cfg *Config) {
	s := &cfg.Storage
	if s.Backend == "" {
		s.Backend = DefaultStorageBackend
	}
	if s.SQLite == (SQLiteConfig{}) {
		s.SQLite.WALMode = true
	}
	if s.SQLite.Path == "" {
		s.SQLite.Path = DefaultStorageSQLitePath
	}
	if s.SQLite.Driver == "" {
		s.SQLite.Driver = DefaultStorageSQLiteDriver
	}
	if s.SQLite.MaxOpenConns == 0 {
		s.SQLite.MaxOpenConns = DefaultStorageSQLiteMaxOpenConns
	}
	if s.SQLite.BusyTimeout == 0 {
		s.SQLite.BusyTimeout = DefaultStorageSQLiteBusyTimeout
	}
	if s.Retention == (RetentionConfig{}) {
		s.Retention.Days = DefaultStorageRetentionDays
		s.Retention.PruneSchedule = DefaultStorageRetentionSchedule
	}
	if s.Retention.ArchivePath == "" {
		s.Retention.ArchivePath = DefaultStorageRetentionArchivePath
	}
}
