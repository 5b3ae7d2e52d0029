package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "cutflow.reference_mode").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateData(&cfg.Data)...)
	errs = append(errs, validateEvaluator(&cfg.Evaluator)...)
	errs = append(errs, validateCutflow(&cfg.Cutflow)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

var validDrivers = map[string]bool{"sqlite": true, "sqlite3": true}

// validateData validates the data source configuration.
func validateData(cfg *DataConfig) []FieldError {
	var errs []FieldError

	switch cfg.Format {
	case "", "yaml", "sqlite":
	default:
		errs = append(errs, FieldError{
			Field:   "data.format",
			Message: fmt.Sprintf("invalid format %q: must be 'yaml' or 'sqlite'", cfg.Format),
		})
	}

	for i, p := range cfg.Paths {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("data.paths[%d]", i),
				Message: "path cannot be empty",
			})
		}
	}

	if cfg.Tree == "" {
		errs = append(errs, FieldError{
			Field:   "data.tree",
			Message: "tree is required",
		})
	}

	if !validDrivers[cfg.SQLite.Driver] {
		errs = append(errs, FieldError{
			Field:   "data.sqlite.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.SQLite.Driver),
		})
	}
	if cfg.SQLite.BusyTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "data.sqlite.busy_timeout",
			Message: "busy timeout must not be negative",
		})
	}

	return errs
}

// validateEvaluator validates the evaluator configuration.
func validateEvaluator(cfg *EvaluatorConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxDepth <= 0 {
		errs = append(errs, FieldError{
			Field:   "evaluator.max_depth",
			Message: "max depth must be positive",
		})
	}

	for name := range cfg.Symbols {
		if !isIdentifier(name) {
			errs = append(errs, FieldError{
				Field:   "evaluator.symbols." + name,
				Message: "symbol name must be an identifier ([A-Za-z_][A-Za-z0-9_]*)",
			})
		}
	}

	return errs
}

// validateCutflow validates the cutflow configuration.
func validateCutflow(cfg *CutflowConfig) []FieldError {
	var errs []FieldError

	if cfg.InitNum < 0 {
		errs = append(errs, FieldError{
			Field:   "cutflow.init_num",
			Message: "initial count must not be negative",
		})
	}

	switch cfg.ReferenceMode {
	case "permissive", "strict":
	default:
		errs = append(errs, FieldError{
			Field:   "cutflow.reference_mode",
			Message: fmt.Sprintf("invalid reference mode %q: must be 'permissive' or 'strict'", cfg.ReferenceMode),
		})
	}

	if cfg.MaxRules <= 0 {
		errs = append(errs, FieldError{
			Field:   "cutflow.max_rules",
			Message: "max rules must be positive",
		})
	}

	switch cfg.Regulator {
	case "sum":
	case "unique":
		if cfg.Unique.RunBranch == "" || cfg.Unique.EventBranch == "" {
			errs = append(errs, FieldError{
				Field:   "cutflow.unique",
				Message: "run and event branches are required for the unique regulator",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "cutflow.regulator",
			Message: fmt.Sprintf("invalid regulator %q: must be 'sum' or 'unique'", cfg.Regulator),
		})
	}

	if cfg.Watch.DebounceInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "cutflow.watch.debounce_interval",
			Message: "debounce interval must not be negative",
		})
	}

	if cfg.Repo.URL != "" {
		errs = append(errs, validateRulesRepo(&cfg.Repo)...)
	}

	return errs
}

// validateRulesRepo validates the rules repository configuration.
func validateRulesRepo(cfg *RulesRepoConfig) []FieldError {
	var errs []FieldError

	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "cutflow.repo.path",
			Message: "rules file path is required when a repository is set",
		})
	}
	if cfg.Branch == "" && cfg.Revision == "" {
		errs = append(errs, FieldError{
			Field:   "cutflow.repo.branch",
			Message: "branch or revision is required",
		})
	}
	if cfg.Depth < 0 {
		errs = append(errs, FieldError{
			Field:   "cutflow.repo.depth",
			Message: "depth must not be negative",
		})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "cutflow.repo.timeout",
			Message: "timeout must be positive",
		})
	}
	if cfg.PollInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "cutflow.repo.poll_interval",
			Message: "poll interval must be positive",
		})
	}

	switch cfg.Auth.Type {
	case "", "none":
	case "token":
		if cfg.Auth.Token == "" {
			errs = append(errs, FieldError{
				Field:   "cutflow.repo.auth.token",
				Message: "token auth requires a token",
			})
		}
	case "ssh":
		if cfg.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{
				Field:   "cutflow.repo.auth.ssh_key_path",
				Message: "ssh auth requires a key path",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "cutflow.repo.auth.type",
			Message: fmt.Sprintf("invalid auth type %q: must be 'none', 'token' or 'ssh'", cfg.Auth.Type),
		})
	}

	return errs
}

// validateStorage validates the run storage configuration. Backend settings
// are only checked when storage is enabled.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.path",
				Message: "database path is required for the sqlite backend",
			})
		}
		if !validDrivers[cfg.SQLite.Driver] {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.MaxOpenConns < 0 {
			errs = append(errs, FieldError{
				Field:   "storage.sqlite.max_open_conns",
				Message: "max open connections must not be negative",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'sqlite' or 'memory'", cfg.Backend),
		})
	}

	r := cfg.Retention
	if r.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.retention.days",
			Message: "retention days must not be negative",
		})
	}
	if r.MaxRuns < 0 {
		errs = append(errs, FieldError{
			Field:   "storage.retention.max_runs",
			Message: "max runs must not be negative",
		})
	}
	if r.PruneSchedule != "" {
		if _, err := cron.ParseStandard(r.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "storage.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	if r.ArchiveBeforeDelete && r.ArchivePath == "" {
		errs = append(errs, FieldError{
			Field:   "storage.retention.archive_path",
			Message: "archive path is required when archiving is enabled",
		})
	}

	return errs
}

// validateTelemetry validates telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if cfg.Logging.Level == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "logging level is required",
		})
	} else if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	// Validate logging format
	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if cfg.Logging.Format == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "logging format is required",
		})
	} else if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json', 'text', or 'console'", cfg.Logging.Format),
		})
	}

	// Validate metrics
	if cfg.Metrics.Enabled && cfg.Metrics.Namespace == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.namespace",
			Message: "metrics namespace is required when metrics are enabled",
		})
	}
	for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
		if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: "buckets must be strictly increasing",
			})
			break
		}
	}

	// Validate tracing configuration
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	switch cfg.Tracing.Sampler {
	case "always", "never", "ratio":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}
	if cfg.Tracing.Exporter != "otlp" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.exporter",
			Message: fmt.Sprintf("unsupported exporter %q: must be 'otlp'", cfg.Tracing.Exporter),
		})
	}

	return errs
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
