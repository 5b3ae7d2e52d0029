package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "TUPLING_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention TUPLING_SECTION_FIELD (e.g., TUPLING_CUTFLOW_REFERENCE_MODE).
// Environment variables always take precedence over file-based configuration.
//
// An empty path starts from the defaults instead of a file.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefaultConfig()
	} else {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Data overrides
	if val := getenv("DATA_PATHS"); val != "" {
		cfg.Data.Paths = splitList(val)
	}
	setString(&cfg.Data.Format, "DATA_FORMAT")
	setString(&cfg.Data.Tree, "DATA_TREE")
	setString(&cfg.Data.SQLite.Driver, "DATA_SQLITE_DRIVER")

	// Evaluator overrides
	setInt(&cfg.Evaluator.MaxDepth, "EVALUATOR_MAX_DEPTH")

	// Cutflow overrides
	setString(&cfg.Cutflow.RulesFile, "CUTFLOW_RULES_FILE")
	if val := getenv("CUTFLOW_INIT_NUM"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Cutflow.InitNum = i
		}
	}
	setString(&cfg.Cutflow.ReferenceMode, "CUTFLOW_REFERENCE_MODE")
	setInt(&cfg.Cutflow.MaxRules, "CUTFLOW_MAX_RULES")
	setString(&cfg.Cutflow.Regulator, "CUTFLOW_REGULATOR")
	setBool(&cfg.Cutflow.Unique.DropDuplicates, "CUTFLOW_UNIQUE_DROP_DUPLICATES")
	setBool(&cfg.Cutflow.Watch.Enabled, "CUTFLOW_WATCH_ENABLED")
	setDuration(&cfg.Cutflow.Watch.DebounceInterval, "CUTFLOW_WATCH_DEBOUNCE_INTERVAL")
	setString(&cfg.Cutflow.Repo.URL, "CUTFLOW_REPO_URL")
	setString(&cfg.Cutflow.Repo.Branch, "CUTFLOW_REPO_BRANCH")
	setString(&cfg.Cutflow.Repo.Path, "CUTFLOW_REPO_PATH")
	setString(&cfg.Cutflow.Repo.Revision, "CUTFLOW_REPO_REVISION")
	setString(&cfg.Cutflow.Repo.Auth.Type, "CUTFLOW_REPO_AUTH_TYPE")
	setString(&cfg.Cutflow.Repo.Auth.Token, "CUTFLOW_REPO_AUTH_TOKEN")

	// Storage overrides
	setBool(&cfg.Storage.Enabled, "STORAGE_ENABLED")
	setString(&cfg.Storage.Backend, "STORAGE_BACKEND")
	setString(&cfg.Storage.SQLite.Path, "STORAGE_SQLITE_PATH")
	setString(&cfg.Storage.SQLite.Driver, "STORAGE_SQLITE_DRIVER")
	setInt(&cfg.Storage.Retention.Days, "STORAGE_RETENTION_DAYS")
	if val := getenv("STORAGE_RETENTION_MAX_RUNS"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Storage.Retention.MaxRuns = i
		}
	}
	setString(&cfg.Storage.Retention.PruneSchedule, "STORAGE_RETENTION_PRUNE_SCHEDULE")

	// Telemetry overrides
	setString(&cfg.Telemetry.Logging.Level, "TELEMETRY_LOGGING_LEVEL")
	setString(&cfg.Telemetry.Logging.Format, "TELEMETRY_LOGGING_FORMAT")
	setBool(&cfg.Telemetry.Metrics.Enabled, "TELEMETRY_METRICS_ENABLED")
	setString(&cfg.Telemetry.Metrics.TextfilePath, "TELEMETRY_METRICS_TEXTFILE_PATH")
	setBool(&cfg.Telemetry.Tracing.Enabled, "TELEMETRY_TRACING_ENABLED")
	setString(&cfg.Telemetry.Tracing.Endpoint, "TELEMETRY_TRACING_ENDPOINT")
	setString(&cfg.Telemetry.Tracing.Sampler, "TELEMETRY_TRACING_SAMPLER")
	if val := getenv("TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
}

func getenv(key string) string {
	return os.Getenv(EnvPrefix + key)
}

func setString(dst *string, key string) {
	if val := getenv(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setBool(dst *bool, key string) {
	if val := getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// splitList splits a comma separated list, dropping empty items.
func splitList(val string) []string {
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
