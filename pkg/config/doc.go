// Package config provides configuration management for tupling.
//
// Configuration is loaded from a YAML file, completed with defaults,
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("tupling.yaml")
//
// # Sections
//
//   - data: ntuple files, format and tree
//   - evaluator: nesting limit and extra constants
//   - cutflow: rules file or git repository, reference mode, count
//     regulator, watch mode
//   - storage: run recording backend and retention
//   - telemetry: logging, metrics and tracing
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention TUPLING_SECTION_FIELD:
//
//   - TUPLING_DATA_PATHS overrides data.paths (comma separated)
//   - TUPLING_CUTFLOW_REFERENCE_MODE overrides cutflow.reference_mode
//   - TUPLING_CUTFLOW_REPO_AUTH_TOKEN overrides cutflow.repo.auth.token
//   - TUPLING_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Values are applied in this order, later overriding earlier: defaults,
// the YAML file, environment variables. Validation runs last and reports
// every invalid field at once as a ValidationError.
//
// # Singleton Pattern
//
// The CLI installs the loaded configuration with SetConfig and reads it
// back through GetConfig. ReloadConfig replaces it atomically when the
// file changes during a watch; a configuration that fails to load or
// validate leaves the previous one active.
package config
