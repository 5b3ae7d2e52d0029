package store

import (
	"context"
	"log/slog"
	"time"

	"umd-lhcb/tupling/pkg/cutflow"
)

// RecorderConfig contains configuration for the run recorder.
type RecorderConfig struct {
	// Enabled enables run recording.
	Enabled bool

	// Source labels recorded runs, typically the data file path.
	Source string

	// WriteTimeout bounds a single write to storage.
	// Default: 5 seconds
	WriteTimeout time.Duration
}

// DefaultRecorderConfig returns the default recorder configuration.
func DefaultRecorderConfig() *RecorderConfig {
	return &RecorderConfig{
		Enabled:      true,
		WriteTimeout: 5 * time.Second,
	}
}

// Recorder stores completed cutflow runs. It implements cutflow.Recorder.
type Recorder struct {
	storage Storage
	config  *RecorderConfig
	digest  string
	logger  *slog.Logger
}

// NewRecorder creates a recorder for runs of the given rules.
func NewRecorder(storage Storage, rules []cutflow.Rule, config *RecorderConfig, logger *slog.Logger) *Recorder {
	if config == nil {
		config = DefaultRecorderConfig()
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Recorder{
		storage: storage,
		config:  config,
		digest:  RulesDigest(rules),
		logger:  logger.With("component", "cutflow.recorder"),
	}
}

// Digest returns the digest of the rules this recorder was created for.
func (r *Recorder) Digest() string {
	return r.digest
}

// RecordRun converts result to a Run and stores it.
func (r *Recorder) RecordRun(ctx context.Context, result *cutflow.Result) error {
	if !r.config.Enabled {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.config.WriteTimeout)
	defer cancel()

	run := NewRun(result, r.digest, r.config.Source)
	if err := r.storage.Store(ctx, run); err != nil {
		return err
	}

	r.logger.Debug("cutflow run recorded",
		"run_id", run.ID,
		"tree", run.Tree,
		"steps", len(run.Steps),
		"rules_digest", run.RulesDigest,
	)
	return nil
}
