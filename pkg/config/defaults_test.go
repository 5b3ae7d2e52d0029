package config

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"data.tree", cfg.Data.Tree, DefaultDataTree},
		{"data.sqlite.driver", cfg.Data.SQLite.Driver, "sqlite"},
		{"evaluator.max_depth", cfg.Evaluator.MaxDepth, 256},
		{"cutflow.reference_mode", cfg.Cutflow.ReferenceMode, "permissive"},
		{"cutflow.max_rules", cfg.Cutflow.MaxRules, 1000},
		{"cutflow.regulator", cfg.Cutflow.Regulator, "sum"},
		{"cutflow.unique.run_branch", cfg.Cutflow.Unique.RunBranch, "runNumber"},
		{"cutflow.unique.event_branch", cfg.Cutflow.Unique.EventBranch, "eventNumber"},
		{"cutflow.watch.debounce_interval", cfg.Cutflow.Watch.DebounceInterval, 200 * time.Millisecond},
		{"cutflow.repo.branch", cfg.Cutflow.Repo.Branch, "main"},
		{"cutflow.repo.local_path", cfg.Cutflow.Repo.LocalPath, "data/rules-repo"},
		{"cutflow.repo.timeout", cfg.Cutflow.Repo.Timeout, 30 * time.Second},
		{"cutflow.repo.poll_interval", cfg.Cutflow.Repo.PollInterval, time.Minute},
		{"cutflow.repo.auth.type", cfg.Cutflow.Repo.Auth.Type, "none"},
		{"storage.enabled", cfg.Storage.Enabled, false},
		{"storage.backend", cfg.Storage.Backend, "sqlite"},
		{"storage.sqlite.path", cfg.Storage.SQLite.Path, "data/cutflow.db"},
		{"storage.sqlite.wal_mode", cfg.Storage.SQLite.WALMode, true},
		{"storage.retention.days", cfg.Storage.Retention.Days, 90},
		{"storage.retention.prune_schedule", cfg.Storage.Retention.PruneSchedule, "0 3 * * *"},
		{"telemetry.logging.level", cfg.Telemetry.Logging.Level, "info"},
		{"telemetry.logging.format", cfg.Telemetry.Logging.Format, "text"},
		{"telemetry.metrics.namespace", cfg.Telemetry.Metrics.Namespace, "tupling"},
		{"telemetry.metrics.duration_buckets", cfg.Telemetry.Metrics.DurationBuckets, DefaultDurationBuckets},
		{"telemetry.tracing.sampler", cfg.Telemetry.Tracing.Sampler, "always"},
		{"telemetry.tracing.sample_ratio", cfg.Telemetry.Tracing.SampleRatio, 1.0},
		{"telemetry.tracing.exporter", cfg.Telemetry.Tracing.Exporter, "otlp"},
		{"telemetry.tracing.service_name", cfg.Telemetry.Tracing.ServiceName, "tupling"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestApplyDefaults_PreservesValues(t *testing.T) {
	cfg := &Config{
		Data:    DataConfig{Tree: "T"},
		Cutflow: CutflowConfig{ReferenceMode: "strict", MaxRules: 5},
		Storage: StorageConfig{
			SQLite:    SQLiteConfig{Path: "runs.db"},
			Retention: RetentionConfig{MaxRuns: 10},
		},
	}
	ApplyDefaults(cfg)

	if cfg.Data.Tree != "T" || cfg.Cutflow.ReferenceMode != "strict" || cfg.Cutflow.MaxRules != 5 {
		t.Errorf("explicit values overwritten: %+v %+v", cfg.Data, cfg.Cutflow)
	}
	if cfg.Storage.SQLite.WALMode {
		t.Error("WAL mode should stay off when the sqlite section is set")
	}
	if cfg.Storage.Retention.Days != 0 || cfg.Storage.Retention.PruneSchedule != "" {
		t.Errorf("retention defaults applied over explicit section: %+v", cfg.Storage.Retention)
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	a := NewDefaultConfig()
	b := NewDefaultConfig()
	ApplyDefaults(b)

	if !reflect.DeepEqual(a, b) {
		t.Errorf("ApplyDefaults is not idempotent:\n%+v\n%+v", a, b)
	}
}
