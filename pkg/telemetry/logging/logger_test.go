package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"umd-lhcb/tupling/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid JSON config", Config{Level: "info", Format: "json"}, false},
		{"valid text config", Config{Level: "debug", Format: "text"}, false},
		{"valid console config", Config{Level: "warn", Format: "console"}, false},
		{"empty config", Config{}, false},
		{"invalid log level", Config{Level: "invalid", Format: "json"}, true},
		{"invalid format", Config{Level: "info", Format: "invalid"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}

			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name      string
		logLevel  string
		logMethod func(*Logger, string)
		wantLog   bool
	}{
		{"debug level logs debug", "debug", func(l *Logger, msg string) { l.Debug(msg) }, true},
		{"info level filters debug", "info", func(l *Logger, msg string) { l.Debug(msg) }, false},
		{"info level logs info", "info", func(l *Logger, msg string) { l.Info(msg) }, true},
		{"warn level filters info", "warn", func(l *Logger, msg string) { l.Info(msg) }, false},
		{"warn level logs error", "warn", func(l *Logger, msg string) { l.Error(msg) }, true},
		{"error level filters warn", "error", func(l *Logger, msg string) { l.Warn(msg) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger, err := New(Config{Level: tt.logLevel, Format: "json", Writer: buf})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			tt.logMethod(logger, "test message")

			hasLog := strings.Contains(buf.String(), "test message")
			if hasLog != tt.wantLog {
				t.Errorf("logged = %v, want %v (output %q)", hasLog, tt.wantLog, buf.String())
			}
		})
	}
}

func TestLogger_JSONFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.With("component", "cutflow").Info("rule evaluated", "key", "L0", "output", 7)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "rule evaluated" || entry["component"] != "cutflow" || entry["key"] != "L0" {
		t.Errorf("unexpected entry %v", entry)
	}
	if entry["output"] != float64(7) {
		t.Errorf("expected output 7, got %v", entry["output"])
	}
}

func TestLogger_ConsoleOmitsTime(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "console", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Info("hello")
	if strings.Contains(buf.String(), "time=") {
		t.Errorf("console output should omit time, got %q", buf.String())
	}

	buf.Reset()
	text, _ := New(Config{Level: "info", Format: "text", Writer: buf})
	text.Info("hello")
	if !strings.Contains(buf.String(), "time=") {
		t.Errorf("text output should include time, got %q", buf.String())
	}
}

func TestLogger_Slog(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "debug", Format: "text", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.Slog().Debug("through slog", "n", 1)
	if !strings.Contains(buf.String(), "through slog") {
		t.Errorf("expected slog output, got %q", buf.String())
	}
	if logger.Level().String() != "DEBUG" {
		t.Errorf("expected DEBUG level, got %v", logger.Level())
	}
}

func TestLogger_ContextMethods(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "debug", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithTree(ctx, "TupleB0/DecayTree")

	logger.InfoContext(ctx, "cutflow finished", "rules", 4)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["run_id"] != "run-1" || entry["tree"] != "TupleB0/DecayTree" {
		t.Errorf("context fields missing: %v", entry)
	}
}

func TestLogger_WithContext(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "text", Writer: buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if logger.WithContext(context.Background()) != logger {
		t.Error("WithContext without fields should return the same logger")
	}

	ctx := WithRulesFile(context.Background(), "rules.yaml")
	logger.WithContext(ctx).Info("loaded")
	if !strings.Contains(buf.String(), "rules_file=rules.yaml") {
		t.Errorf("expected rules_file field, got %q", buf.String())
	}
}

func TestFromConfig(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := FromConfig(config.LoggingConfig{Level: "warn", Format: "json", AddSource: true}, buf)

	if cfg.Level != "warn" || cfg.Format != "json" || !cfg.AddSource || cfg.Writer != buf {
		t.Errorf("unexpected config %+v", cfg)
	}
}
