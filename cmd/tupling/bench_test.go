package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func resetBenchFlags() {
	benchFlags.data = []string{sampleData}
	benchFlags.tree = ""
	benchFlags.iterations = 5
	benchFlags.cold = false
	benchFlags.progress = false
	benchFlags.format = "json"
}

func TestBench(t *testing.T) {
	tests := []struct {
		name        string
		cold        bool
		wantFetches int
	}{
		{"warm", false, 1},
		{"cold", true, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, stdout, _ := newTestCommand(t)
			resetBenchFlags()
			benchFlags.cold = tt.cold

			if err := runBench(cmd, []string{"Y_PT > 2000 & muplus_isMuon"}); err != nil {
				t.Fatalf("runBench() error = %v", err)
			}

			var report benchReport
			if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
				t.Fatalf("invalid JSON output: %v\n%s", err, stdout)
			}
			if report.Iterations != 5 || report.Tree != sampleTree || report.Cold != tt.cold {
				t.Errorf("unexpected report %+v", report)
			}
			if report.Fetches != tt.wantFetches {
				t.Errorf("fetches = %d, want %d", report.Fetches, tt.wantFetches)
			}
			if report.MinMS > report.MedianMS || report.MedianMS > report.MaxMS {
				t.Errorf("percentiles out of order: %+v", report)
			}
		})
	}
}

func TestBenchTextAndProgress(t *testing.T) {
	cmd, stdout, stderr := newTestCommand(t)
	resetBenchFlags()
	benchFlags.format = "text"
	benchFlags.progress = true

	if err := runBench(cmd, []string{"k_PIDK > 4"}); err != nil {
		t.Fatalf("runBench() error = %v", err)
	}
	for _, want := range []string{"Metric", "Iterations", "p99", "evals/s"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("output missing %q:\n%s", want, stdout)
		}
	}
	if !strings.Contains(stderr.String(), "evals") {
		t.Errorf("expected progress on stderr, got %q", stderr)
	}
}

func TestBenchErrors(t *testing.T) {
	cmd, _, _ := newTestCommand(t)

	resetBenchFlags()
	benchFlags.iterations = 0
	if err := runBench(cmd, []string{"1"}); err == nil {
		t.Error("expected error for zero iterations")
	}

	resetBenchFlags()
	if err := runBench(cmd, []string{"no_such_branch > 1"}); err == nil {
		t.Error("expected error for an undefined branch")
	}
}

func TestSummarizeLatencies(t *testing.T) {
	var latencies []time.Duration
	for i := 100; i >= 1; i-- {
		latencies = append(latencies, time.Duration(i)*time.Millisecond)
	}

	r := summarizeLatencies(latencies, time.Second)
	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"min", r.MinMS, 1},
		{"max", r.MaxMS, 100},
		{"mean", r.MeanMS, 50.5},
		{"median", r.MedianMS, 51},
		{"p95", r.P95MS, 96},
		{"p99", r.P99MS, 100},
		{"throughput", r.Throughput, 100},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if latencies[0] != 100*time.Millisecond {
		t.Error("input latencies were reordered")
	}

	if empty := summarizeLatencies(nil, 0); empty.Iterations != 0 || empty.Throughput != 0 {
		t.Errorf("unexpected empty summary %+v", empty)
	}
}
