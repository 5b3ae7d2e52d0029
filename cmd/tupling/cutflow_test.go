package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"umd-lhcb/tupling/pkg/cli"
	"umd-lhcb/tupling/pkg/cutflow"
	"umd-lhcb/tupling/pkg/cutflow/store"
)

func resetCutflowFlags() {
	cutflowFlags.rules = sampleRules
	cutflowFlags.data = []string{sampleData}
	cutflowFlags.tree = ""
	cutflowFlags.initNum = 0
	cutflowFlags.format = "json"
	cutflowFlags.strict = false
	cutflowFlags.unique = false
	cutflowFlags.dropDuplicates = false
	cutflowFlags.watch = false
	cutflowFlags.progress = false
	cutflowFlags.record = false
	cutflowFlags.metricsFile = ""
	cutflowFlags.metricsAddr = ""
	cutflowFlags.repo = ""
	cutflowFlags.revision = ""
}

func decodeReport(t *testing.T, data []byte) cutflowReport {
	t.Helper()
	var report cutflowReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, data)
	}
	return report
}

func checkSteps(t *testing.T, got []cutflow.Row, want [][2]int64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d steps, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Input != w[0] || got[i].Output != w[1] {
			t.Errorf("step %d (%s) = %d -> %d, want %d -> %d",
				i, got[i].Key, got[i].Input, got[i].Output, w[0], w[1])
		}
	}
}

func TestCutflowSum(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	resetCutflowFlags()

	if err := runCutflow(cmd, nil); err != nil {
		t.Fatalf("runCutflow() error = %v", err)
	}

	report := decodeReport(t, stdout.Bytes())
	if report.Tree != sampleTree {
		t.Errorf("tree = %q, want %q", report.Tree, sampleTree)
	}
	if report.InitNum != 6 {
		t.Errorf("init_num = %d, want the tree size 6", report.InitNum)
	}
	if report.RunID == "" {
		t.Error("run_id is empty")
	}

	checkSteps(t, report.Steps, [][2]int64{
		{6, 6}, // Total
		{6, 5}, // Muon ID
		{5, 4}, // Y PT
		{5, 4}, // kaon, explicit against Muon ID
	})

	wantKeys := []string{"true", "muplus_isMuon", "Y_PT > 2000", "kaon"}
	for i, key := range wantKeys {
		if report.Steps[i].Key != key {
			t.Errorf("step %d key = %q, want %q", i, report.Steps[i].Key, key)
		}
	}
}

func TestCutflowInitNumFlag(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	resetCutflowFlags()
	cutflowFlags.initNum = 100

	if err := runCutflow(cmd, nil); err != nil {
		t.Fatalf("runCutflow() error = %v", err)
	}

	report := decodeReport(t, stdout.Bytes())
	if got := report.Steps[0].Input; got != 100 {
		t.Errorf("first input = %d, want 100", got)
	}
}

func TestCutflowUnique(t *testing.T) {
	tests := []struct {
		name           string
		dropDuplicates bool
		want           [][2]int64
	}{
		{
			name: "distinct pairs",
			want: [][2]int64{{6, 5}, {5, 4}, {4, 3}, {4, 3}},
		},
		{
			// (2, 11) appears twice and is never counted.
			name:           "drop duplicates",
			dropDuplicates: true,
			want:           [][2]int64{{6, 4}, {4, 3}, {3, 2}, {3, 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, stdout, _ := newTestCommand(t)
			resetCutflowFlags()
			cutflowFlags.unique = true
			cutflowFlags.dropDuplicates = tt.dropDuplicates

			if err := runCutflow(cmd, nil); err != nil {
				t.Fatalf("runCutflow() error = %v", err)
			}
			checkSteps(t, decodeReport(t, stdout.Bytes()).Steps, tt.want)
		})
	}
}

func TestCutflowTextAndMarkdown(t *testing.T) {
	tests := []struct {
		format string
		want   []string
	}{
		{"text", []string{"Cut", "Efficiency", "Muon ID", "83.33%", "kaon"}},
		{"markdown", []string{"| Cut | Input | Output | Efficiency |", "|:---|---:|---:|---:|", "| Y PT | 5 | 4 | 80.00% |"}},
		{"csv", []string{"Cut,Input,Output,Efficiency", "Total,6,6,100.00%"}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cmd, stdout, _ := newTestCommand(t)
			resetCutflowFlags()
			cutflowFlags.format = tt.format

			if err := runCutflow(cmd, nil); err != nil {
				t.Fatalf("runCutflow() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(stdout.String(), w) {
					t.Errorf("output missing %q:\n%s", w, stdout.String())
				}
			}
		})
	}
}

func TestCutflowReferenceModes(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "forward.yaml")
	content := `tree: TupleB0/DecayTree
rules:
  - cond: muplus_isMuon
  - cond: Y_PT > 2000
    compare_to: 3
`
	if err := os.WriteFile(rules, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("permissive", func(t *testing.T) {
		cmd, stdout, _ := newTestCommand(t)
		resetCutflowFlags()
		cutflowFlags.rules = rules

		if err := runCutflow(cmd, nil); err != nil {
			t.Fatalf("runCutflow() error = %v", err)
		}
		// The unresolved reference falls back to the initial count and
		// all events.
		checkSteps(t, decodeReport(t, stdout.Bytes()).Steps, [][2]int64{{6, 5}, {6, 4}})
	})

	t.Run("strict", func(t *testing.T) {
		cmd, _, _ := newTestCommand(t)
		resetCutflowFlags()
		cutflowFlags.rules = rules
		cutflowFlags.strict = true

		err := runCutflow(cmd, nil)
		var refErr *cutflow.ReferenceError
		if !errors.As(err, &refErr) {
			t.Fatalf("runCutflow() error = %v, want *cutflow.ReferenceError", err)
		}
		if refErr.Index != 1 {
			t.Errorf("ReferenceError.Index = %d, want 1", refErr.Index)
		}
	})
}

func TestCutflowErrors(t *testing.T) {
	tests := []struct {
		name       string
		rules      string
		tree       string
		configErr  bool
		errMessage string
	}{
		{name: "no rules", rules: "", configErr: true},
		{name: "missing rules file", rules: "testdata/nonexistent.yaml", errMessage: "nonexistent"},
		{name: "invalid condition", rules: "testdata/bad-rules.yaml", errMessage: "rule 0"},
		{name: "unknown tree", rules: sampleRules, tree: "Nope/DecayTree", errMessage: "Nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, _ := newTestCommand(t)
			resetCutflowFlags()
			cutflowFlags.rules = tt.rules
			cutflowFlags.tree = tt.tree

			err := runCutflow(cmd, nil)
			if err == nil {
				t.Fatal("runCutflow() should fail")
			}
			if tt.configErr && !errors.As(err, new(*cli.ConfigError)) {
				t.Errorf("error = %T, want *cli.ConfigError", err)
			}
			if tt.errMessage != "" && !strings.Contains(err.Error(), tt.errMessage) {
				t.Errorf("error = %q, want it to mention %q", err, tt.errMessage)
			}
		})
	}
}

func TestCutflowMetrics(t *testing.T) {
	cmd, _, _ := newTestCommand(t)
	resetCutflowFlags()
	metricsFile := filepath.Join(t.TempDir(), "tupling.prom")
	cutflowFlags.metricsFile = metricsFile

	if err := runCutflow(cmd, nil); err != nil {
		t.Fatalf("runCutflow() error = %v", err)
	}

	if got := testutil.CollectAndCount(app.metrics.Registry(), "tupling_cutflow_runs_total"); got != 1 {
		t.Errorf("runs_total series = %d, want 1", got)
	}

	if err := teardown(cmd.Context()); err != nil {
		t.Fatalf("teardown() error = %v", err)
	}
	data, err := os.ReadFile(metricsFile)
	if err != nil {
		t.Fatalf("metrics file not written: %v", err)
	}
	if !strings.Contains(string(data), `tupling_cutflow_rule_output_events{rule="kaon",tree="TupleB0/DecayTree"} 4`) {
		t.Errorf("metrics file missing rule output:\n%s", data)
	}
}

func TestCutflowProgress(t *testing.T) {
	cmd, _, stderr := newTestCommand(t)
	resetCutflowFlags()
	cutflowFlags.progress = true

	if err := runCutflow(cmd, nil); err != nil {
		t.Fatalf("runCutflow() error = %v", err)
	}
	if !strings.Contains(stderr.String(), "rules/s") {
		t.Errorf("no progress on stderr:\n%s", stderr.String())
	}
}

func TestCutflowRecord(t *testing.T) {
	cmd, _, _ := newTestCommand(t)
	resetCutflowFlags()
	app.cfg.Storage.Enabled = true

	if err := runCutflow(cmd, nil); err != nil {
		t.Fatalf("runCutflow() error = %v", err)
	}

	st, err := openStorage(&app.cfg.Storage)
	if err != nil {
		t.Fatalf("openStorage() error = %v", err)
	}
	defer st.Close()

	n, err := st.Count(cmd.Context(), &store.Query{})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("recorded runs = %d, want 1", n)
	}
}
