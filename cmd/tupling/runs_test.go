package main

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"umd-lhcb/tupling/pkg/cutflow/store"
)

func resetRunsFlags() {
	runsFlags.tree = ""
	runsFlags.digest = ""
	runsFlags.since = ""
	runsFlags.until = ""
	runsFlags.limit = 100
	runsFlags.offset = 0
	runsFlags.format = "json"
	runsFlags.dryRun = false
}

// recordRuns runs the sample cutflow n times with recording enabled and
// returns the run IDs.
func recordRuns(t *testing.T, cmd *cobra.Command, n int) []string {
	t.Helper()
	app.cfg.Storage.Enabled = true

	out := cmd.OutOrStdout()
	var ids []string
	for range n {
		var buf strings.Builder
		cmd.SetOut(&buf)
		resetCutflowFlags()
		if err := runCutflow(cmd, nil); err != nil {
			t.Fatalf("runCutflow() error = %v", err)
		}
		ids = append(ids, decodeReport(t, []byte(buf.String())).RunID)
	}
	cmd.SetOut(out)
	return ids
}

func TestRunsList(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	ids := recordRuns(t, cmd, 3)

	tests := []struct {
		name      string
		tree      string
		limit     int
		wantTotal int64
		wantRuns  int
	}{
		{"all", "", 100, 3, 3},
		{"limited", "", 2, 3, 2},
		{"by tree", sampleTree, 100, 3, 3},
		{"other tree", "Other/DecayTree", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout.Reset()
			resetRunsFlags()
			runsFlags.tree = tt.tree
			runsFlags.limit = tt.limit

			if err := listRuns(cmd, nil); err != nil {
				t.Fatalf("listRuns() error = %v", err)
			}

			var list runList
			if err := json.Unmarshal(stdout.Bytes(), &list); err != nil {
				t.Fatalf("invalid JSON output: %v\n%s", err, stdout.String())
			}
			if list.Total != tt.wantTotal || len(list.Runs) != tt.wantRuns {
				t.Errorf("total=%d runs=%d, want %d and %d", list.Total, len(list.Runs), tt.wantTotal, tt.wantRuns)
			}
			for _, run := range list.Runs {
				if !slices.Contains(ids, run.ID) {
					t.Errorf("unexpected run %q", run.ID)
				}
			}
		})
	}
}

func TestRunsListText(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	ids := recordRuns(t, cmd, 1)
	resetRunsFlags()
	runsFlags.format = "text"

	if err := listRuns(cmd, nil); err != nil {
		t.Fatalf("listRuns() error = %v", err)
	}
	for _, want := range []string{"ID", "Digest", ids[0], sampleTree} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("output missing %q:\n%s", want, stdout.String())
		}
	}
}

func TestRunsListInvalidTime(t *testing.T) {
	cmd, _, _ := newTestCommand(t)
	resetRunsFlags()
	runsFlags.since = "yesterday"

	if err := listRuns(cmd, nil); err == nil {
		t.Error("listRuns() with an invalid --since should fail")
	}
}

func TestRunsShow(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	ids := recordRuns(t, cmd, 1)

	resetRunsFlags()
	runsFlags.format = "markdown"
	if err := showRun(cmd, ids[:1]); err != nil {
		t.Fatalf("showRun() error = %v", err)
	}
	for _, want := range []string{"| Total | 6 | 6 | 100.00% |", "| kaon | 5 | 4 | 80.00% |"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("output missing %q:\n%s", want, stdout.String())
		}
	}

	stdout.Reset()
	runsFlags.format = "json"
	if err := showRun(cmd, ids[:1]); err != nil {
		t.Fatalf("showRun() error = %v", err)
	}
	var run store.Run
	if err := json.Unmarshal(stdout.Bytes(), &run); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if run.ID != ids[0] || len(run.Steps) != 4 || run.RulesDigest == "" {
		t.Errorf("run = %+v", run)
	}
}

func TestRunsShowNotFound(t *testing.T) {
	cmd, _, _ := newTestCommand(t)
	resetRunsFlags()

	err := showRun(cmd, []string{"missing"})
	if !errors.Is(err, store.ErrRunNotFound) {
		t.Errorf("showRun() error = %v, want ErrRunNotFound", err)
	}
}

func TestRunsDelete(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	ids := recordRuns(t, cmd, 2)

	if err := deleteRuns(cmd, ids[:1]); err != nil {
		t.Fatalf("deleteRuns() error = %v", err)
	}
	if got := stdout.String(); got != "deleted 1 runs\n" {
		t.Errorf("output = %q", got)
	}

	resetRunsFlags()
	if err := showRun(cmd, ids[:1]); !errors.Is(err, store.ErrRunNotFound) {
		t.Errorf("deleted run still found: %v", err)
	}
}

func TestRunsPrune(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	recordRuns(t, cmd, 3)
	app.cfg.Storage.Retention.MaxRuns = 1

	resetRunsFlags()
	runsFlags.dryRun = true
	if err := pruneRuns(cmd, nil); err != nil {
		t.Fatalf("pruneRuns() dry run error = %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "3 runs recorded") {
		t.Errorf("dry run output = %q", stdout.String())
	}

	stdout.Reset()
	runsFlags.dryRun = false
	if err := pruneRuns(cmd, nil); err != nil {
		t.Fatalf("pruneRuns() error = %v", err)
	}
	if got := stdout.String(); got != "pruned 2 runs\n" {
		t.Errorf("output = %q, want %q", got, "pruned 2 runs\n")
	}
}
