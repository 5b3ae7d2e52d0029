package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"umd-lhcb/tupling/pkg/cli"
)

func resetEvalFlags() {
	evalFlags.data = nil
	evalFlags.tree = ""
	evalFlags.ast = false
	evalFlags.format = "text"
}

func TestEvalScalar(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	resetEvalFlags()

	if err := evalExpression(cmd, []string{"2 * pi"}); err != nil {
		t.Fatalf("evalExpression() error = %v", err)
	}
	if got, want := stdout.String(), "6.283185307179586\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestEvalAST(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	resetEvalFlags()
	evalFlags.ast = true

	if err := evalExpression(cmd, []string{"1 + 2"}); err != nil {
		t.Fatalf("evalExpression() error = %v", err)
	}
	if got, want := stdout.String(), "add\n  num\t1\n  num\t2\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestEvalBranchesJSON(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	resetEvalFlags()
	evalFlags.data = []string{sampleData}
	evalFlags.format = "json"

	if err := evalExpression(cmd, []string{"Y_PT > 2000"}); err != nil {
		t.Fatalf("evalExpression() error = %v", err)
	}

	var report struct {
		Tree   string `json:"tree"`
		Kind   string `json:"kind"`
		Length int    `json:"length"`
		Passed int64  `json:"passed"`
		Value  []bool `json:"value"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout.String())
	}

	if report.Tree != sampleTree {
		t.Errorf("tree = %q, want %q", report.Tree, sampleTree)
	}
	if report.Kind != "bool" || report.Length != 6 || report.Passed != 4 {
		t.Errorf("kind=%s length=%d passed=%d, want bool 6 4", report.Kind, report.Length, report.Passed)
	}
	want := []bool{false, false, true, true, true, true}
	for i := range want {
		if report.Value[i] != want[i] {
			t.Errorf("value[%d] = %v, want %v", i, report.Value[i], want[i])
		}
	}
}

func TestEvalBranchesCSV(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	resetEvalFlags()
	evalFlags.data = []string{sampleData}
	evalFlags.format = "csv"

	if err := evalExpression(cmd, []string{"k_PIDK"}); err != nil {
		t.Fatalf("evalExpression() error = %v", err)
	}

	want := "Entry,Value\n0,5\n1,-2\n2,8\n3,1\n4,12\n5,12\n"
	if got := stdout.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		name   string
		expr   string
		format string
		data   []string
		errMsg string
	}{
		{"syntax", "1 +", "text", nil, ""},
		{"undefined without data", "Y_PT > 1", "text", nil, "Y_PT"},
		{"undefined branch", "Y_PTT > 1", "text", []string{sampleData}, "Y_PTT"},
		{"unknown format", "1", "xml", nil, "xml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, _, _ := newTestCommand(t)
			resetEvalFlags()
			evalFlags.format = tt.format
			evalFlags.data = tt.data

			err := evalExpression(cmd, []string{tt.expr})
			if err == nil {
				t.Fatal("evalExpression() should fail")
			}
			if tt.errMsg != "" && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error = %q, want it to mention %q", err, tt.errMsg)
			}
		})
	}
}

func TestEvalUnknownFormatIsConfigError(t *testing.T) {
	cmd, _, _ := newTestCommand(t)
	resetEvalFlags()
	evalFlags.format = "xml"

	err := evalExpression(cmd, []string{"1"})
	if !errors.As(err, new(*cli.ConfigError)) {
		t.Errorf("error = %T, want *cli.ConfigError", err)
	}
}

func TestEvalConfiguredSymbols(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	resetEvalFlags()
	app.cfg.Evaluator.Symbols = map[string]float64{"PT_CUT": 2000}

	if err := evalExpression(cmd, []string{"PT_CUT / GeV"}); err != nil {
		t.Fatalf("evalExpression() error = %v", err)
	}
	if got := stdout.String(); got != "2\n" {
		t.Errorf("output = %q, want %q", got, "2\n")
	}
}
