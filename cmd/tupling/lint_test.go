package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func resetLintFlags() {
	lintFlags.rules = ""
	lintFlags.data = nil
	lintFlags.tree = ""
	lintFlags.strict = false
	lintFlags.format = "text"
}

func TestLintRulesValid(t *testing.T) {
	tests := []struct {
		name string
		data []string
	}{
		{"syntax only", nil},
		{"with branches", []string{sampleData}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, stdout, _ := newTestCommand(t)
			resetLintFlags()
			lintFlags.rules = sampleRules
			lintFlags.data = tt.data

			if err := lintRules(cmd, nil); err != nil {
				t.Fatalf("lintRules() error = %v", err)
			}
			if want := "testdata/rules.yaml: 4 rules OK\n"; stdout.String() != want {
				t.Errorf("output = %q, want %q", stdout.String(), want)
			}
		})
	}
}

func TestLintRulesInvalid(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	resetLintFlags()
	lintFlags.rules = "testdata/bad-rules.yaml"
	lintFlags.format = "json"

	if err := lintRules(cmd, nil); err == nil {
		t.Fatal("lintRules() with invalid rules should fail")
	}

	var result LintResult
	if err := json.Unmarshal(stdout.Bytes(), &result); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, stdout.String())
	}
	if result.Valid {
		t.Error("result should be invalid")
	}

	byRule := make(map[int]LintIssue)
	for _, issue := range result.Issues {
		byRule[issue.Rule] = issue
	}

	tests := []struct {
		rule     int
		severity string
		line     int
		contains string
	}{
		{0, "error", 3, "invalid condition"},
		{1, "error", 4, "frobnicate"},
		{2, "warning", 5, "compare_to"},
	}
	for _, tt := range tests {
		issue, ok := byRule[tt.rule]
		if !ok {
			t.Errorf("no issue for rule %d", tt.rule)
			continue
		}
		if issue.Severity != tt.severity {
			t.Errorf("rule %d severity = %q, want %q", tt.rule, issue.Severity, tt.severity)
		}
		if issue.Line != tt.line {
			t.Errorf("rule %d line = %d, want %d", tt.rule, issue.Line, tt.line)
		}
		if !strings.Contains(issue.Message, tt.contains) {
			t.Errorf("rule %d message = %q, want it to mention %q", tt.rule, issue.Message, tt.contains)
		}
	}
}

func TestLintRulesUnknownTree(t *testing.T) {
	cmd, stdout, _ := newTestCommand(t)
	resetLintFlags()
	lintFlags.rules = "testdata/dup-rules.yaml"
	lintFlags.data = []string{sampleData}
	lintFlags.tree = "Nope/DecayTree"

	if err := lintRules(cmd, nil); err == nil {
		t.Fatalf("lintRules() with an unknown tree should fail; output:\n%s", stdout.String())
	}
}

func TestLintRulesStrict(t *testing.T) {
	tests := []struct {
		strict  bool
		wantErr bool
	}{
		{false, false},
		{true, true},
	}

	for _, tt := range tests {
		cmd, stdout, _ := newTestCommand(t)
		resetLintFlags()
		lintFlags.rules = "testdata/dup-rules.yaml"
		lintFlags.strict = tt.strict

		err := lintRules(cmd, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("strict=%v: lintRules() error = %v, wantErr %v", tt.strict, err, tt.wantErr)
		}
		if !strings.Contains(stdout.String(), "warning") {
			t.Errorf("strict=%v: output missing the duplicate key warning:\n%s", tt.strict, stdout.String())
		}
	}
}

func TestLintRulesNoFile(t *testing.T) {
	cmd, _, _ := newTestCommand(t)
	resetLintFlags()

	if err := lintRules(cmd, nil); err == nil {
		t.Error("lintRules() without a rules file should fail")
	}
}
