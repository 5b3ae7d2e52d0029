package cutflow

import (
	"errors"
	"strings"
	"testing"

	exprErrors "umd-lhcb/tupling/pkg/boolean/errors"
	"umd-lhcb/tupling/pkg/boolean/eval"
)

func TestLint(t *testing.T) {
	opts := LintOptions{
		Functions: eval.DefaultFunctions(),
		Symbols:   eval.DefaultSymbols(),
		Branches:  []string{"L0", "Hlt1", "muplus_isMuon", "Y_M", "muplus_PT"},
	}

	tests := []struct {
		name      string
		rules     []Rule
		wantIdx   []int
		wantSev   []Severity
		wantInMsg []string
	}{
		{
			name:  "clean",
			rules: canonicalRules(),
		},
		{
			name:      "syntax error",
			rules:     []Rule{{Cond: "L0 &"}},
			wantIdx:   []int{0},
			wantSev:   []Severity{SeverityError},
			wantInMsg: []string{"invalid condition"},
		},
		{
			name:      "unknown branch",
			rules:     []Rule{{Cond: "muplus_PX > 0"}},
			wantIdx:   []int{0},
			wantSev:   []Severity{SeverityError},
			wantInMsg: []string{"muplus_PX"},
		},
		{
			name:      "unknown function",
			rules:     []Rule{{Cond: "sqr(Y_M) > 0"}},
			wantIdx:   []int{0},
			wantSev:   []Severity{SeverityError},
			wantInMsg: []string{"sqr"},
		},
		{
			name:  "constants are known",
			rules: []Rule{{Cond: "Y_M > 5 * GeV & abs(muplus_PT) > pi"}},
		},
		{
			name:      "forward reference",
			rules:     []Rule{{Cond: "L0"}, {Cond: "Hlt1", CompareTo: Index(1)}},
			wantIdx:   []int{1},
			wantSev:   []Severity{SeverityWarning},
			wantInMsg: []string{"not an earlier rule"},
		},
		{
			name:      "reused key",
			rules:     []Rule{{Cond: "L0", Key: "trig"}, {Cond: "Hlt1", Key: "trig"}},
			wantIdx:   []int{1},
			wantSev:   []Severity{SeverityWarning},
			wantInMsg: []string{"also used by rule 0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Lint(tt.rules, opts)
			if len(issues) != len(tt.wantIdx) {
				t.Fatalf("Lint() = %v, want %d issues", issues, len(tt.wantIdx))
			}
			for i, issue := range issues {
				if issue.Index != tt.wantIdx[i] || issue.Severity != tt.wantSev[i] {
					t.Errorf("issue %d = %v", i, issue)
				}
				text := issue.Message
				if issue.Err != nil {
					text += " " + issue.Err.Error()
				}
				if !strings.Contains(text, tt.wantInMsg[i]) {
					t.Errorf("issue %d = %q, want it to mention %q", i, text, tt.wantInMsg[i])
				}
			}
		})
	}
}

func TestLint_Suggestions(t *testing.T) {
	issues := Lint([]Rule{{Cond: "muplus_isMuom & Hlt1"}}, LintOptions{
		Branches: []string{"muplus_isMuon", "Hlt1"},
	})
	if len(issues) != 1 {
		t.Fatalf("Lint() = %v", issues)
	}

	var xe *exprErrors.Error
	if !errors.As(issues[0].Err, &xe) {
		t.Fatalf("issue error = %v, want *errors.Error", issues[0].Err)
	}
	if !errors.Is(xe, exprErrors.ErrUndefinedSymbol) {
		t.Errorf("error kind = %v", xe.Kind)
	}
	if !strings.Contains(xe.Suggestion, "muplus_isMuon") {
		t.Errorf("Suggestion = %q", xe.Suggestion)
	}
	if !HasErrors(issues) {
		t.Error("HasErrors() = false")
	}
}

func TestLint_SkipsNamesWithoutBranches(t *testing.T) {
	issues := Lint([]Rule{{Cond: "anything > 1"}}, LintOptions{})
	if len(issues) != 0 || HasErrors(issues) {
		t.Errorf("Lint() = %v, want no issues", issues)
	}
}
