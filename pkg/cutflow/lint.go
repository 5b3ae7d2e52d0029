package cutflow

import (
	"fmt"
	"slices"

	"umd-lhcb/tupling/pkg/boolean/ast"
	exprErrors "umd-lhcb/tupling/pkg/boolean/errors"
	"umd-lhcb/tupling/pkg/boolean/eval"
	"umd-lhcb/tupling/pkg/boolean/parser"
)

// Severity classifies a lint issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a problem found in a rule list without evaluating it.
type Issue struct {
	Index    int
	Severity Severity
	Message  string
	Err      error
}

// String returns a one-line description of the issue.
func (i Issue) String() string {
	return fmt.Sprintf("rule %d: %s: %s", i.Index, i.Severity, i.Message)
}

// LintOptions configures Lint. Checks whose data is missing are skipped.
type LintOptions struct {
	// Parser parses conditions. Default: parser.NewParser().
	Parser *parser.Parser

	// Functions, when set, is used to report calls to unknown functions.
	Functions eval.Functions

	// Symbols are the constants that need no branch.
	Symbols eval.Symbols

	// Branches, when set, is used to report variables that are neither
	// constants nor branches.
	Branches []string
}

// Lint checks rules for syntax errors, unknown names, references that do not
// point at an earlier rule and result keys that are reused.
func Lint(rules []Rule, opts LintOptions) []Issue {
	p := opts.Parser
	if p == nil {
		p = parser.NewParser()
	}

	var known []string
	if opts.Branches != nil {
		known = append(known, opts.Branches...)
		known = append(known, opts.Symbols.Names()...)
	}

	var issues []Issue
	keys := make(map[string]int)

	for idx, raw := range rules {
		rule := raw.Normalize()

		node, err := p.Parse(rule.Cond)
		if err != nil {
			issues = append(issues, Issue{Index: idx, Severity: SeverityError, Message: "invalid condition", Err: err})
		} else {
			issues = append(issues, lintNames(idx, node, opts, known)...)
		}

		r := rule.Reference()
		target := r.Resolve(idx)
		if (target < 0 || target >= idx) && (target != -1 || r != Previous) {
			issues = append(issues, Issue{
				Index:    idx,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("compare_to %s resolves to rule %d, which is not an earlier rule; the initial count is used", r, target),
			})
		}

		key := rule.ResultKey()
		if prev, ok := keys[key]; ok {
			issues = append(issues, Issue{
				Index:    idx,
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("result key %q is also used by rule %d; this rule replaces it", key, prev),
			})
		}
		keys[key] = idx
	}

	return issues
}

func lintNames(idx int, node ast.Node, opts LintOptions, known []string) []Issue {
	var issues []Issue

	if opts.Functions != nil {
		for _, name := range ast.Functions(node) {
			if _, ok := opts.Functions[name]; ok {
				continue
			}
			err := exprErrors.NewUndefinedFunctionError(name).
				WithSuggestion(exprErrors.SuggestFunction(name, opts.Functions.Names()))
			issues = append(issues, Issue{Index: idx, Severity: SeverityError, Message: err.Message, Err: err})
		}
	}

	if opts.Branches != nil {
		for _, name := range ast.Variables(node) {
			if _, ok := opts.Symbols[name]; ok || slices.Contains(opts.Branches, name) {
				continue
			}
			err := exprErrors.NewUndefinedSymbolError(name).
				WithSuggestion(exprErrors.SuggestName(name, known))
			issues = append(issues, Issue{Index: idx, Severity: SeverityError, Message: err.Message, Err: err})
		}
	}

	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}
