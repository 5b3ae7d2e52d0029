package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"umd-lhcb/tupling/pkg/cli"
	"umd-lhcb/tupling/pkg/cutflow"
	"umd-lhcb/tupling/pkg/ntuple"
)

var lintFlags struct {
	rules  string
	data   []string
	tree   string
	strict bool
	format string
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Validate a rules file",
	Long: `Validate a rules file without evaluating it.

The lint command checks:
  - Condition syntax
  - Calls to unknown functions
  - Variables that are neither constants nor branches (needs --data)
  - compare_to references that do not point at an earlier rule
  - Result keys used by more than one rule

Examples:
  # Syntax and reference checks only
  tupling lint --rules cuts.yaml

  # Also check branch names against the data
  tupling lint --rules cuts.yaml --data ntuple.yaml

  # Treat warnings as errors, JSON output for CI
  tupling lint --rules cuts.yaml --strict --format json`,
	Args: cobra.NoArgs,
	RunE: lintRules,
}

func init() {
	rootCmd.AddCommand(lintCmd)

	lintCmd.Flags().StringVarP(&lintFlags.rules, "rules", "r", "", "rules file (uses config if not specified)")
	lintCmd.Flags().StringSliceVarP(&lintFlags.data, "data", "d", nil, "data files used to check branch names")
	lintCmd.Flags().StringVarP(&lintFlags.tree, "tree", "t", "", "tree name (overrides the rules file)")
	lintCmd.Flags().BoolVar(&lintFlags.strict, "strict", false, "treat warnings as errors")
	lintCmd.Flags().StringVar(&lintFlags.format, "format", "text", "output format: text, json, yaml, csv, markdown")
}

// LintResult is the lint outcome for one rules file.
type LintResult struct {
	File   string      `json:"file" yaml:"file"`
	Valid  bool        `json:"valid" yaml:"valid"`
	Issues []LintIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// LintIssue is one reported problem.
type LintIssue struct {
	Rule     int    `json:"rule" yaml:"rule"`
	Line     int    `json:"line,omitempty" yaml:"line,omitempty"`
	Severity string `json:"severity" yaml:"severity"`
	Message  string `json:"message" yaml:"message"`
}

// Table implements cli.Tabular.
func (r *LintResult) Table() cli.Table {
	t := cli.Table{
		Headers:    []string{"Rule", "Line", "Severity", "Message"},
		RightAlign: []bool{true, true, false, false},
		Rows:       make([][]string, len(r.Issues)),
	}
	for i, issue := range r.Issues {
		line := "-"
		if issue.Line > 0 {
			line = strconv.Itoa(issue.Line)
		}
		t.Rows[i] = []string{strconv.Itoa(issue.Rule), line, issue.Severity, issue.Message}
	}
	return t
}

func lintRules(cmd *cobra.Command, args []string) error {
	formatter, err := outputFormat(lintFlags.format)
	if err != nil {
		return err
	}

	path := firstNonEmpty(lintFlags.rules, app.cfg.Cutflow.RulesFile)
	if lintFlags.rules == "" && app.cfg.Cutflow.Repo.URL != "" {
		cfg := app.cfg.Cutflow
		if _, err := syncRules(commandContext(cmd), &cfg); err != nil {
			return err
		}
		path = cfg.RulesFile
	}
	if path == "" {
		return cli.NewConfigError("cutflow.rules_file", "no rules file given by --rules or the config")
	}

	set, err := cutflow.LoadRules(path)
	if err != nil {
		return err
	}

	// An evaluator without data carries the registries the run would use.
	ev := newEvaluator(nil, "")
	opts := cutflow.LintOptions{
		Parser:    newParser(),
		Functions: ev.Functions(),
		Symbols:   ev.Symbols(),
	}

	if len(lintFlags.data) > 0 {
		branches, err := lintBranches(cmd, set)
		if err != nil {
			return err
		}
		opts.Branches = branches
	}

	result := &LintResult{File: path, Valid: true}
	for _, issue := range cutflow.Lint(set.Rules, opts) {
		if issue.Severity == cutflow.SeverityError || lintFlags.strict {
			result.Valid = false
		}
		result.Issues = append(result.Issues, LintIssue{
			Rule:     issue.Index,
			Line:     set.Line(issue.Index),
			Severity: string(issue.Severity),
			Message:  issue.Message,
		})
	}

	out := cmd.OutOrStdout()
	if f, _ := cli.ParseFormat(lintFlags.format); f == cli.FormatText && len(result.Issues) == 0 {
		fmt.Fprintf(out, "%s: %d rules OK\n", path, len(set.Rules))
	} else if err := formatter.FormatTo(out, result); err != nil {
		return err
	}

	if !result.Valid {
		return fmt.Errorf("%s: lint failed with %d issues", path, len(result.Issues))
	}
	return nil
}

// lintBranches lists the branches of the tree the rules run on.
func lintBranches(cmd *cobra.Command, set *cutflow.RuleSet) ([]string, error) {
	source, closeData, err := openData(&app.current().Data, lintFlags.data)
	if err != nil {
		return nil, err
	}
	defer closeData()

	lister, ok := source.(ntuple.BranchLister)
	if !ok {
		return nil, nil
	}

	tree := firstNonEmpty(lintFlags.tree, set.Tree, app.current().Data.Tree)
	if tree == "" {
		return nil, cli.NewConfigError("data.tree", "no tree given by --tree, the rules file or the config")
	}
	return lister.ListBranches(commandContext(cmd), tree)
}
