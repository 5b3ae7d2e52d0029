package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"umd-lhcb/tupling/pkg/boolean/ast"
	"umd-lhcb/tupling/pkg/boolean/value"
	"umd-lhcb/tupling/pkg/cli"
)

var evalFlags struct {
	data   []string
	tree   string
	ast    bool
	format string
}

var evalCmd = &cobra.Command{
	Use:   "eval <expression>",
	Short: "Evaluate an expression",
	Long: `Evaluate a cut expression against a tree and print the result.

Variables that are not registered constants are read as branches of the
tree. Without data files only constants and literals can be used.

Examples:
  # Constant folding
  tupling eval "2 * pi"

  # Branch arithmetic over a YAML fixture
  tupling eval "Y_PT / GeV" --data ntuple.yaml --tree TupleB0/DecayTree

  # Print the syntax tree instead of evaluating
  tupling eval "a > 1 & !b" --ast`,
	Args: cobra.ExactArgs(1),
	RunE: evalExpression,
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringSliceVarP(&evalFlags.data, "data", "d", nil, "data files (uses config if not specified)")
	evalCmd.Flags().StringVarP(&evalFlags.tree, "tree", "t", "", "tree name (uses config if not specified)")
	evalCmd.Flags().BoolVar(&evalFlags.ast, "ast", false, "print the syntax tree and exit")
	evalCmd.Flags().StringVar(&evalFlags.format, "format", "text", "output format: text, json, yaml, csv, markdown")
}

// evalReport is the outcome of one evaluation.
type evalReport struct {
	Expression string `json:"expression" yaml:"expression"`
	Tree       string `json:"tree,omitempty" yaml:"tree,omitempty"`
	Kind       string `json:"kind" yaml:"kind"`
	Length     int    `json:"length" yaml:"length"`
	Scalar     bool   `json:"scalar" yaml:"scalar"`
	Passed     *int64 `json:"passed,omitempty" yaml:"passed,omitempty"`
	Value      any    `json:"value" yaml:"value"`

	v value.Value
}

func newEvalReport(expr, tree string, v value.Value) *evalReport {
	r := &evalReport{
		Expression: expr,
		Tree:       tree,
		Kind:       v.Kind().String(),
		Length:     v.Len(),
		Scalar:     v.IsScalar(),
		Value:      v.Interface(),
		v:          v,
	}
	if v.Kind() == value.KindBool && !v.IsScalar() {
		n := v.Count()
		r.Passed = &n
	}
	return r
}

// Table lists array results one entry per row.
func (r *evalReport) Table() cli.Table {
	t := cli.Table{
		Headers:    []string{"Entry", "Value"},
		RightAlign: []bool{true, true},
	}
	if r.v.IsScalar() {
		t.Rows = [][]string{{"-", r.v.String()}}
		return t
	}
	t.Rows = make([][]string, r.v.Len())
	for i := range r.v.Len() {
		t.Rows[i] = []string{strconv.Itoa(i), element(r.v, i)}
	}
	return t
}

// element formats the i-th entry of an array value.
func element(v value.Value, i int) string {
	switch v.Kind() {
	case value.KindInt:
		return strconv.FormatInt(v.Ints()[i], 10)
	case value.KindFloat:
		return strconv.FormatFloat(v.Floats()[i], 'g', -1, 64)
	default:
		return strconv.FormatBool(v.Bools()[i])
	}
}

func evalExpression(cmd *cobra.Command, args []string) error {
	expr := args[0]
	out := cmd.OutOrStdout()

	if evalFlags.ast {
		node, err := newParser().Parse(expr)
		if err != nil {
			return err
		}
		fmt.Fprint(out, ast.Pretty(node))
		return nil
	}

	formatter, err := outputFormat(evalFlags.format)
	if err != nil {
		return err
	}

	source, closeData, err := openData(&app.current().Data, evalFlags.data)
	if err != nil {
		return err
	}
	defer closeData()

	tree := evalFlags.tree
	if tree == "" {
		tree = app.current().Data.Tree
	}

	ctx, span := app.tracer.Start(cmd.Context(), "tupling.eval")
	defer span.End()

	v, err := newEvaluator(source, tree).Eval(ctx, expr)
	if err != nil {
		return err
	}

	if f, _ := cli.ParseFormat(evalFlags.format); f == cli.FormatText && v.IsScalar() {
		fmt.Fprintln(out, v.String())
		return nil
	}
	return formatter.FormatTo(out, newEvalReport(expr, tree, v))
}
