// Package boolean is the entry point to the cut expression language.
//
// Subpackages hold the pieces: ast (syntax tree), parser, value (scalar and
// array values), eval (evaluation sessions and the function registry) and
// errors. This package offers one-call helpers for the common cases.
package boolean

import (
	"context"

	"umd-lhcb/tupling/pkg/boolean/ast"
	"umd-lhcb/tupling/pkg/boolean/eval"
	"umd-lhcb/tupling/pkg/boolean/parser"
	"umd-lhcb/tupling/pkg/boolean/value"
	"umd-lhcb/tupling/pkg/ntuple"
)

// Parse parses a cut expression.
func Parse(expr string) (ast.Node, error) {
	return parser.Parse(expr)
}

// Pretty parses expr and renders its tree.
func Pretty(expr string) (string, error) {
	node, err := parser.Parse(expr)
	if err != nil {
		return "", err
	}
	return ast.Pretty(node), nil
}

// Eval evaluates expr in a fresh session over tree. For repeated evaluations
// over the same data, create an eval.Evaluator once and reuse its cache.
func Eval(ctx context.Context, source ntuple.Source, tree, expr string, opts ...eval.Option) (value.Value, error) {
	return eval.New(source, tree, opts...).Eval(ctx, expr)
}
