package eval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"umd-lhcb/tupling/pkg/boolean/ast"
	exprErrors "umd-lhcb/tupling/pkg/boolean/errors"
	"umd-lhcb/tupling/pkg/boolean/parser"
	"umd-lhcb/tupling/pkg/boolean/value"
	"umd-lhcb/tupling/pkg/ntuple"
)

const tracerName = "umd-lhcb/tupling/pkg/boolean/eval"

// Observer receives evaluation events, typically to export metrics.
type Observer interface {
	// ObserveFetch is called after every bulk branch fetch.
	ObserveFetch(tree string, branches int, duration time.Duration, err error)

	// ObserveEval is called after every evaluation with the number of
	// variable references served from the cache.
	ObserveEval(duration time.Duration, cacheHits int, err error)
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithSymbols replaces the default constants.
func WithSymbols(symbols Symbols) Option {
	return func(e *Evaluator) {
		e.symbols = maps.Clone(symbols)
	}
}

// WithFunctions replaces the default function registry.
func WithFunctions(funcs Functions) Option {
	return func(e *Evaluator) {
		e.funcs = maps.Clone(funcs)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithObserver sets the observer notified of fetches and evaluations.
func WithObserver(o Observer) Option {
	return func(e *Evaluator) {
		e.observer = o
	}
}

// WithParser sets the parser used for expression text.
func WithParser(p *parser.Parser) Option {
	return func(e *Evaluator) {
		e.parser = p
	}
}

// WithTracer sets the tracer used for evaluation spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Evaluator) {
		e.tracer = t
	}
}

// Evaluator is an evaluation session over one tree of a data source.
type Evaluator struct {
	source ntuple.Source
	tree   string

	symbols Symbols
	funcs   Functions
	cache   map[string]value.Value
	parsed  map[string]ast.Node

	parser   *parser.Parser
	logger   *slog.Logger
	observer Observer
	tracer   trace.Tracer

	fetches int
}

// New creates an evaluator reading branches of tree from source. A nil
// source is allowed; any variable that is not a registered constant is then
// undefined.
func New(source ntuple.Source, tree string, opts ...Option) *Evaluator {
	e := &Evaluator{
		source:  source,
		tree:    tree,
		symbols: DefaultSymbols(),
		funcs:   DefaultFunctions(),
		parsed:  make(map[string]ast.Node),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.parser == nil {
		e.parser = parser.NewParser()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	e.logger = e.logger.With("component", "boolean.eval", "tree", tree)

	// The registry seeds the cache; the registry itself is never written.
	e.cache = maps.Clone(e.symbols)
	if e.cache == nil {
		e.cache = make(map[string]value.Value)
	}
	return e
}

// Source returns the data source.
func (e *Evaluator) Source() ntuple.Source { return e.source }

// Tree returns the tree name.
func (e *Evaluator) Tree() string { return e.tree }

// Symbols returns the registered constants.
func (e *Evaluator) Symbols() Symbols { return e.symbols }

// Functions returns the function registry.
func (e *Evaluator) Functions() Functions { return e.funcs }

// Cached returns the cached value of name, if any.
func (e *Evaluator) Cached(name string) (value.Value, bool) {
	v, ok := e.cache[name]
	return v, ok
}

// Fetches returns the number of bulk fetches issued so far.
func (e *Evaluator) Fetches() int { return e.fetches }

// Entries returns the number of events in the tree.
func (e *Evaluator) Entries(ctx context.Context) (int, error) {
	if e.source == nil {
		return 0, errors.New("evaluator has no data source")
	}
	return e.source.Entries(ctx, e.tree)
}

// Parse parses expr, reusing the tree of an earlier parse of the same text.
func (e *Evaluator) Parse(expr string) (ast.Node, error) {
	if node, ok := e.parsed[expr]; ok {
		return node, nil
	}
	node, err := e.parser.Parse(expr)
	if err != nil {
		return nil, err
	}
	e.parsed[expr] = node
	return node, nil
}

// Eval parses and evaluates expr.
func (e *Evaluator) Eval(ctx context.Context, expr string) (value.Value, error) {
	node, err := e.Parse(expr)
	if err != nil {
		return value.Value{}, err
	}
	return e.EvalNode(ctx, node, expr)
}

// EvalNode evaluates a parsed tree. expr is the source text, attached to
// errors for context; it may be empty.
func (e *Evaluator) EvalNode(ctx context.Context, node ast.Node, expr string) (result value.Value, err error) {
	ctx, span := e.tracer.Start(ctx, "boolean.eval",
		trace.WithAttributes(attribute.String("tupling.expression", expr)))
	start := time.Now()
	hits := 0

	defer func() {
		if err != nil {
			if xe, ok := exprErrors.As(err); ok {
				xe.In(expr)
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		if e.observer != nil {
			e.observer.ObserveEval(time.Since(start), hits, err)
		}
	}()

	hits, err = e.resolve(ctx, node)
	if err != nil {
		return value.Value{}, err
	}

	result, err = e.fold(node)
	if err != nil {
		return value.Value{}, err
	}

	e.logger.Debug("expression evaluated",
		"expression", expr,
		"kind", result.Kind().String(),
		"len", result.Len(),
		"scalar", result.IsScalar(),
	)
	return result, nil
}

// resolve fetches every uncached variable of node in one request and returns
// how many variables were already cached.
func (e *Evaluator) resolve(ctx context.Context, node ast.Node) (int, error) {
	var missing []string
	hits := 0
	for _, name := range ast.Variables(node) {
		if _, ok := e.cache[name]; ok {
			hits++
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		return hits, nil
	}

	if e.source == nil {
		return hits, e.undefined(ctx, node, missing[0], nil)
	}

	ctx, span := e.tracer.Start(ctx, "ntuple.fetch", trace.WithAttributes(
		attribute.String("tupling.tree", e.tree),
		attribute.StringSlice("tupling.branches", missing),
	))
	defer span.End()

	start := time.Now()
	cols, err := e.source.Branches(ctx, e.tree, missing)
	e.fetches++
	if e.observer != nil {
		e.observer.ObserveFetch(e.tree, len(missing), time.Since(start), err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var bnf *ntuple.BranchNotFoundError
		if errors.As(err, &bnf) && len(bnf.Names) > 0 {
			return hits, e.undefined(ctx, node, bnf.Names[0], err)
		}
		return hits, fmt.Errorf("fetching branches from tree %q: %w", e.tree, err)
	}

	for _, name := range missing {
		v, ok := cols[name]
		if !ok {
			return hits, e.undefined(ctx, node, name, nil)
		}
		e.cache[name] = v
	}

	e.logger.Debug("branches fetched",
		"branches", missing,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return hits, nil
}

// undefined builds an undefined-symbol error for name, positioned at its first
// use in node, with a suggestion drawn from cached names and source branches.
func (e *Evaluator) undefined(ctx context.Context, node ast.Node, name string, cause error) error {
	err := exprErrors.NewUndefinedSymbolError(name)
	if cause != nil {
		err.WithCause(cause)
	}

	ast.Inspect(node, func(n ast.Node) bool {
		if v, ok := n.(*ast.Variable); ok && v.Name == name {
			err.At(v.At.Offset)
			return false
		}
		return true
	})

	candidates := make([]string, 0, len(e.cache))
	for k := range e.cache {
		candidates = append(candidates, k)
	}
	if lister, ok := e.source.(ntuple.BranchLister); ok {
		if names, lerr := lister.ListBranches(ctx, e.tree); lerr == nil {
			candidates = append(candidates, names...)
		}
	}
	if s := exprErrors.SuggestName(name, candidates); s != "" {
		err.WithSuggestion(s)
	}
	return err
}

// fold evaluates node bottom-up. All variables must already be cached.
func (e *Evaluator) fold(node ast.Node) (value.Value, error) {
	switch n := node.(type) {
	case *ast.NumberLiteral:
		if n.IsFloat {
			return value.Float(n.Float), nil
		}
		return value.Int(n.Int), nil

	case *ast.BoolLiteral:
		return value.Bool(n.Value), nil

	case *ast.Variable:
		v, ok := e.cache[n.Name]
		if !ok {
			return value.Value{}, exprErrors.NewUndefinedSymbolError(n.Name).At(n.At.Offset)
		}
		return v, nil

	case *ast.UnaryOp:
		operand, err := e.fold(n.Operand)
		if err != nil {
			return value.Value{}, err
		}
		if n.Op == ast.LogicalNot {
			return value.Not(operand), nil
		}
		return value.Neg(operand), nil

	case *ast.BinaryOp:
		left, err := e.fold(n.Left)
		if err != nil {
			return value.Value{}, err
		}
		right, err := e.fold(n.Right)
		if err != nil {
			return value.Value{}, err
		}
		v, err := binary(n.Op, left, right)
		if err != nil {
			return value.Value{}, locate(err, n.At, n.Op.String())
		}
		return v, nil

	case *ast.FunctionCall:
		fn, ok := e.funcs[n.Name]
		if !ok {
			err := exprErrors.NewUndefinedFunctionError(n.Name).At(n.At.Offset)
			return value.Value{}, err.WithSuggestion(exprErrors.SuggestFunction(n.Name, e.funcs.Names()))
		}

		args := make([]value.Value, len(n.Args))
		for i, arg := range n.Args {
			v, err := e.fold(arg)
			if err != nil {
				return value.Value{}, err
			}
			args[i] = v
		}

		v, err := fn(args...)
		if err != nil {
			return value.Value{}, locate(err, n.At, n.Name)
		}
		return v, nil

	default:
		return value.Value{}, exprErrors.Newf(exprErrors.KindType, "unsupported node %T", node)
	}
}

var arithOps = map[ast.BinaryKind]value.ArithOp{
	ast.Add: value.OpAdd,
	ast.Sub: value.OpSub,
	ast.Mul: value.OpMul,
	ast.Div: value.OpDiv,
}

var compareOps = map[ast.BinaryKind]value.CompareOp{
	ast.Eq:  value.OpEq,
	ast.Neq: value.OpNeq,
	ast.Gt:  value.OpGt,
	ast.Gte: value.OpGte,
	ast.Lt:  value.OpLt,
	ast.Lte: value.OpLte,
}

func binary(op ast.BinaryKind, left, right value.Value) (value.Value, error) {
	switch {
	case op.IsArithmetic():
		return value.Arith(arithOps[op], left, right)
	case op.IsComparison():
		return value.Compare(compareOps[op], left, right)
	case op.IsLogical():
		if op == ast.And {
			return value.And(left, right)
		}
		return value.Or(left, right)
	}
	return value.Value{}, exprErrors.Newf(exprErrors.KindType, "unsupported operator %s", op)
}

// locate returns err positioned at the node and naming its operator or
// function, as an *errors.Error. Errors that are not expression errors
// become type errors wrapping the original.
func locate(err error, at ast.Position, token string) error {
	xe, ok := exprErrors.As(err)
	if !ok {
		return exprErrors.NewTypeError(err.Error()).WithCause(err).At(at.Offset).WithToken(token)
	}

	// Copy so errors shared by registered functions are never modified.
	cp := *xe
	if cp.Position < 0 {
		cp.Position = at.Offset
	}
	if cp.Token == "" {
		cp.Token = token
	}
	return &cp
}
