package eval

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	exprErrors "umd-lhcb/tupling/pkg/boolean/errors"
	"umd-lhcb/tupling/pkg/boolean/value"
	"umd-lhcb/tupling/pkg/ntuple"
)

const tree = "TupleB0/DecayTree"

// countingSource records every bulk request made to the wrapped source.
type countingSource struct {
	*ntuple.MemorySource
	requests [][]string
}

func (c *countingSource) Branches(ctx context.Context, tree string, names []string) (map[string]value.Value, error) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	c.requests = append(c.requests, sorted)
	return c.MemorySource.Branches(ctx, tree, names)
}

func newSource(t *testing.T) *countingSource {
	t.Helper()

	mem := ntuple.NewMemorySource()
	if err := mem.AddTree(tree, map[string]value.Value{
		"Y_PT":          value.Floats([]float64{1200, 800, 3000, 50}),
		"Y_M":           value.Floats([]float64{5280, 5100, 5300, 5279}),
		"muplus_isMuon": value.Bools([]bool{true, false, true, true}),
		"nTracks":       value.Ints([]int64{10, 250, 30, 40}),
	}); err != nil {
		t.Fatalf("AddTree() error = %v", err)
	}
	return &countingSource{MemorySource: mem}
}

func TestEval_Arithmetic(t *testing.T) {
	ev := New(nil, tree, WithSymbols(Symbols{
		"pi": value.Float(3.14),
		"e":  value.Float(2.72),
		"g":  value.Float(9.8),
	}))
	ctx := context.Background()

	pi, g := 3.14, 9.8

	tests := []struct {
		expr string
		want value.Value
	}{
		{"-1", value.Int(-1)},
		{"1.85", value.Float(1.85)},
		{"true", value.Bool(true)},
		{"false", value.Bool(false)},
		{"g", value.Float(9.8)},
		{"-pi", value.Float(-3.14)},
		{"3*pi", value.Float(3 * pi)},
		{"g/pi", value.Float(g / pi)},
		{"3*(g/pi)", value.Float(3 * (g / pi))},
		{"-3+pi", value.Float(-3 + pi)},
		{"3-pi", value.Float(3 - pi)},
		{"3*(pi+3)/(g-2)", value.Float(3 * (pi + 3) / (g - 2))},
		{"7/2", value.Float(3.5)},
		{"2*3-1", value.Int(5)},
		{"ONE()", value.Int(1)},
		{"abs(-1-3*8)", value.Int(25)},
		{"abs(-pi+ONE())", value.Float(math.Abs(-pi + 1))},
		{"NORM2(3, 4)", value.Float(5)},
		{"max(1, 7.5, 3)", value.Float(7.5)},
		{"GT(2, 1) & LT(1, 2)", value.Bool(true)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ev.Eval(ctx, tt.expr)
			if err != nil {
				t.Fatalf("Eval(%q) error = %v", tt.expr, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Eval(%q) = %s (%s), want %s (%s)", tt.expr, got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

func TestEval_BooleanPrecedence(t *testing.T) {
	ev := New(nil, tree)
	ctx := context.Background()

	tests := []struct {
		expr string
		want bool
	}{
		{"false | true & true", true},
		{"false | false & true", false},
		{"true | false & false", true},
		{"!false & true", true},
		{"!(1 > 2)", true},
		{"1 + 1 == 2", true},
		{"TRUE != False", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ev.Eval(ctx, tt.expr)
			if err != nil {
				t.Fatalf("Eval(%q) error = %v", tt.expr, err)
			}
			if !got.Equal(value.Bool(tt.want)) {
				t.Errorf("Eval(%q) = %s, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEval_Vectorized(t *testing.T) {
	src := newSource(t)
	ev := New(src, tree)
	ctx := context.Background()

	tests := []struct {
		expr string
		want value.Value
	}{
		{"Y_PT > 1000", value.Bools([]bool{true, false, true, false})},
		{"Y_PT > 1000 & muplus_isMuon", value.Bools([]bool{true, false, true, false})},
		{"Y_PT > 1000 | !muplus_isMuon", value.Bools([]bool{true, true, true, false})},
		{"abs(Y_M - PDG_M_B0) < 10", value.Bools([]bool{true, false, false, true})},
		{"nTracks * 2", value.Ints([]int64{20, 500, 60, 80})},
		{"Y_PT / GeV", value.Floats([]float64{1.2, 0.8, 3, 0.05})},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ev.Eval(ctx, tt.expr)
			if err != nil {
				t.Fatalf("Eval(%q) error = %v", tt.expr, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Eval(%q) = %s, want %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEval_BulkFetchOnce(t *testing.T) {
	src := newSource(t)
	ev := New(src, tree)
	ctx := context.Background()

	if _, err := ev.Eval(ctx, "Y_PT > 1000 & Y_PT < 5000 & Y_M > 5000 & pi > 3"); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if _, err := ev.Eval(ctx, "Y_M < 5300 & muplus_isMuon"); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if _, err := ev.Eval(ctx, "Y_PT + Y_M"); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}

	want := [][]string{
		{"Y_M", "Y_PT"},
		{"muplus_isMuon"},
	}
	if !reflect.DeepEqual(src.requests, want) {
		t.Errorf("requests = %v, want %v", src.requests, want)
	}
	if ev.Fetches() != 2 {
		t.Errorf("Fetches() = %d, want 2", ev.Fetches())
	}
	if _, ok := ev.Cached("Y_PT"); !ok {
		t.Error("Y_PT should be cached")
	}
}

func TestEval_RegistryNotMutated(t *testing.T) {
	symbols := Symbols{"g": value.Float(9.8)}
	ev := New(newSource(t), tree, WithSymbols(symbols))

	if _, err := ev.Eval(context.Background(), "Y_PT * g"); err != nil {
		t.Fatalf("Eval() error = %v", err)
	}
	if len(symbols) != 1 || len(ev.Symbols()) != 1 {
		t.Errorf("registry grew: caller %d, evaluator %d", len(symbols), len(ev.Symbols()))
	}
}

func TestEval_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		expr       string
		kind       exprErrors.Kind
		position   int
		suggestion string
	}{
		{"syntax", "Y_PT >", exprErrors.KindSyntax, 6, ""},
		{"undefined symbol", "Y_PT > 1 & Y_PZ > 2", exprErrors.KindUndefinedSymbol, 11, "'Y_PT'"},
		{"undefined function", "abss(Y_PT)", exprErrors.KindUndefinedFunction, 0, "'abs'"},
		{"arity", "1 + NORM2(Y_PT)", exprErrors.KindArity, 4, ""},
		{"zero arity", "ONE(1)", exprErrors.KindArity, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := New(newSource(t), tree)
			_, err := ev.Eval(ctx, tt.expr)

			e, ok := exprErrors.As(err)
			if !ok {
				t.Fatalf("Eval(%q) error = %v, want *errors.Error", tt.expr, err)
			}
			if e.Kind != tt.kind {
				t.Errorf("Kind = %s, want %s", e.Kind, tt.kind)
			}
			if e.Position != tt.position {
				t.Errorf("Position = %d, want %d", e.Position, tt.position)
			}
			if e.Expression != tt.expr {
				t.Errorf("Expression = %q, want %q", e.Expression, tt.expr)
			}
			if !strings.Contains(e.Suggestion, tt.suggestion) {
				t.Errorf("Suggestion = %q, want to contain %q", e.Suggestion, tt.suggestion)
			}
		})
	}
}

func TestEval_ShapeMismatch(t *testing.T) {
	src := ntuple.NewMemorySource()
	_ = src.AddTree("a", map[string]value.Value{"x": value.Ints([]int64{1, 2, 3})})

	ev := New(src, "a", WithSymbols(Symbols{"y": value.Ints([]int64{1, 2})}))

	_, err := ev.Eval(context.Background(), "x > 1 & y > 1")
	if !errors.Is(err, exprErrors.ErrShape) {
		t.Fatalf("Eval() error = %v, want shape error", err)
	}
	e, _ := exprErrors.As(err)
	if e.Position != 6 {
		t.Errorf("Position = %d, want 6", e.Position)
	}
	if e.Token != "&" {
		t.Errorf("Token = %q, want %q", e.Token, "&")
	}
}

func TestEval_NoSource(t *testing.T) {
	ev := New(nil, tree)

	_, err := ev.Eval(context.Background(), "Y_PT > 1")
	if !errors.Is(err, exprErrors.ErrUndefinedSymbol) {
		t.Errorf("Eval() error = %v, want undefined symbol", err)
	}
	if _, err := ev.Entries(context.Background()); err == nil {
		t.Error("Entries() expected error without source")
	}
}

func TestEval_FunctionErrorWrapped(t *testing.T) {
	boom := errors.New("boom")
	ev := New(nil, tree, WithFunctions(Functions{
		"FAIL": func(args ...value.Value) (value.Value, error) { return value.Value{}, boom },
	}))

	_, err := ev.Eval(context.Background(), "2 * FAIL()")
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want to wrap boom", err)
	}
	if !exprErrors.IsKind(err, exprErrors.KindType) {
		t.Errorf("error kind = %v, want type", err)
	}
	if e, ok := exprErrors.As(err); !ok || e.Token != "FAIL" {
		t.Errorf("error token = %v, want FAIL", err)
	}

	// The default registry is replaced, not merged.
	if _, err := ev.Eval(context.Background(), "abs(1)"); !errors.Is(err, exprErrors.ErrUndefinedFunction) {
		t.Errorf("abs error = %v, want undefined function", err)
	}
}

type recordingObserver struct {
	fetches int
	evals   int
	hits    int
}

func (o *recordingObserver) ObserveFetch(string, int, time.Duration, error) { o.fetches++ }
func (o *recordingObserver) ObserveEval(_ time.Duration, hits int, _ error) {
	o.evals++
	o.hits += hits
}

func TestEval_Observer(t *testing.T) {
	obs := &recordingObserver{}
	ev := New(newSource(t), tree, WithObserver(obs))
	ctx := context.Background()

	_, _ = ev.Eval(ctx, "Y_PT > 1")
	_, _ = ev.Eval(ctx, "Y_PT > 2")

	if obs.fetches != 1 || obs.evals != 2 || obs.hits != 1 {
		t.Errorf("observer = %+v, want 1 fetch, 2 evals, 1 hit", *obs)
	}
}
