package value

import (
	"math"

	exprErrors "umd-lhcb/tupling/pkg/boolean/errors"
)

// ArithOp is an elementwise arithmetic operator.
type ArithOp uint8

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
)

var arithSymbols = [...]string{OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/"}

func (op ArithOp) String() string { return arithSymbols[op] }

// CompareOp is an elementwise comparison operator.
type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
)

var compareSymbols = [...]string{OpEq: "==", OpNeq: "!=", OpGt: ">", OpGte: ">=", OpLt: "<", OpLte: "<="}

func (op CompareOp) String() string { return compareSymbols[op] }

// shape returns the result length of combining a and b elementwise.
func shape(op string, a, b Value) (n int, array bool, err error) {
	switch {
	case !a.array && !b.array:
		return 1, false, nil
	case !a.array:
		return b.Len(), true, nil
	case !b.array:
		return a.Len(), true, nil
	case a.Len() != b.Len():
		return 0, false, exprErrors.NewShapeError(op, a.Len(), b.Len())
	default:
		return a.Len(), true, nil
	}
}

// zip applies f to aligned elements. An operand shorter than n is a scalar
// and is broadcast.
func zip[T, R any](n int, x, y []T, f func(T, T) R) []R {
	out := make([]R, n)
	for i := range out {
		a, b := x[0], y[0]
		if len(x) == n {
			a = x[i]
		}
		if len(y) == n {
			b = y[i]
		}
		out[i] = f(a, b)
	}
	return out
}

// Arith applies an arithmetic operator elementwise.
func Arith(op ArithOp, a, b Value) (Value, error) {
	n, array, err := shape(op.String(), a, b)
	if err != nil {
		return Value{}, err
	}

	if op == OpDiv || a.kind == KindFloat || b.kind == KindFloat {
		var f func(x, y float64) float64
		switch op {
		case OpAdd:
			f = func(x, y float64) float64 { return x + y }
		case OpSub:
			f = func(x, y float64) float64 { return x - y }
		case OpMul:
			f = func(x, y float64) float64 { return x * y }
		default:
			f = func(x, y float64) float64 { return x / y }
		}
		return Value{kind: KindFloat, array: array, floats: zip(n, a.Floats(), b.Floats(), f)}, nil
	}

	var f func(x, y int64) int64
	switch op {
	case OpAdd:
		f = func(x, y int64) int64 { return x + y }
	case OpSub:
		f = func(x, y int64) int64 { return x - y }
	default:
		f = func(x, y int64) int64 { return x * y }
	}
	return Value{kind: KindInt, array: array, ints: zip(n, a.Ints(), b.Ints(), f)}, nil
}

// Add returns a + b.
func Add(a, b Value) (Value, error) { return Arith(OpAdd, a, b) }

// Sub returns a - b.
func Sub(a, b Value) (Value, error) { return Arith(OpSub, a, b) }

// Mul returns a * b.
func Mul(a, b Value) (Value, error) { return Arith(OpMul, a, b) }

// Div returns a / b as float.
func Div(a, b Value) (Value, error) { return Arith(OpDiv, a, b) }

// Compare applies a comparison operator elementwise and returns bools.
// Two bool operands compare as bools; otherwise operands compare as ints when
// neither is float, and as floats when either is.
func Compare(op CompareOp, a, b Value) (Value, error) {
	n, array, err := shape(op.String(), a, b)
	if err != nil {
		return Value{}, err
	}

	var out []bool
	switch {
	case a.kind == KindBool && b.kind == KindBool && (op == OpEq || op == OpNeq):
		out = zip(n, a.Bools(), b.Bools(), func(x, y bool) bool { return (x == y) == (op == OpEq) })
	case a.kind == KindFloat || b.kind == KindFloat:
		out = zip(n, a.Floats(), b.Floats(), compareFunc[float64](op))
	default:
		out = zip(n, a.Ints(), b.Ints(), compareFunc[int64](op))
	}
	return Value{kind: KindBool, array: array, bools: out}, nil
}

func compareFunc[T int64 | float64](op CompareOp) func(x, y T) bool {
	switch op {
	case OpEq:
		return func(x, y T) bool { return x == y }
	case OpNeq:
		return func(x, y T) bool { return x != y }
	case OpGt:
		return func(x, y T) bool { return x > y }
	case OpGte:
		return func(x, y T) bool { return x >= y }
	case OpLt:
		return func(x, y T) bool { return x < y }
	default:
		return func(x, y T) bool { return x <= y }
	}
}

// And returns the elementwise logical AND. Both operands are always fully
// evaluated; non-zero numbers count as true.
func And(a, b Value) (Value, error) {
	n, array, err := shape("&", a, b)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: KindBool, array: array, bools: zip(n, a.Bools(), b.Bools(), func(x, y bool) bool { return x && y })}, nil
}

// Or returns the elementwise logical OR.
func Or(a, b Value) (Value, error) {
	n, array, err := shape("|", a, b)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: KindBool, array: array, bools: zip(n, a.Bools(), b.Bools(), func(x, y bool) bool { return x || y })}, nil
}

// Not returns the elementwise logical complement.
func Not(v Value) Value {
	bs := v.Bools()
	for i := range bs {
		bs[i] = !bs[i]
	}
	return Value{kind: KindBool, array: v.array, bools: bs}
}

// Neg returns -v. Bools are negated as ints.
func Neg(v Value) Value {
	if v.kind == KindFloat {
		fs := v.Floats()
		for i := range fs {
			fs[i] = -fs[i]
		}
		return Value{kind: KindFloat, array: v.array, floats: fs}
	}
	is := v.Ints()
	for i := range is {
		is[i] = -is[i]
	}
	return Value{kind: KindInt, array: v.array, ints: is}
}

// Abs returns |v|, keeping ints as ints.
func Abs(v Value) Value {
	if v.kind == KindFloat {
		return Map(v, math.Abs)
	}
	is := v.Ints()
	for i, x := range is {
		if x < 0 {
			is[i] = -x
		}
	}
	return Value{kind: KindInt, array: v.array, ints: is}
}

// Map applies f to every element as float64.
func Map(v Value, f func(float64) float64) Value {
	fs := v.Floats()
	for i, x := range fs {
		fs[i] = f(x)
	}
	return Value{kind: KindFloat, array: v.array, floats: fs}
}

// MapN applies f to aligned elements of all args as float64, broadcasting
// scalars. The result is a scalar only if every argument is.
func MapN(name string, f func(xs []float64) float64, args ...Value) (Value, error) {
	n, array := 1, false
	for _, a := range args {
		if !a.array {
			continue
		}
		if array && a.Len() != n {
			return Value{}, exprErrors.NewShapeError(name, n, a.Len())
		}
		n, array = a.Len(), true
	}

	cols := make([][]float64, len(args))
	for i, a := range args {
		cols[i] = a.Floats()
	}

	out := make([]float64, n)
	xs := make([]float64, len(args))
	for i := range out {
		for j, col := range cols {
			if len(col) == n {
				xs[j] = col[i]
			} else {
				xs[j] = col[0]
			}
		}
		out[i] = f(xs)
	}
	return Value{kind: KindFloat, array: array, floats: out}, nil
}
