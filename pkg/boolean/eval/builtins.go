package eval

import (
	"math"
	"strconv"

	exprErrors "umd-lhcb/tupling/pkg/boolean/errors"
	"umd-lhcb/tupling/pkg/boolean/value"
)

// DefaultSymbols returns a fresh copy of the built-in constants: mathematical
// constants, energy units in MeV and PDG masses in MeV.
func DefaultSymbols() Symbols {
	return Symbols{
		"pi": value.Float(math.Pi),
		"e":  value.Float(math.E),

		"MeV": value.Float(1.0),
		"GeV": value.Float(1000.0),

		"PDG_M_B0":  value.Float(5279.64),
		"PDG_M_Dst": value.Float(2010.26),
		"PDG_M_D0":  value.Float(1864.83),
	}
}

// DefaultFunctions returns a fresh copy of the built-in functions.
// Lowercase names mirror functions ROOT can parse; uppercase names are
// analysis helpers.
func DefaultFunctions() Functions {
	return Functions{
		"abs":   fixed("abs", 1, func(a []value.Value) (value.Value, error) { return value.Abs(a[0]), nil }),
		"log":   unary("log", math.Log),
		"log10": unary("log10", math.Log10),
		"exp":   unary("exp", math.Exp),
		"sqrt":  unary("sqrt", math.Sqrt),
		"sin":   unary("sin", math.Sin),
		"cos":   unary("cos", math.Cos),
		"min":   atLeast("min", 1, reduce("min", math.Min)),
		"max":   atLeast("max", 1, reduce("max", math.Max)),

		"ONE": fixed("ONE", 0, func([]value.Value) (value.Value, error) { return value.Int(1), nil }),

		// log10(1 - cos θ) of the angle between two 3-momenta
		"LOG10pp": fixed("LOG10pp", 6, func(a []value.Value) (value.Value, error) {
			return value.MapN("LOG10pp", func(x []float64) float64 {
				dot := x[0]*x[3] + x[1]*x[4] + x[2]*x[5]
				n1 := math.Sqrt(x[0]*x[0] + x[1]*x[1] + x[2]*x[2])
				n2 := math.Sqrt(x[3]*x[3] + x[4]*x[4] + x[5]*x[5])
				return math.Log10(1 - dot/n1/n2)
			}, a...)
		}),

		// Pseudorapidity from total and longitudinal momentum
		"ETA": fixed("ETA", 2, func(a []value.Value) (value.Value, error) {
			return value.MapN("ETA", func(x []float64) float64 {
				return math.Log((x[0]+x[1])/(x[0]-x[1])) / 2
			}, a...)
		}),

		"NORM2": fixed("NORM2", 2, func(a []value.Value) (value.Value, error) {
			return value.MapN("NORM2", func(x []float64) float64 {
				return math.Sqrt(x[0]*x[0] + x[1]*x[1])
			}, a...)
		}),

		"GT": fixed("GT", 2, func(a []value.Value) (value.Value, error) { return value.Compare(value.OpGt, a[0], a[1]) }),
		"LT": fixed("LT", 2, func(a []value.Value) (value.Value, error) { return value.Compare(value.OpLt, a[0], a[1]) }),
	}
}

// fixed wraps f with a check for exactly n arguments.
func fixed(name string, n int, f func([]value.Value) (value.Value, error)) Func {
	return func(args ...value.Value) (value.Value, error) {
		if len(args) != n {
			return value.Value{}, exprErrors.NewArityError(name, strconv.Itoa(n), len(args))
		}
		return f(args)
	}
}

// atLeast wraps f with a check for n or more arguments.
func atLeast(name string, n int, f func([]value.Value) (value.Value, error)) Func {
	return func(args ...value.Value) (value.Value, error) {
		if len(args) < n {
			return value.Value{}, exprErrors.NewArityError(name, "at least "+strconv.Itoa(n), len(args))
		}
		return f(args)
	}
}

func unary(name string, f func(float64) float64) Func {
	return fixed(name, 1, func(a []value.Value) (value.Value, error) {
		return value.Map(a[0], f), nil
	})
}

func reduce(name string, f func(x, y float64) float64) func([]value.Value) (value.Value, error) {
	return func(a []value.Value) (value.Value, error) {
		return value.MapN(name, func(x []float64) float64 {
			acc := x[0]
			for _, v := range x[1:] {
				acc = f(acc, v)
			}
			return acc
		}, a...)
	}
}
