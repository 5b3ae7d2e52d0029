package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	exprErrors "umd-lhcb/tupling/pkg/boolean/errors"
)

// Kind is the element type of a Value. Kinds are ordered by promotion.
type Kind uint8

const (
	KindBool Kind = iota
	KindInt
	KindFloat
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is an immutable scalar or array. The zero Value is the scalar false.
type Value struct {
	kind   Kind
	array  bool
	bools  []bool
	ints   []int64
	floats []float64
}

// Int returns an integer scalar.
func Int(v int64) Value { return Value{kind: KindInt, ints: []int64{v}} }

// Float returns a floating-point scalar.
func Float(v float64) Value { return Value{kind: KindFloat, floats: []float64{v}} }

// Bool returns a boolean scalar.
func Bool(v bool) Value { return Value{kind: KindBool, bools: []bool{v}} }

// Ints returns an integer array. The slice is not copied.
func Ints(v []int64) Value { return Value{kind: KindInt, array: true, ints: nonNil(v)} }

// Floats returns a floating-point array. The slice is not copied.
func Floats(v []float64) Value { return Value{kind: KindFloat, array: true, floats: nonNil(v)} }

// Bools returns a boolean array. The slice is not copied.
func Bools(v []bool) Value { return Value{kind: KindBool, array: true, bools: nonNil(v)} }

// Fill returns an array of n copies of the scalar v.
func Fill(v Value, n int) Value {
	if v.array {
		return v
	}
	switch v.Kind() {
	case KindInt:
		out := make([]int64, n)
		for i := range out {
			out[i] = v.ints[0]
		}
		return Ints(out)
	case KindFloat:
		out := make([]float64, n)
		for i := range out {
			out[i] = v.floats[0]
		}
		return Floats(out)
	default:
		out := make([]bool, n)
		b := v.scalarBool()
		for i := range out {
			out[i] = b
		}
		return Bools(out)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Kind returns the element kind.
func (v Value) Kind() Kind { return v.kind }

// IsScalar reports whether v is a scalar.
func (v Value) IsScalar() bool { return !v.array }

// Len returns the number of elements; a scalar has length 1.
func (v Value) Len() int {
	if !v.array {
		return 1
	}
	switch v.kind {
	case KindInt:
		return len(v.ints)
	case KindFloat:
		return len(v.floats)
	default:
		return len(v.bools)
	}
}

func (v Value) scalarBool() bool {
	if len(v.bools) == 0 {
		return false
	}
	return v.bools[0]
}

// Bools returns the elements as booleans; numbers are true when non-zero.
func (v Value) Bools() []bool {
	switch v.kind {
	case KindInt:
		out := make([]bool, len(v.ints))
		for i, x := range v.ints {
			out[i] = x != 0
		}
		return out
	case KindFloat:
		out := make([]bool, len(v.floats))
		for i, x := range v.floats {
			out[i] = x != 0
		}
		return out
	default:
		if !v.array {
			return []bool{v.scalarBool()}
		}
		return append([]bool(nil), v.bools...)
	}
}

// Ints returns the elements as int64; bools become 0 and 1, floats are truncated.
func (v Value) Ints() []int64 {
	switch v.kind {
	case KindInt:
		return append([]int64(nil), v.ints...)
	case KindFloat:
		out := make([]int64, len(v.floats))
		for i, x := range v.floats {
			out[i] = int64(x)
		}
		return out
	default:
		bs := v.Bools()
		out := make([]int64, len(bs))
		for i, b := range bs {
			if b {
				out[i] = 1
			}
		}
		return out
	}
}

// Floats returns the elements as float64.
func (v Value) Floats() []float64 {
	if v.kind == KindFloat {
		return append([]float64(nil), v.floats...)
	}
	ints := v.Ints()
	out := make([]float64, len(ints))
	for i, x := range ints {
		out[i] = float64(x)
	}
	return out
}

// Count returns the number of true elements.
func (v Value) Count() int64 {
	var n int64
	for _, b := range v.Bools() {
		if b {
			n++
		}
	}
	return n
}

// Interface returns the scalar as bool, int64 or float64, or the array as the
// matching slice.
func (v Value) Interface() any {
	if v.array {
		switch v.kind {
		case KindInt:
			return v.ints
		case KindFloat:
			return v.floats
		default:
			return v.bools
		}
	}
	switch v.kind {
	case KindInt:
		return v.ints[0]
	case KindFloat:
		return v.floats[0]
	default:
		return v.scalarBool()
	}
}

// Select returns the elements of an array where mask is true.
func (v Value) Select(mask []bool) (Value, error) {
	if !v.array {
		return Value{}, exprErrors.NewTypeError("cannot select from a scalar")
	}
	if len(mask) != v.Len() {
		return Value{}, exprErrors.NewShapeError("select", v.Len(), len(mask))
	}
	switch v.kind {
	case KindInt:
		return Ints(selectMask(v.ints, mask)), nil
	case KindFloat:
		return Floats(selectMask(v.floats, mask)), nil
	default:
		return Bools(selectMask(v.bools, mask)), nil
	}
}

func selectMask[T any](s []T, mask []bool) []T {
	out := make([]T, 0, len(s))
	for i, x := range s {
		if mask[i] {
			out = append(out, x)
		}
	}
	return out
}

// Equal reports whether v and other have the same kind, shape and elements.
// NaN elements compare equal to each other.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind || v.array != other.array || v.Len() != other.Len() {
		return false
	}
	switch v.kind {
	case KindInt:
		for i := range v.ints {
			if v.ints[i] != other.ints[i] {
				return false
			}
		}
	case KindFloat:
		for i := range v.floats {
			a, b := v.floats[i], other.floats[i]
			if a != b && !(math.IsNaN(a) && math.IsNaN(b)) {
				return false
			}
		}
	default:
		a, b := v.Bools(), other.Bools()
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
	}
	return true
}

// String formats a scalar as its literal and an array as [a b c].
func (v Value) String() string {
	elems := make([]string, v.Len())
	switch v.kind {
	case KindInt:
		for i, x := range v.ints {
			elems[i] = strconv.FormatInt(x, 10)
		}
	case KindFloat:
		for i, x := range v.floats {
			elems[i] = strconv.FormatFloat(x, 'g', -1, 64)
		}
	default:
		for i, b := range v.Bools() {
			elems[i] = strconv.FormatBool(b)
		}
	}
	if !v.array {
		return elems[0]
	}
	return "[" + strings.Join(elems, " ") + "]"
}

// Concat joins arrays end to end. Mixed kinds are promoted to the widest.
func Concat(values ...Value) (Value, error) {
	kind := KindBool
	for _, v := range values {
		if !v.array {
			return Value{}, exprErrors.NewTypeError("cannot concatenate a scalar")
		}
		kind = max(kind, v.kind)
	}

	switch kind {
	case KindInt:
		var out []int64
		for _, v := range values {
			out = append(out, v.Ints()...)
		}
		return Ints(out), nil
	case KindFloat:
		var out []float64
		for _, v := range values {
			out = append(out, v.Floats()...)
		}
		return Floats(out), nil
	default:
		var out []bool
		for _, v := range values {
			out = append(out, v.bools...)
		}
		return Bools(out), nil
	}
}
