package ast

import (
	"reflect"
	"testing"
)

// sample builds (-x + 2.5) * abs(x, y) & !flag
func sample() Node {
	x := &Variable{Name: "x"}
	return &BinaryOp{
		Op: And,
		Left: &BinaryOp{
			Op:    Mul,
			Left:  &BinaryOp{Op: Add, Left: &UnaryOp{Op: Negate, Operand: x}, Right: NewFloat(2.5, Position{})},
			Right: &FunctionCall{Name: "abs", Args: []Node{&Variable{Name: "x"}, &Variable{Name: "y"}}},
		},
		Right: &UnaryOp{Op: LogicalNot, Operand: &Variable{Name: "flag"}},
	}
}

func TestVariables(t *testing.T) {
	got := Variables(sample())
	want := []string{"x", "y", "flag"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Variables() = %v, want %v", got, want)
	}

	if got := Variables(NewInt(1, Position{})); len(got) != 0 {
		t.Errorf("Variables(literal) = %v, want empty", got)
	}
}

func TestFunctions(t *testing.T) {
	got := Functions(sample())
	if !reflect.DeepEqual(got, []string{"abs"}) {
		t.Errorf("Functions() = %v, want [abs]", got)
	}
}

func TestDepth(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want int
	}{
		{"nil", nil, 0},
		{"leaf", &Variable{Name: "a"}, 1},
		{"unary", &UnaryOp{Op: Negate, Operand: &Variable{Name: "a"}}, 2},
		{"sample", sample(), 5},
		{"zero-arg call", &FunctionCall{Name: "ONE"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Depth(tt.node); got != tt.want {
				t.Errorf("Depth() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPretty(t *testing.T) {
	node := &BinaryOp{
		Op:   Add,
		Left: NewInt(-1, Position{}),
		Right: &BinaryOp{
			Op:    Mul,
			Left:  NewFloat(2.3, Position{}),
			Right: NewInt(10, Position{}),
		},
	}

	want := "add\n" +
		"  num\t-1\n" +
		"  mul\n" +
		"    num\t2.3\n" +
		"    num\t10\n"

	if got := Pretty(node); got != want {
		t.Errorf("Pretty() =\n%q\nwant\n%q", got, want)
	}
}

func TestString(t *testing.T) {
	want := "((((-x) + 2.5) * abs(x, y)) & (!flag))"
	if got := String(sample()); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestNumberLiteralNegated(t *testing.T) {
	n := NewInt(3, Position{}).Negated(Position{})
	if n.IsFloat || n.Int != -3 || n.Raw != "-3" {
		t.Errorf("Negated int = %+v", n)
	}

	f := NewFloat(1.5, Position{}).Negated(Position{})
	if !f.IsFloat || f.Float != -1.5 || f.Raw != "-1.5" {
		t.Errorf("Negated float = %+v", f)
	}

	back := f.Negated(Position{})
	if back.Raw != "1.5" {
		t.Errorf("double negation raw = %q, want 1.5", back.Raw)
	}
}

func TestPositionString(t *testing.T) {
	if got := (Position{}).String(); got != "<unknown>" {
		t.Errorf("zero Position.String() = %q", got)
	}
	if got := (Position{Offset: 4, Line: 1, Column: 5}).String(); got != "1:5" {
		t.Errorf("Position.String() = %q, want 1:5", got)
	}
}

func TestBinaryKindClasses(t *testing.T) {
	tests := []struct {
		kind                            BinaryKind
		arithmetic, comparison, logical bool
	}{
		{Add, true, false, false},
		{Div, true, false, false},
		{Eq, false, true, false},
		{Lte, false, true, false},
		{And, false, false, true},
		{Or, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.Name(), func(t *testing.T) {
			if got := tt.kind.IsArithmetic(); got != tt.arithmetic {
				t.Errorf("IsArithmetic() = %v, want %v", got, tt.arithmetic)
			}
			if got := tt.kind.IsComparison(); got != tt.comparison {
				t.Errorf("IsComparison() = %v, want %v", got, tt.comparison)
			}
			if got := tt.kind.IsLogical(); got != tt.logical {
				t.Errorf("IsLogical() = %v, want %v", got, tt.logical)
			}
		})
	}
}
