package parser

import (
	"strings"
	"testing"

	"umd-lhcb/tupling/pkg/boolean/ast"
	exprErrors "umd-lhcb/tupling/pkg/boolean/errors"
)

func TestParse_Grouping(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"variable", "a_1b", "a_1b"},
		{"integer", "1", "1"},
		{"negative literal folds", "-1", "-1"},
		{"add", "-1 +2.3", "(-1 + 2.3)"},
		{"add sub left assoc", "-1 +2.3 - 10", "((-1 + 2.3) - 10)"},
		{"mul binds tighter", "-1 +2.3 * 10", "(-1 + (2.3 * 10))"},
		{"negated parens", "-(1 +2.3) * 10", "((-(1 + 2.3)) * 10)"},
		{"negated variable", "-x*y", "((-x) * y)"},
		{"double minus", "a - -1", "(a - -1)"},
		{"signed literal", "+3 * +2.5", "(3 * 2.5)"},
		{"negated signed literal", "-+3", "-3"},
		{"division left assoc", "a / b / c", "((a / b) / c)"},
		{"and over or", "a | b & c", "(a | (b & c))"},
		{"and over or literals", "false | true & true", "(false | (true & true))"},
		{"or left assoc", "a | b | c", "((a | b) | c)"},
		{"comparison under and", "a > 1 & b <= 2", "((a > 1) & (b <= 2))"},
		{"comparison chains left", "a > 1 == true", "((a > 1) == true)"},
		{"complement binds sum", "!a + 1 > 2", "((!(a + 1)) > 2)"},
		{"complement parens", "!(a > 1) & b", "((!(a > 1)) & b)"},
		{"bool keyword any case", "TRUE != False", "(true != false)"},
		{"bool prefix is a name", "true_x", "true_x"},
		{"zero arg call", "ONE()", "ONE()"},
		{"nested call", "abs(-pi+ONE())", "abs(((-pi) + ONE()))"},
		{"call arithmetic", "abs(-1-3*8)", "abs((-1 - (3 * 8)))"},
		{"trailing comma", "NORM2(x, y,)", "NORM2(x, y)"},
		{"multiline", "Y_PT > 1000 &\n  Y_M < 5300", "((Y_PT > 1000) & (Y_M < 5300))"},
		{"constants", "3*(pi+3)/(g-2)", "((3 * (pi + 3)) / (g - 2))"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.expr, err)
			}
			if got := ast.String(node); got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.expr, got, tt.want)
			}
		})
	}
}

func TestParse_Pretty(t *testing.T) {
	node, err := Parse("-1 +2.3 * 10")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := "add\n" +
		"  num\t-1\n" +
		"  mul\n" +
		"    num\t2.3\n" +
		"    num\t10\n"

	if got := ast.Pretty(node); got != want {
		t.Errorf("Pretty() =\n%s\nwant\n%s", got, want)
	}
}

func TestParse_LiteralTyping(t *testing.T) {
	tests := []struct {
		expr    string
		isFloat bool
		i       int64
		f       float64
	}{
		{"-1", false, -1, 0},
		{"42", false, 42, 0},
		{"1.85", true, 0, 1.85},
		{"1.", true, 0, 1},
		{".5", true, 0, 0.5},
		{"1e3", true, 0, 1000},
		{"-2.5E-1", true, 0, -0.25},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			node, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.expr, err)
			}
			lit, ok := node.(*ast.NumberLiteral)
			if !ok {
				t.Fatalf("Parse(%q) = %T, want *ast.NumberLiteral", tt.expr, node)
			}
			if lit.IsFloat != tt.isFloat {
				t.Errorf("IsFloat = %v, want %v", lit.IsFloat, tt.isFloat)
			}
			if lit.Int != tt.i || lit.Float != tt.f {
				t.Errorf("value = (%d, %g), want (%d, %g)", lit.Int, lit.Float, tt.i, tt.f)
			}
		})
	}
}

func TestParse_Positions(t *testing.T) {
	node, err := Parse("a &\n  b")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	bin, ok := node.(*ast.BinaryOp)
	if !ok {
		t.Fatalf("Parse() = %T, want *ast.BinaryOp", node)
	}
	if want := (ast.Position{Offset: 2, Line: 1, Column: 3}); bin.At != want {
		t.Errorf("operator position = %+v, want %+v", bin.At, want)
	}
	if want := (ast.Position{Offset: 6, Line: 2, Column: 3}); bin.Right.Pos() != want {
		t.Errorf("operand position = %+v, want %+v", bin.Right.Pos(), want)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name       string
		expr       string
		position   int
		suggestion string
	}{
		{"empty", "", 0, ""},
		{"blank", "   ", 3, ""},
		{"dangling operator", "a +", 3, ""},
		{"unclosed paren", "(a", 2, ""},
		{"stray close paren", "a)", 1, ""},
		{"adjacent operands", "a b", 2, ""},
		{"double ampersand", "a && b", 3, "'&'"},
		{"double pipe", "a || b", 3, "'|'"},
		{"single equals", "a = b", 2, "'=='"},
		{"word operator", "a and b", 2, "'&'"},
		{"repeated complement", "!!a", 1, ""},
		{"integer overflow", "99999999999999999999", 0, ""},
		{"missing comma", "f(1 2)", 4, ""},
		{"unknown character", "a $ b", 2, ""},
		{"unary plus on variable", "+x", 0, "remove the '+'"},
		{"unary plus on parens", "1 * +(2)", 4, "remove the '+'"},
		{"repeated plus", "++1", 0, "remove the '+'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.expr)
			if err == nil {
				t.Fatalf("Parse(%q) expected error", tt.expr)
			}

			e, ok := exprErrors.As(err)
			if !ok {
				t.Fatalf("Parse(%q) error = %T, want *errors.Error", tt.expr, err)
			}
			if e.Kind != exprErrors.KindSyntax {
				t.Errorf("Kind = %s, want %s", e.Kind, exprErrors.KindSyntax)
			}
			if e.Position != tt.position {
				t.Errorf("Position = %d, want %d (%v)", e.Position, tt.position, err)
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

func TestParser_WithMaxDepth(t *testing.T) {
	p := NewParser().WithMaxDepth(3)

	if _, err := p.Parse("((1))"); err != nil {
		t.Errorf("Parse() within depth error = %v", err)
	}

	_, err := p.Parse("((((1))))")
	if !exprErrors.IsKind(err, exprErrors.KindSyntax) {
		t.Fatalf("Parse() error = %v, want syntax error", err)
	}
	if !strings.Contains(err.Error(), "maximum depth 3") {
		t.Errorf("error = %q, want depth message", err.Error())
	}
}
