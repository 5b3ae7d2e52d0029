package ast

import "strconv"

// Node is a node of a parsed cut expression.
type Node interface {
	// Pos returns the position of the first token of the node.
	Pos() Position

	node()
}

// UnaryKind identifies a prefix operator.
type UnaryKind uint8

const (
	Negate     UnaryKind = iota // -x
	LogicalNot                  // !x
)

// String returns the operator symbol.
func (k UnaryKind) String() string {
	switch k {
	case Negate:
		return "-"
	case LogicalNot:
		return "!"
	default:
		return "?"
	}
}

// Name returns the rule name used by Pretty.
func (k UnaryKind) Name() string {
	switch k {
	case Negate:
		return "neg"
	case LogicalNot:
		return "comp"
	default:
		return "unknown"
	}
}

// BinaryKind identifies an infix operator.
type BinaryKind uint8

const (
	Add BinaryKind = iota
	Sub
	Mul
	Div
	Eq
	Neq
	Gt
	Gte
	Lt
	Lte
	And
	Or
)

var binarySymbols = [...]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/",
	Eq: "==", Neq: "!=", Gt: ">", Gte: ">=", Lt: "<", Lte: "<=",
	And: "&", Or: "|",
}

var binaryNames = [...]string{
	Add: "add", Sub: "sub", Mul: "mul", Div: "div",
	Eq: "eq", Neq: "neq", Gt: "gt", Gte: "gte", Lt: "lt", Lte: "lte",
	And: "andop", Or: "orop",
}

// String returns the operator symbol.
func (k BinaryKind) String() string {
	if int(k) < len(binarySymbols) {
		return binarySymbols[k]
	}
	return "?"
}

// Name returns the rule name used by Pretty.
func (k BinaryKind) Name() string {
	if int(k) < len(binaryNames) {
		return binaryNames[k]
	}
	return "unknown"
}

// IsArithmetic reports whether k is one of + - * /.
func (k BinaryKind) IsArithmetic() bool {
	return k <= Div
}

// IsComparison reports whether k is one of == != > >= < <=.
func (k BinaryKind) IsComparison() bool {
	return k >= Eq && k <= Lte
}

// IsLogical reports whether k is & or |.
func (k BinaryKind) IsLogical() bool {
	return k == And || k == Or
}

// NumberLiteral is an integer or floating-point literal.
// A literal without '.' or an exponent is an integer.
type NumberLiteral struct {
	Raw     string
	IsFloat bool
	Int     int64
	Float   float64
	At      Position
}

// BoolLiteral is the keyword true or false.
type BoolLiteral struct {
	Value bool
	At    Position
}

// Variable is a free identifier.
type Variable struct {
	Name string
	At   Position
}

// UnaryOp is a prefix operator applied to a single operand.
type UnaryOp struct {
	Op      UnaryKind
	Operand Node
	At      Position
}

// BinaryOp is an infix operator applied to two operands.
type BinaryOp struct {
	Op    BinaryKind
	Left  Node
	Right Node
	At    Position
}

// FunctionCall invokes a registered function with positional arguments.
type FunctionCall struct {
	Name string
	Args []Node
	At   Position
}

func (n *NumberLiteral) Pos() Position { return n.At }
func (n *BoolLiteral) Pos() Position   { return n.At }
func (n *Variable) Pos() Position      { return n.At }
func (n *UnaryOp) Pos() Position       { return n.At }
func (n *BinaryOp) Pos() Position      { return n.At }
func (n *FunctionCall) Pos() Position  { return n.At }

func (*NumberLiteral) node() {}
func (*BoolLiteral) node()   {}
func (*Variable) node()      {}
func (*UnaryOp) node()       {}
func (*BinaryOp) node()      {}
func (*FunctionCall) node()  {}

// NewInt returns an integer literal.
func NewInt(v int64, at Position) *NumberLiteral {
	return &NumberLiteral{Raw: strconv.FormatInt(v, 10), Int: v, At: at}
}

// NewFloat returns a floating-point literal.
func NewFloat(v float64, at Position) *NumberLiteral {
	return &NumberLiteral{Raw: strconv.FormatFloat(v, 'g', -1, 64), IsFloat: true, Float: v, At: at}
}

// Negated returns a literal with the opposite sign.
func (n *NumberLiteral) Negated(at Position) *NumberLiteral {
	if n.IsFloat {
		return &NumberLiteral{Raw: negateRaw(n.Raw), IsFloat: true, Float: -n.Float, At: at}
	}
	return &NumberLiteral{Raw: negateRaw(n.Raw), Int: -n.Int, At: at}
}

func negateRaw(raw string) string {
	if len(raw) > 0 && raw[0] == '-' {
		return raw[1:]
	}
	return "-" + raw
}
