package ast

import (
	"strconv"
	"strings"
)

// Pretty renders the tree one node per line, children indented by two spaces
// and leaf values separated from their rule name by a tab:
//
//	add
//	  num	-1
//	  mul
//	    num	2.3
//	    num	10
func Pretty(n Node) string {
	var sb strings.Builder
	pretty(&sb, n, 0)
	return sb.String()
}

func pretty(sb *strings.Builder, n Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))

	switch n := n.(type) {
	case *NumberLiteral:
		sb.WriteString("num\t")
		sb.WriteString(n.Raw)
		sb.WriteByte('\n')
	case *BoolLiteral:
		sb.WriteString("bool\t")
		sb.WriteString(strconv.FormatBool(n.Value))
		sb.WriteByte('\n')
	case *Variable:
		sb.WriteString("var\t")
		sb.WriteString(n.Name)
		sb.WriteByte('\n')
	case *UnaryOp:
		sb.WriteString(n.Op.Name())
		sb.WriteByte('\n')
		pretty(sb, n.Operand, depth+1)
	case *BinaryOp:
		sb.WriteString(n.Op.Name())
		sb.WriteByte('\n')
		pretty(sb, n.Left, depth+1)
		pretty(sb, n.Right, depth+1)
	case *FunctionCall:
		sb.WriteString("call\t")
		sb.WriteString(n.Name)
		sb.WriteByte('\n')
		for _, arg := range n.Args {
			pretty(sb, arg, depth+1)
		}
	default:
		sb.WriteString("<nil>\n")
	}
}

// String renders the tree back to expression text. Every operator node is
// parenthesized, so the output makes the parsed grouping explicit.
func String(n Node) string {
	var sb strings.Builder
	format(&sb, n)
	return sb.String()
}

func format(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case *NumberLiteral:
		sb.WriteString(n.Raw)
	case *BoolLiteral:
		sb.WriteString(strconv.FormatBool(n.Value))
	case *Variable:
		sb.WriteString(n.Name)
	case *UnaryOp:
		sb.WriteByte('(')
		sb.WriteString(n.Op.String())
		format(sb, n.Operand)
		sb.WriteByte(')')
	case *BinaryOp:
		sb.WriteByte('(')
		format(sb, n.Left)
		sb.WriteByte(' ')
		sb.WriteString(n.Op.String())
		sb.WriteByte(' ')
		format(sb, n.Right)
		sb.WriteByte(')')
	case *FunctionCall:
		sb.WriteString(n.Name)
		sb.WriteByte('(')
		for i, arg := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, arg)
		}
		sb.WriteByte(')')
	}
}
