// Package ast defines the abstract syntax tree produced by the cut expression
// parser.
//
// The node set is closed: every node is one of NumberLiteral, BoolLiteral,
// Variable, UnaryOp, BinaryOp or FunctionCall. Consumers switch exhaustively
// over these types; the unexported marker method on Node prevents other
// packages from adding cases.
//
// # Node Kinds
//
//	NumberLiteral  1, 2.5, 1e3     integer unless the literal has '.' or an exponent
//	BoolLiteral    true, False     keywords are case-insensitive
//	Variable       Y_M             resolved against constants or the data source
//	UnaryOp        -x, !x
//	BinaryOp       a + b, a & b    arithmetic, comparison and logical operators
//	FunctionCall   abs(x), ONE()   resolved against the function registry
//
// Trees are immutable once parsed. Helpers in this package walk a tree
// (Inspect), collect its free variables (Variables) and render it in the
// indented debugging format used by `tupling eval --ast` (Pretty).
package ast
