// Package parser turns cut expression text into an AST.
//
// The grammar, from lowest to highest binding:
//
//	or      := and ( "|" and )*
//	and     := cmp ( "&" cmp )*
//	cmp     := compl ( ( "==" | "!=" | ">" | ">=" | "<" | "<=" ) compl )*
//	compl   := sum | "!" sum
//	sum     := product ( ( "+" | "-" ) product )*
//	product := atom ( ( "*" | "/" ) atom )*
//	atom    := NUMBER | BOOL | NAME | NAME "(" args ")" | "-" atom | "+" atom | "(" or ")"
//
// Binary levels are driven by a precedence table and parsed in a single
// left-to-right pass with one token of lookahead. A unary minus directly in
// front of a number literal is folded into a negative literal.
//
// Example:
//
//	node, err := parser.NewParser().Parse("Y_PT > 1000 & !muplus_isMuon")
//	if err != nil {
//	    return err
//	}
package parser
