// Package errors provides the error type reported by the cut expression
// parser and evaluator.
//
// Every failure carries a Kind so callers can branch on the category without
// string matching:
//
//	syntax              malformed expression text
//	undefined_symbol    variable absent from constants and from the data source
//	undefined_function  function absent from the registry
//	arity               function called with the wrong number of arguments
//	type                argument of an unsupported kind
//	shape               arrays of different lengths combined elementwise
//
// Errors carry the expression text and the byte offset of the offending token,
// and render a caret under that position:
//
//	[syntax] unexpected token ")"
//	  --> position 4
//	  |
//	  | a + )
//	  |     ^
//	  = suggestion: remove the unmatched ')'
//
// Use IsKind or errors.As to inspect an error returned from deep inside a
// cutflow run.
package errors
