package parser

import "fmt"

// TokenType represents the type of a lexical token.
type TokenType uint8

const (
	TokenEOF TokenType = iota
	TokenError

	// Literals
	TokenNumber // 1, 2.3, .5, 1e-3
	TokenBool   // true, false (any case)
	TokenName   // Y_M, muplus_isMuon

	// Grouping
	TokenParenOpen  // (
	TokenParenClose // )
	TokenComma      // ,

	// Arithmetic
	TokenPlus  // +
	TokenMinus // -
	TokenMult  // *
	TokenDiv   // /

	// Comparison
	TokenEqual        // ==
	TokenNotEqual     // !=
	TokenGreater      // >
	TokenGreaterEqual // >=
	TokenLess         // <
	TokenLessEqual    // <=

	// Logical
	TokenAnd  // &
	TokenOr   // |
	TokenBang // !
)

var tokenNames = [...]string{
	TokenEOF:          "(eof)",
	TokenError:        "(error)",
	TokenNumber:       "(number)",
	TokenBool:         "(bool)",
	TokenName:         "(name)",
	TokenParenOpen:    "(",
	TokenParenClose:   ")",
	TokenComma:        ",",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenMult:         "*",
	TokenDiv:          "/",
	TokenEqual:        "==",
	TokenNotEqual:     "!=",
	TokenGreater:      ">",
	TokenGreaterEqual: ">=",
	TokenLess:         "<",
	TokenLessEqual:    "<=",
	TokenAnd:          "&",
	TokenOr:           "|",
	TokenBang:         "!",
}

// String returns a string representation of the token type.
func (tt TokenType) String() string {
	if int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("(token %d)", tt)
}

// Token is a lexical token with its position in the input.
type Token struct {
	Type     TokenType
	Value    string
	Position int // Byte offset of the first character
}

// String describes the token for error messages.
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "end of expression"
	case TokenNumber, TokenBool, TokenName, TokenError:
		return fmt.Sprintf("%q", t.Value)
	default:
		return fmt.Sprintf("%q", t.Type.String())
	}
}

// symbols1 maps single-character symbols to token types.
var symbols1 = map[byte]TokenType{
	'(': TokenParenOpen,
	')': TokenParenClose,
	',': TokenComma,
	'+': TokenPlus,
	'-': TokenMinus,
	'*': TokenMult,
	'/': TokenDiv,
	'>': TokenGreater,
	'<': TokenLess,
	'&': TokenAnd,
	'|': TokenOr,
	'!': TokenBang,
}

// symbols2 maps a first character to the two-character symbols it can start.
var symbols2 = map[byte][]struct {
	next byte
	tt   TokenType
}{
	'=': {{'=', TokenEqual}},
	'!': {{'=', TokenNotEqual}},
	'>': {{'=', TokenGreaterEqual}},
	'<': {{'=', TokenLessEqual}},
}
