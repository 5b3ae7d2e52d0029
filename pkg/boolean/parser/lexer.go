package parser

import (
	"strings"
)

// Lexer converts a cut expression into a sequence of tokens.
// Spaces and tabs between tokens are ignored.
type Lexer struct {
	input   string
	start   int // Start position of current token
	current int // Current position in input
}

// NewLexer creates a new lexer from the provided input string.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token from the input. Once the input is exhausted,
// Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()
	l.start = l.current

	if l.current >= len(l.input) {
		return Token{Type: TokenEOF, Position: l.current}
	}

	ch := l.input[l.current]

	// Two-character symbols take priority over their one-character prefix
	if candidates, ok := symbols2[ch]; ok && l.current+1 < len(l.input) {
		for _, c := range candidates {
			if l.input[l.current+1] == c.next {
				l.current += 2
				return l.emit(c.tt)
			}
		}
	}

	if tt, ok := symbols1[ch]; ok {
		l.current++
		return l.emit(tt)
	}

	if isDigit(ch) || (ch == '.' && l.current+1 < len(l.input) && isDigit(l.input[l.current+1])) {
		return l.scanNumber()
	}

	if isNameStart(ch) {
		return l.scanName()
	}

	// Unknown character, or '=' without a second '='
	l.current++
	return l.emit(TokenError)
}

// All tokenizes the whole input, stopping after the first EOF or error token.
func (l *Lexer) All() []Token {
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			return tokens
		}
	}
}

// scanNumber reads INT, DECIMAL and exponent forms:
// 12, 1.5, 1., .5, 1e3, 2.5E-4.
func (l *Lexer) scanNumber() Token {
	l.acceptDigits()

	if l.peek() == '.' {
		l.current++
		l.acceptDigits()
	}

	// Exponent only if followed by digits; otherwise 'e' starts a name
	if c := l.peek(); c == 'e' || c == 'E' {
		save := l.current
		l.current++
		if c := l.peek(); c == '+' || c == '-' {
			l.current++
		}
		if isDigit(l.peek()) {
			l.acceptDigits()
		} else {
			l.current = save
		}
	}

	return l.emit(TokenNumber)
}

// scanName reads an identifier. true/false in any case are keywords, but only
// when they form the whole identifier.
func (l *Lexer) scanName() Token {
	for l.current < len(l.input) && isNameChar(l.input[l.current]) {
		l.current++
	}

	word := l.input[l.start:l.current]
	if strings.EqualFold(word, "true") || strings.EqualFold(word, "false") {
		return l.emit(TokenBool)
	}
	return l.emit(TokenName)
}

func (l *Lexer) emit(tt TokenType) Token {
	return Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
}

func (l *Lexer) peek() byte {
	if l.current >= len(l.input) {
		return 0
	}
	return l.input[l.current]
}

func (l *Lexer) acceptDigits() {
	for l.current < len(l.input) && isDigit(l.input[l.current]) {
		l.current++
	}
}

func (l *Lexer) skipWhitespace() {
	for l.current < len(l.input) {
		switch l.input[l.current] {
		case ' ', '\t', '\n', '\r':
			l.current++
		default:
			return
		}
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isNameStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isNameChar(ch byte) bool {
	return isNameStart(ch) || isDigit(ch)
}
