package parser

import (
	"fmt"
	"strconv"
	"strings"

	"umd-lhcb/tupling/pkg/boolean/ast"
	exprErrors "umd-lhcb/tupling/pkg/boolean/errors"
)

// DefaultMaxDepth bounds the nesting of parentheses, calls and prefix operators.
const DefaultMaxDepth = 256

// level is one row of the binary precedence table.
type level struct {
	name string
	ops  map[TokenType]ast.BinaryKind
}

// levels lists the binary operators from lowest to highest binding.
// All levels are left-associative.
var levels = []level{
	{"or", map[TokenType]ast.BinaryKind{TokenOr: ast.Or}},
	{"and", map[TokenType]ast.BinaryKind{TokenAnd: ast.And}},
	{"comparison", map[TokenType]ast.BinaryKind{
		TokenEqual:        ast.Eq,
		TokenNotEqual:     ast.Neq,
		TokenGreater:      ast.Gt,
		TokenGreaterEqual: ast.Gte,
		TokenLess:         ast.Lt,
		TokenLessEqual:    ast.Lte,
	}},
	{"sum", map[TokenType]ast.BinaryKind{TokenPlus: ast.Add, TokenMinus: ast.Sub}},
	{"product", map[TokenType]ast.BinaryKind{TokenMult: ast.Mul, TokenDiv: ast.Div}},
}

// complementLevel is the index in levels whose operands may carry a prefix '!'.
const complementLevel = 2

// Parser parses cut expressions into ASTs. A Parser holds only configuration
// and is safe for concurrent use.
type Parser struct {
	maxDepth int
}

// NewParser creates a new parser with default configuration.
func NewParser() *Parser {
	return &Parser{maxDepth: DefaultMaxDepth}
}

// WithMaxDepth sets the maximum nesting depth.
func (p *Parser) WithMaxDepth(depth int) *Parser {
	p.maxDepth = depth
	return p
}

// Parse parses expr and returns the root node. Syntax errors are returned as
// *errors.Error of kind KindSyntax carrying the offending byte offset.
func (p *Parser) Parse(expr string) (ast.Node, error) {
	st := &state{
		input:    expr,
		lexer:    NewLexer(expr),
		maxDepth: p.maxDepth,
	}
	st.advance()

	if st.tok.Type == TokenEOF {
		return nil, st.errorf(st.tok, "empty expression")
	}

	node, err := st.parseLevel(0)
	if err != nil {
		return nil, err
	}

	if st.tok.Type != TokenEOF {
		return nil, st.hint(st.unexpected(st.tok, "end of expression or operator"), st.tok)
	}
	return node, nil
}

// Parse parses expr with a default parser.
func Parse(expr string) (ast.Node, error) {
	return NewParser().Parse(expr)
}

// state is the per-call parser state.
type state struct {
	input    string
	lexer    *Lexer
	tok      Token
	depth    int
	maxDepth int
}

func (s *state) advance() {
	s.tok = s.lexer.Next()
}

// parseLevel parses the binary level i and everything binding tighter.
func (s *state) parseLevel(i int) (ast.Node, error) {
	if i == len(levels) {
		return s.parseUnary()
	}

	operand := func() (ast.Node, error) {
		if i == complementLevel {
			return s.parseComplement()
		}
		return s.parseLevel(i + 1)
	}

	left, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		kind, ok := levels[i].ops[s.tok.Type]
		if !ok {
			return left, nil
		}
		opTok := s.tok
		s.advance()

		// "&&" and "||" lex as two operators
		if s.tok.Type == opTok.Type && (opTok.Type == TokenAnd || opTok.Type == TokenOr) {
			return nil, s.hint(s.unexpected(s.tok, "an operand"), opTok)
		}

		right, err := operand()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: kind, Left: left, Right: right, At: s.position(opTok.Position)}
	}
}

// parseComplement parses an optional '!' applied to a whole sum.
func (s *state) parseComplement() (ast.Node, error) {
	if s.tok.Type != TokenBang {
		return s.parseLevel(complementLevel + 1)
	}
	bang := s.tok
	s.advance()

	if err := s.enter(bang); err != nil {
		return nil, err
	}
	defer s.leave()

	if s.tok.Type == TokenBang {
		return nil, s.errorf(s.tok, "'!' cannot be repeated; use parentheses: !(!x)")
	}

	operand, err := s.parseLevel(complementLevel + 1)
	if err != nil {
		return nil, err
	}
	return &ast.UnaryOp{Op: ast.LogicalNot, Operand: operand, At: s.position(bang.Position)}, nil
}

// parseUnary parses prefix sign operators and atoms. '-' negates any
// operand; '+' is accepted only as the sign of a number literal.
func (s *state) parseUnary() (ast.Node, error) {
	switch s.tok.Type {
	case TokenPlus:
		sign := s.tok
		s.advance()
		if s.tok.Type != TokenNumber {
			return nil, s.errorf(sign, "unary '+' must be followed by a number").
				WithSuggestion("remove the '+'")
		}
		return s.parseAtom()

	case TokenMinus:
		sign := s.tok
		s.advance()

		if err := s.enter(sign); err != nil {
			return nil, err
		}
		defer s.leave()

		operand, err := s.parseUnary()
		if err != nil {
			return nil, err
		}
		if lit, ok := operand.(*ast.NumberLiteral); ok {
			return lit.Negated(s.position(sign.Position)), nil
		}
		return &ast.UnaryOp{Op: ast.Negate, Operand: operand, At: s.position(sign.Position)}, nil
	}
	return s.parseAtom()
}

func (s *state) parseAtom() (ast.Node, error) {
	tok := s.tok

	switch tok.Type {
	case TokenNumber:
		s.advance()
		return s.number(tok)

	case TokenBool:
		s.advance()
		return &ast.BoolLiteral{Value: strings.EqualFold(tok.Value, "true"), At: s.position(tok.Position)}, nil

	case TokenName:
		s.advance()
		if s.tok.Type == TokenParenOpen {
			return s.parseCall(tok)
		}
		return &ast.Variable{Name: tok.Value, At: s.position(tok.Position)}, nil

	case TokenParenOpen:
		s.advance()
		if err := s.enter(tok); err != nil {
			return nil, err
		}
		defer s.leave()

		inner, err := s.parseLevel(0)
		if err != nil {
			return nil, err
		}
		if s.tok.Type != TokenParenClose {
			return nil, s.unexpected(s.tok, "')' to close '(' at position "+strconv.Itoa(tok.Position))
		}
		s.advance()
		return inner, nil

	case TokenError:
		return nil, s.hint(s.errorf(tok, fmt.Sprintf("unexpected character %q", tok.Value)), tok)
	}

	return nil, s.unexpected(tok, "a number, name, boolean or '('")
}

// parseCall parses the argument list of a call; the current token is '('.
func (s *state) parseCall(name Token) (ast.Node, error) {
	open := s.tok
	s.advance()

	if err := s.enter(open); err != nil {
		return nil, err
	}
	defer s.leave()

	call := &ast.FunctionCall{Name: name.Value, At: s.position(name.Position)}

	for s.tok.Type != TokenParenClose {
		arg, err := s.parseLevel(0)
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)

		switch s.tok.Type {
		case TokenComma:
			s.advance()
		case TokenParenClose:
		default:
			return nil, s.unexpected(s.tok, "',' or ')' in call to "+name.Value)
		}
	}
	s.advance()

	return call, nil
}

func (s *state) number(tok Token) (ast.Node, error) {
	at := s.position(tok.Position)

	if strings.ContainsAny(tok.Value, ".eE") {
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, s.errorf(tok, fmt.Sprintf("invalid number %q", tok.Value))
		}
		return &ast.NumberLiteral{Raw: tok.Value, IsFloat: true, Float: f, At: at}, nil
	}

	i, err := strconv.ParseInt(tok.Value, 10, 64)
	if err != nil {
		return nil, s.errorf(tok, fmt.Sprintf("integer literal %s out of range", tok.Value))
	}
	return &ast.NumberLiteral{Raw: tok.Value, Int: i, At: at}, nil
}

func (s *state) enter(tok Token) error {
	s.depth++
	if s.maxDepth > 0 && s.depth > s.maxDepth {
		return s.errorf(tok, fmt.Sprintf("expression nesting exceeds maximum depth %d", s.maxDepth))
	}
	return nil
}

func (s *state) leave() {
	s.depth--
}

// operatorAt returns the run of operator-like characters starting at offset,
// used to suggest the right spelling of && or =.
func (s *state) operatorAt(offset int) string {
	end := offset
	for end < len(s.input) && strings.IndexByte("&|=!<>", s.input[end]) >= 0 {
		end++
	}
	if end == offset {
		return ""
	}
	return s.input[offset:end]
}

// hint attaches an operator spelling suggestion for tok, if there is one.
func (s *state) hint(err *exprErrors.Error, tok Token) *exprErrors.Error {
	op := s.operatorAt(tok.Position)
	if op == "" {
		op = tok.Value
	}
	if suggestion := exprErrors.SuggestOperator(op); suggestion != "" {
		err.WithSuggestion(suggestion)
	}
	return err
}

func (s *state) unexpected(tok Token, want string) *exprErrors.Error {
	return s.errorf(tok, fmt.Sprintf("unexpected %s, expected %s", tok, want))
}

func (s *state) errorf(tok Token, message string) *exprErrors.Error {
	return exprErrors.NewSyntaxError(s.input, tok.Position, tok.Value, message)
}

// position converts a byte offset into a line/column position.
func (s *state) position(offset int) ast.Position {
	line, col := 1, 1
	for i := 0; i < offset && i < len(s.input); i++ {
		if s.input[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return ast.Position{Offset: offset, Line: line, Column: col}
}
