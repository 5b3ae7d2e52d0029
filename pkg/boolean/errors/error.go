package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind categorizes an expression error.
type Kind string

const (
	KindSyntax            Kind = "syntax"
	KindUndefinedSymbol   Kind = "undefined_symbol"
	KindUndefinedFunction Kind = "undefined_function"
	KindArity             Kind = "arity"
	KindType              Kind = "type"
	KindShape             Kind = "shape"
)

// Error is a parse or evaluation failure with position and context.
type Error struct {
	Kind       Kind   // Category of error
	Message    string // Error message
	Expression string // Full expression text (optional)
	Position   int    // Byte offset of the offending token, -1 if unknown
	Token      string // Offending token or name (optional)
	Suggestion string // Suggested fix (optional)
	Cause      error  // Underlying error (optional)
}

// New creates an error of the given kind with an unknown position.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Position: -1}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", e.Kind, e.Message))

	if e.Position >= 0 {
		sb.WriteString(fmt.Sprintf("\n  --> position %d", e.Position))
	}

	if e.Expression != "" {
		sb.WriteString("\n  |\n  | ")
		sb.WriteString(e.Expression)
		if e.Position >= 0 && e.Position <= len(e.Expression) {
			sb.WriteString("\n  | ")
			sb.WriteString(strings.Repeat(" ", e.Position))
			sb.WriteByte('^')
		}
	}

	if e.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("\n  = suggestion: %s", e.Suggestion))
	}

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("\n  = cause: %v", e.Cause))
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind, so errors.Is(err, ErrSyntax)
// works for any syntax error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// At sets the position of the error and returns it.
func (e *Error) At(position int) *Error {
	e.Position = position
	return e
}

// In attaches the expression text if none is set yet and returns the error.
func (e *Error) In(expression string) *Error {
	if e.Expression == "" {
		e.Expression = expression
	}
	return e
}

// WithToken sets the offending token and returns the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithSuggestion sets the suggestion and returns the error.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// WithCause sets the underlying cause and returns the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Sentinels for errors.Is. They match any error of the same kind.
var (
	ErrSyntax            = &Error{Kind: KindSyntax}
	ErrUndefinedSymbol   = &Error{Kind: KindUndefinedSymbol}
	ErrUndefinedFunction = &Error{Kind: KindUndefinedFunction}
	ErrArity             = &Error{Kind: KindArity}
	ErrType              = &Error{Kind: KindType}
	ErrShape             = &Error{Kind: KindShape}
)

// IsKind reports whether err, or any error it wraps, is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrors.As(err, &e)
	return e, ok
}

// NewSyntaxError reports malformed expression text at position.
func NewSyntaxError(expression string, position int, token, message string) *Error {
	return &Error{
		Kind:       KindSyntax,
		Message:    message,
		Expression: expression,
		Position:   position,
		Token:      token,
	}
}

// NewUndefinedSymbolError reports a variable that could not be resolved.
func NewUndefinedSymbolError(name string) *Error {
	return &Error{
		Kind:     KindUndefinedSymbol,
		Message:  fmt.Sprintf("undefined symbol %q", name),
		Position: -1,
		Token:    name,
	}
}

// NewUndefinedFunctionError reports a call to an unregistered function.
func NewUndefinedFunctionError(name string) *Error {
	return &Error{
		Kind:     KindUndefinedFunction,
		Message:  fmt.Sprintf("undefined function %q", name),
		Position: -1,
		Token:    name,
	}
}

// NewArityError reports a function called with the wrong argument count.
// want describes the accepted count, e.g. "2" or "at least 1".
func NewArityError(name, want string, got int) *Error {
	return &Error{
		Kind:     KindArity,
		Message:  fmt.Sprintf("function %q takes %s argument(s), got %d", name, want, got),
		Position: -1,
		Token:    name,
	}
}

// NewTypeError reports an operand or argument of an unsupported kind.
func NewTypeError(message string) *Error {
	return New(KindType, message)
}

// NewShapeError reports arrays of different lengths combined elementwise.
func NewShapeError(op string, left, right int) *Error {
	return &Error{
		Kind:     KindShape,
		Message:  fmt.Sprintf("operands of %s have mismatched lengths %d and %d", op, left, right),
		Position: -1,
	}
}
