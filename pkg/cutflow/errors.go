package cutflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates invalid engine configuration.
	ErrInvalidConfig = errors.New("invalid cutflow configuration")

	// ErrInvalidReference indicates a compare_to that does not point at an
	// already processed rule.
	ErrInvalidReference = errors.New("invalid rule reference")
)

// RuleError reports a rule whose condition could not be evaluated or counted.
type RuleError struct {
	Index int
	Cond  string
	Cause error
}

// Error returns the error message.
func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %d (%s): %v", e.Index, e.Cond, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *RuleError) Unwrap() error {
	return e.Cause
}

// ReferenceError reports a compare_to that resolved outside [0, Index).
type ReferenceError struct {
	Index    int
	Ref      Ref
	Resolved int
}

// Error returns the error message.
func (e *ReferenceError) Error() string {
	return fmt.Sprintf("rule %d: compare_to %s resolves to rule %d, which has not been processed",
		e.Index, e.Ref, e.Resolved)
}

// Is reports whether target is ErrInvalidReference.
func (e *ReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}

// RulesFileError reports an invalid rules file, with the location of the
// offending node when known.
type RulesFileError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Cause   error
}

// Error returns the error message.
func (e *RulesFileError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "<rules>"
	}
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, e.Line, e.Column)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", loc, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

// Unwrap returns the underlying cause.
func (e *RulesFileError) Unwrap() error {
	return e.Cause
}
