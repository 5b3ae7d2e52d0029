package ntuple

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTreeNotFound is returned when a source has no tree of the given name.
	ErrTreeNotFound = errors.New("tree not found")

	// ErrLengthMismatch is returned when branches of one tree differ in length.
	ErrLengthMismatch = errors.New("branch lengths differ")
)

// BranchNotFoundError lists the requested branches a tree does not have.
type BranchNotFoundError struct {
	Tree  string
	Names []string
}

// Error implements the error interface.
func (e *BranchNotFoundError) Error() string {
	return fmt.Sprintf("branch not found in tree %q: %s", e.Tree, strings.Join(e.Names, ", "))
}

// SourceError wraps a failure of a storage backend.
type SourceError struct {
	Backend   string // "sqlite", "yaml", ...
	Operation string // Operation that failed
	Cause     error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("ntuple source error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *SourceError) Unwrap() error {
	return e.Cause
}

func newSourceError(backend, operation string, cause error) *SourceError {
	return &SourceError{Backend: backend, Operation: operation, Cause: cause}
}

func treeNotFound(tree string) error {
	return fmt.Errorf("%w: %q", ErrTreeNotFound, tree)
}
