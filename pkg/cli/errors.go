package cli

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitConfig = 2
)

// ConfigError reports an invalid setting, flag or missing input. Commands
// failing with one exit with ExitConfig.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError attributes a failure to the subcommand that produced it.
type CommandError struct {
	// Command is the full command path, e.g. "tupling cutflow".
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode maps the wrapped error to a process exit code.
func (e *CommandError) ExitCode() int {
	return ExitCode(e.Err)
}

// ExitCode returns ExitOK for nil, ExitConfig when err wraps a ConfigError
// and ExitFailed otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, new(*ConfigError)):
		return ExitConfig
	default:
		return ExitFailed
	}
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError wraps err with the command path. It returns nil for a nil
// err.
func NewCommandError(command string, err error) *CommandError {
	if err == nil {
		return nil
	}
	return &CommandError{
		Command: command,
		Err:     err,
	}
}
