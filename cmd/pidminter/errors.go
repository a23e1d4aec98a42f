package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arthur-debert/pidminter/minter"
	"github.com/arthur-debert/pidminter/storage"
)

// errBadRequest marks failures caused by the request rather than by the
// minter or its store.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func isBadRequest(err error) bool {
	return errors.Is(err, errBadRequest) ||
		errors.Is(err, minter.ErrNotExist) ||
		errors.Is(err, minter.ErrAlreadyExists) ||
		errors.Is(err, minter.ErrInvalidState)
}

// CLIError is a user-facing error with context and suggestions.
type CLIError struct {
	Operation   string
	Cause       string
	Details     string
	Suggestions []string
	Underlying  error
}

func (e *CLIError) Error() string {
	var msg strings.Builder

	if e.Operation != "" {
		msg.WriteString(fmt.Sprintf("Failed to %s", e.Operation))
	} else {
		msg.WriteString("Operation failed")
	}
	if e.Cause != "" {
		msg.WriteString(fmt.Sprintf(": %s", e.Cause))
	}
	if e.Details != "" {
		msg.WriteString(fmt.Sprintf(" (%s)", e.Details))
	}

	if len(e.Suggestions) > 0 {
		msg.WriteString("\n\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			msg.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}
	return msg.String()
}

func (e *CLIError) Unwrap() error {
	return e.Underlying
}

// NewValidationError creates an error for an argument that failed
// validation.
func NewValidationError(operation, field, value string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("invalid %s: %q", field, value),
		Suggestions: suggestions,
		Underlying:  errBadRequest,
	}
}

// NewConfigError creates an error for configuration issues.
func NewConfigError(operation, issue string, suggestions ...string) *CLIError {
	return &CLIError{
		Operation:   operation,
		Cause:       fmt.Sprintf("configuration error: %s", issue),
		Suggestions: suggestions,
	}
}

// NewStoreError creates an error for a failure opening, reading or writing
// a minter.
func NewStoreError(operation string, underlying error, suggestions ...string) *CLIError {
	cause := "minter operation failed"
	switch {
	case errors.Is(underlying, storage.ErrLocked):
		cause = "minter is locked by another process"
		suggestions = append(suggestions, "Retry once the other process has finished")
	case errors.Is(underlying, minter.ErrNotExist):
		cause = "minter does not exist"
		suggestions = append(suggestions, "Run 'pidminter minter init' to create it")
	case errors.Is(underlying, minter.ErrAlreadyExists):
		cause = "minter already exists"
	case errors.Is(underlying, minter.ErrInvalidState):
		cause = "minter state is inconsistent"
	case errors.Is(underlying, errBadRequest):
		cause = "invalid request"
	}

	return &CLIError{
		Operation:   operation,
		Cause:       cause,
		Details:     underlying.Error(),
		Suggestions: suggestions,
		Underlying:  underlying,
	}
}

// WrapError wraps err with CLI-friendly context.
func WrapError(operation string, err error, suggestions ...string) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		if cliErr.Operation == "" {
			cliErr.Operation = operation
		}
		return cliErr
	}
	return NewStoreError(operation, err, suggestions...)
}

// CommonSuggestions holds suggestion strings shared by several commands.
var CommonSuggestions = struct {
	CheckStore  string
	CheckConfig string
	CheckFlags  string
	RunHelp     string
}{
	CheckStore:  "Verify --store points to a minter and --backend matches it",
	CheckConfig: "Check your configuration file or PIDMINTER_* environment variables",
	CheckFlags:  "Check command line flags and their values",
	RunHelp:     "Run command with --help for usage information",
}
