// Package errs defines the error kinds shared across the input-processing
// pipeline, settings persistence, and control-surface packages.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for the four kinds in the control-surface error design.
var (
	// ErrInvalidArgument indicates a null instance, an out-of-range numeric
	// value, or a validation failure caught before any state mutation.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates an unknown instance name, binding name, layer
	// index, or a persisted record that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIoFailure indicates a settings-store save or load failure.
	ErrIoFailure = errors.New("io failure")

	// ErrExternalFailure indicates a binding-invocation failure reported
	// by an external collaborator (keymap layer API, binding registry).
	ErrExternalFailure = errors.New("external failure")
)

// Invalid wraps a message as an ErrInvalidArgument.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NotFound wraps a message as an ErrNotFound.
func NotFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// IoFailure wraps an underlying error as an ErrIoFailure.
func IoFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIoFailure, op, err)
}

// External wraps an underlying error as an ErrExternalFailure.
func External(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrExternalFailure, op, err)
}
