// Package herr defines the error-kind vocabulary the engine surfaces at
// its API boundary. The tick pipeline itself never raises: a failing
// gene execution or a structural conflict is logged and drops the
// offending event, never the caller's error path. Only load-time and
// external-mutation-API calls return these.
package herr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies why an operation was rejected.
type Kind int

const (
	// KindConfiguration marks an invalid genome, a missing Gene 0, or a
	// malformed Activity mapping.
	KindConfiguration Kind = iota
	// KindNotFound marks a reference to an ID that does not exist.
	KindNotFound
	// KindConflict marks a structural conflict: a cycle introduced by
	// mutation, or a duplicate ID registration.
	KindConflict
	// KindArgument marks an out-of-range or otherwise invalid parameter.
	KindArgument
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindNotFound:
		return "NotFound"
	case KindConflict:
		return "Conflict"
	case KindArgument:
		return "ArgumentError"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned across the engine's external
// boundary. It wraps an underlying cause (when one exists) with
// github.com/pkg/errors so the originating frame survives through the
// ConfigurationError/NotFound/etc. classification.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Kind.String() + ": " + e.Message + ": " + e.cause.Error()
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a bare kind+message error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches kind+message to an existing cause, preserving its stack
// via pkg/errors so a logged gene-execution failure still names the
// opcode that triggered it.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: errors.WithStack(cause)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...interface{}) *Error {
	return Wrap(kind, cause, sprintf(format, args...))
}

// Configuration is a convenience constructor for the common case.
func Configuration(format string, args ...interface{}) *Error {
	return New(KindConfiguration, sprintf(format, args...))
}

// NotFound is a convenience constructor for missing-ID lookups.
func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, sprintf(format, args...))
}

// Conflict is a convenience constructor for cycle/duplicate-ID errors.
func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, sprintf(format, args...))
}

// Argument is a convenience constructor for out-of-range parameters.
func Argument(format string, args ...interface{}) *Error {
	return New(KindArgument, sprintf(format, args...))
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
