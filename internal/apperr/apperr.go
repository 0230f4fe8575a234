// Package apperr defines the typed error taxonomy used across the core
// workflow, aggregation and leaderboard services. Storage errors are always
// translated to one of these kinds before leaving a service.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers and for the HTTP layer.
type Kind string

const (
	// KindValidation marks malformed or missing input.
	KindValidation Kind = "validation"
	// KindNotFound marks a referenced entity that does not exist.
	KindNotFound Kind = "not_found"
	// KindPermission marks a caller lacking the required role or ownership.
	KindPermission Kind = "permission"
	// KindConflict marks duplicate submissions and lost concurrency races.
	KindConflict Kind = "conflict"
	// KindState marks an operation invalid for the current workflow state.
	KindState Kind = "invalid_state"
	// KindDeadlineExceeded marks a time-gated operation attempted too late.
	KindDeadlineExceeded Kind = "deadline_exceeded"
	// KindAuth marks credential resolution failures.
	KindAuth Kind = "auth"
)

// Error carries a stable kind plus a human-readable message.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	return e.msg
}

// Unwrap exposes the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// Kind returns the classification of the error.
func (e *Error) Kind() Kind {
	return e.kind
}

// New builds a typed error with the given kind and message.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Newf builds a typed error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

// KindOf extracts the kind of err, or an empty Kind for untyped errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Validation builds a validation error.
func Validation(msg string) *Error { return New(KindValidation, msg) }

// NotFound builds a not-found error.
func NotFound(msg string) *Error { return New(KindNotFound, msg) }

// Permission builds a permission error.
func Permission(msg string) *Error { return New(KindPermission, msg) }

// Conflict builds a conflict error.
func Conflict(msg string) *Error { return New(KindConflict, msg) }

// State builds an invalid-state error.
func State(msg string) *Error { return New(KindState, msg) }

// DeadlineExceeded builds a deadline error.
func DeadlineExceeded(msg string) *Error { return New(KindDeadlineExceeded, msg) }

// Auth builds an authentication error.
func Auth(msg string) *Error { return New(KindAuth, msg) }
