// Package worlderr defines the typed error taxonomy returned by world operations.
// Callers branch on the Kind with errors.Is, never on message text.
package worlderr

import (
	"errors"
	"fmt"
)

// Kind classifies a recoverable domain failure.
type Kind string

const (
	KindNotFound              Kind = "NOT_FOUND"
	KindForbidden             Kind = "FORBIDDEN"
	KindInvalidState          Kind = "INVALID_STATE"
	KindInsufficientResources Kind = "INSUFFICIENT_RESOURCES"
	KindOnCooldown            Kind = "ON_COOLDOWN"
	KindAlreadyInProgress     Kind = "ALREADY_IN_PROGRESS"
	KindConcurrencyConflict   Kind = "CONCURRENCY_CONFLICT"
)

// Sentinels for errors.Is matching. An *Error matches the sentinel of its Kind.
var (
	ErrNotFound              = &Error{Kind: KindNotFound}
	ErrForbidden             = &Error{Kind: KindForbidden}
	ErrInvalidState          = &Error{Kind: KindInvalidState}
	ErrInsufficientResources = &Error{Kind: KindInsufficientResources}
	ErrOnCooldown            = &Error{Kind: KindOnCooldown}
	ErrAlreadyInProgress     = &Error{Kind: KindAlreadyInProgress}
	ErrConcurrencyConflict   = &Error{Kind: KindConcurrencyConflict}
)

// Error is a domain failure carrying its Kind.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "emit_beacon"
	Message string
	Err     error // optional cause
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause.
func Wrap(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the Kind of err, or "" if err carries none.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

// NotFound is shorthand for New(KindNotFound, ...).
func NotFound(op, format string, args ...any) *Error {
	return New(KindNotFound, op, format, args...)
}

// Forbidden is shorthand for New(KindForbidden, ...).
func Forbidden(op, format string, args ...any) *Error {
	return New(KindForbidden, op, format, args...)
}

// InvalidState is shorthand for New(KindInvalidState, ...).
func InvalidState(op, format string, args ...any) *Error {
	return New(KindInvalidState, op, format, args...)
}
