// Package errs defines the tagged-union error kinds shared across the
// streaming core, along with their HTTP status mapping.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure the way callers across the core need to branch
// on it: by what happened, not by which package raised it.
type Kind string

const (
	InvalidArgument  Kind = "INVALID_ARGUMENT"
	Unauthenticated  Kind = "UNAUTHENTICATED"
	PermissionDenied Kind = "PERMISSION_DENIED"
	NotFound         Kind = "NOT_FOUND"
	ConcurrentLimit  Kind = "CONCURRENT_LIMIT"
	Expired          Kind = "EXPIRED"
	CircuitOpen      Kind = "CIRCUIT_OPEN"
	Timeout          Kind = "TIMEOUT"
	Unavailable      Kind = "UNAVAILABLE"
	Internal         Kind = "INTERNAL"
)

// HTTPStatus maps a Kind to the status code spec.md §7 assigns it.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidArgument:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case ConcurrentLimit:
		return http.StatusPaymentRequired
	case Expired:
		return http.StatusGone
	case CircuitOpen:
		return http.StatusServiceUnavailable
	case Timeout:
		return http.StatusGatewayTimeout
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether the kind is one Resilient Transport treats as
// retryable (spec.md §7's policy paragraph).
func (k Kind) Retryable() bool {
	switch k {
	case Timeout, Unavailable:
		return true
	default:
		return false
	}
}

// Error is the tagged-union error type every component returns: a Kind, a
// human-readable Message, an optional correlation RequestID, and for
// INVALID_ARGUMENT a field->messages validation map.
type Error struct {
	Kind      Kind
	Message   string
	RequestID string
	Fields    map[string][]string
	cause     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an Error of the given kind that wraps cause.
func Wrap(kind Kind, cause error, message string) *Error {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithRequestID returns a copy of e stamped with the given correlation id.
func (e *Error) WithRequestID(id string) *Error {
	cp := *e
	cp.RequestID = id
	return &cp
}

// WithField appends a validation message for field to e and returns e.
func (e *Error) WithField(field, message string) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// Invalid is a convenience constructor for INVALID_ARGUMENT with one field error.
func Invalid(field, message string) *Error {
	return New(InvalidArgument, message).WithField(field, message)
}

// As extracts an *Error from err, if present.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, defaulting to Internal for unclassified errors.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Internal
}
