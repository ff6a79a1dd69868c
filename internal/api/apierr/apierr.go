// Package apierr defines the typed error taxonomy produced by the HTTP layer.
// Callers branch on Kind instead of inspecting response shapes or matching
// error strings.
package apierr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	// KindValidation is a client-side pre-network rejection with per-field
	// messages. It never corresponds to an HTTP exchange.
	KindValidation Kind = iota
	// KindUnauthorized is an HTTP 401: the credential is missing or expired.
	KindUnauthorized
	// KindNotFound is an HTTP 404.
	KindNotFound
	// KindRateLimited is an HTTP 429.
	KindRateLimited
	// KindServer is any other non-2xx response that carried a body.
	KindServer
	// KindNetwork means the request was sent but no response was received.
	KindNetwork
	// KindSetup means the request was never sent (malformed call, misuse).
	KindSetup
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindSetup:
		return "setup"
	}
	return "unknown"
}

// Error is a classified failure from the API layer.
type Error struct {
	Kind   Kind
	Status int                 // HTTP status, when a response was received
	Detail string              // backend-provided detail message, if any
	Fields map[string][]string // per-field messages (validation, 400 bodies)
	Err    error               // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if len(e.Fields) > 0 {
		return e.fieldSummary()
	}
	switch e.Kind {
	case KindUnauthorized:
		return "authentication failed. Check your credentials"
	case KindNotFound:
		return "not found"
	case KindRateLimited:
		return "too many requests. Try again later"
	case KindNetwork:
		return "unable to connect to the server"
	case KindSetup:
		return "request could not be prepared"
	default:
		return fmt.Sprintf("API error (status %d)", e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// fieldSummary renders field errors as "field: msg, msg; field: msg" with
// stable field ordering.
func (e *Error) fieldSummary() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(e.Fields[f], ", ")))
	}
	return strings.Join(parts, "; ")
}

// New creates an error of the given kind with a detail message.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Validation creates a client-side validation error with per-field messages.
func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Fields: fields}
}

// KindOf reports the kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsUnauthorized reports whether err is a 401 failure.
func IsUnauthorized(err error) bool { return Is(err, KindUnauthorized) }

// IsNotFound reports whether err is a 404 failure.
func IsNotFound(err error) bool { return Is(err, KindNotFound) }

// IsNetwork reports whether err is a no-response transport failure.
func IsNetwork(err error) bool { return Is(err, KindNetwork) }

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool { return Is(err, KindValidation) }

// FieldsOf returns the per-field messages carried by err, if any.
func FieldsOf(err error) map[string][]string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}
