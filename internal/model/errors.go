package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a request-scoped failure so handlers can map it to an
// HTTP status and callers can tell upstream faults from their own mistakes.
type ErrorKind int

const (
	// KindNotFound means a symbol or exchange code could not be resolved.
	KindNotFound ErrorKind = iota + 1
	// KindUpstreamTimeout means the connect or total deadline was exceeded.
	KindUpstreamTimeout
	// KindUpstreamUnavailable means a non-timeout transport failure or a
	// non-success upstream status.
	KindUpstreamUnavailable
	// KindParseError means the upstream payload did not match the expected shape.
	KindParseError
	// KindRegistryUnavailable means no symbol mapping generation has been published yet.
	KindRegistryUnavailable
	// KindInvalidRequest means a malformed query or body.
	KindInvalidRequest
)

// Error is the typed error returned by the fetch/parse layer.
type Error struct {
	Kind    ErrorKind
	Message string
	// EmptyPayload marks a parse failure caused by an empty or no-data
	// payload rather than an unexpected shape.
	EmptyPayload bool
	cause        error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewNotFound creates a NotFound error.
func NewNotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// NewUpstreamTimeout creates an UpstreamTimeout error wrapping the deadline failure.
func NewUpstreamTimeout(message string, cause error) *Error {
	return &Error{Kind: KindUpstreamTimeout, Message: message, cause: cause}
}

// NewUpstreamUnavailable creates an UpstreamUnavailable error.
func NewUpstreamUnavailable(message string, cause error) *Error {
	return &Error{Kind: KindUpstreamUnavailable, Message: message, cause: cause}
}

// NewParseError creates a ParseError for a payload with an unexpected shape.
func NewParseError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindParseError, Message: fmt.Sprintf(format, args...)}
}

// NewEmptyPayload creates a ParseError for an empty or no-data payload.
func NewEmptyPayload(format string, args ...interface{}) *Error {
	return &Error{Kind: KindParseError, EmptyPayload: true, Message: fmt.Sprintf(format, args...)}
}

// NewRegistryUnavailable creates a RegistryUnavailable error.
func NewRegistryUnavailable(message string) *Error {
	return &Error{Kind: KindRegistryUnavailable, Message: message}
}

// NewInvalidRequest creates an InvalidRequest error.
func NewInvalidRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind, or 0 if err is not a typed error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// HTTPStatus maps an error to the HTTP status the envelope is sent with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	case KindUpstreamUnavailable, KindParseError:
		return http.StatusBadGateway
	case KindRegistryUnavailable:
		return http.StatusServiceUnavailable
	case KindInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
