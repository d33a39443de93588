// Package domain provides the wire types and canonical error taxonomy for
// the Contract Intelligence Platform client.
package domain

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of a client error.
type ErrorKind string

const (
	// ErrorKindUnauthorized indicates the backend rejected the session or
	// CSRF token with a 401. The client does not distinguish the two; both
	// collapse to the same reaction (global cache clear plus sign-out).
	ErrorKindUnauthorized ErrorKind = "unauthorized"

	// ErrorKindRequestFailed indicates any other non-success HTTP outcome,
	// including a response body that failed to decode.
	ErrorKindRequestFailed ErrorKind = "request_failed"

	// ErrorKindValidationIncomplete indicates a client-local precondition
	// failure: required fields were missing before any network call.
	ErrorKindValidationIncomplete ErrorKind = "validation_incomplete"

	// ErrorKindStream indicates a connection-level failure on the
	// server-sent event stream.
	ErrorKindStream ErrorKind = "stream"
)

// ClientError is the canonical error returned by the fetch layer and the
// streaming consumer. Callers inspect Kind rather than status codes.
type ClientError struct {
	// Kind is the category of error.
	Kind ErrorKind

	// Message is the human-readable error message.
	Message string

	// StatusCode is the HTTP status that produced the error, if any.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// WithStatusCode sets the HTTP status that produced the error.
func (e *ClientError) WithStatusCode(code int) *ClientError {
	e.StatusCode = code
	return e
}

// WithCause attaches an underlying cause.
func (e *ClientError) WithCause(err error) *ClientError {
	e.Err = err
	return e
}

// NewClientError creates a new client error.
func NewClientError(kind ErrorKind, message string) *ClientError {
	return &ClientError{
		Kind:    kind,
		Message: message,
	}
}

// ErrUnauthorized creates an unauthorized error.
func ErrUnauthorized(message string) *ClientError {
	return NewClientError(ErrorKindUnauthorized, message)
}

// ErrRequestFailed creates a request failed error.
func ErrRequestFailed(message string) *ClientError {
	return NewClientError(ErrorKindRequestFailed, message)
}

// ErrValidationIncomplete creates a validation incomplete error for the
// named missing field.
func ErrValidationIncomplete(field string) *ClientError {
	return NewClientError(ErrorKindValidationIncomplete, field+" is required")
}

// ErrStream creates a stream error.
func ErrStream(message string) *ClientError {
	return NewClientError(ErrorKindStream, message)
}

// IsUnauthorized reports whether err is (or wraps) an unauthorized client
// error. This is the single signal that cascades into a global cache clear.
func IsUnauthorized(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Kind == ErrorKindUnauthorized
}

// KindOf returns the error kind of err, or an empty kind for errors that
// did not originate in this client.
func KindOf(err error) ErrorKind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
