// Package transport carries the HTTP plumbing shared by the remote
// adapters: typed errors, retry with backoff, structured call logging, and
// call metrics. The reconciliation core never retries; it relies on this
// layer to surface each remote call as success, a typed failure, or
// not-found.
package transport

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error that occurred.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeTimeout
	ErrTypeNotFound
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeNotFound:
		return "not found"
	default:
		return "unknown error"
	}
}

// Error represents a remote call failure with additional context.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	Operation  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Operation, e.Type.String(), e.Message, e.StatusCode)
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// IsAuthentication reports whether err is an authentication failure.
// Publish treats these as soft: log, skip the submit, keep the run alive.
func IsAuthentication(err error) bool {
	var terr *Error
	return errors.As(err, &terr) && terr.Type == ErrTypeAuthentication
}

// IsNotFound reports whether err is a not-found. Delete, resolve, and
// minimize treat not-found as success.
func IsNotFound(err error) bool {
	var terr *Error
	return errors.As(err, &terr) && terr.Type == ErrTypeNotFound
}

// NewAuthenticationError creates a new authentication error.
func NewAuthenticationError(operation, message string) *Error {
	return &Error{
		Type:       ErrTypeAuthentication,
		Message:    message,
		StatusCode: 401,
		Retryable:  false,
		Operation:  operation,
	}
}

// NewRateLimitError creates a new rate limit error.
func NewRateLimitError(operation, message string) *Error {
	return &Error{
		Type:       ErrTypeRateLimit,
		Message:    message,
		StatusCode: 429,
		Retryable:  true,
		Operation:  operation,
	}
}

// NewServiceUnavailableError creates a new service unavailable error.
func NewServiceUnavailableError(operation, message string) *Error {
	return &Error{
		Type:       ErrTypeServiceUnavailable,
		Message:    message,
		StatusCode: 503,
		Retryable:  true,
		Operation:  operation,
	}
}

// NewInvalidRequestError creates a new invalid request error.
func NewInvalidRequestError(operation, message string) *Error {
	return &Error{
		Type:       ErrTypeInvalidRequest,
		Message:    message,
		StatusCode: 400,
		Retryable:  false,
		Operation:  operation,
	}
}

// NewTimeoutError creates a new timeout error.
func NewTimeoutError(operation, message string) *Error {
	return &Error{
		Type:       ErrTypeTimeout,
		Message:    message,
		StatusCode: 0,
		Retryable:  true,
		Operation:  operation,
	}
}

// NewNotFoundError creates a new not-found error.
func NewNotFoundError(operation, message string) *Error {
	return &Error{
		Type:       ErrTypeNotFound,
		Message:    message,
		StatusCode: 404,
		Retryable:  false,
		Operation:  operation,
	}
}
