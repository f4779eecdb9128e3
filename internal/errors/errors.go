package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrInvalidInput      ErrorType = "INVALID_INPUT"
	ErrNotFound          ErrorType = "NOT_FOUND"
	ErrRateLimit         ErrorType = "RATE_LIMIT"
	ErrUnauthorized      ErrorType = "UNAUTHORIZED"
	ErrTransport         ErrorType = "TRANSPORT"
	ErrUnexpectedStatus  ErrorType = "UNEXPECTED_STATUS"
	ErrMalformedResponse ErrorType = "MALFORMED_RESPONSE"
	ErrStore             ErrorType = "STORE"
	ErrConflict          ErrorType = "CONFLICT"
	ErrInternal          ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	// StatusCode is the remote HTTP status, zero when no response was received
	StatusCode int
	Cause      error
	Timestamp  time.Time
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:      errType,
		Message:   message,
		Cause:     cause,
		Timestamp: time.Now(),
	}
}

// TypeOf returns the ErrorType of the first AppError in err's chain,
// or ErrInternal when there is none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrInternal
}

// StatusCodeOf returns the remote HTTP status carried by err, or zero
func StatusCodeOf(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return 0
}

func is(err error, errType ErrorType) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Type == errType
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool { return is(err, ErrNotFound) }

// IsRateLimit checks if the error is a rate limit error
func IsRateLimit(err error) bool { return is(err, ErrRateLimit) }

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool { return is(err, ErrInvalidInput) }

// IsValidationError is an alias for IsInvalidInput
func IsValidationError(err error) bool { return IsInvalidInput(err) }

func IsUnauthorized(err error) bool      { return is(err, ErrUnauthorized) }
func IsTransport(err error) bool         { return is(err, ErrTransport) }
func IsUnexpectedStatus(err error) bool  { return is(err, ErrUnexpectedStatus) }
func IsMalformedResponse(err error) bool { return is(err, ErrMalformedResponse) }
func IsStore(err error) bool             { return is(err, ErrStore) }
func IsConflict(err error) bool          { return is(err, ErrConflict) }

// RateLimitError carries the quota information GitHub sent with a rejection
type RateLimitError struct {
	ResetTime time.Time
	Limit     int
	Remaining int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded, resets at %v (limit: %d, remaining: %d)",
		e.ResetTime, e.Limit, e.Remaining)
}

// NewRateLimitError creates a RATE_LIMIT AppError wrapping the quota details
func NewRateLimitError(resetTime time.Time, limit, remaining int) *AppError {
	return New(ErrRateLimit, "GitHub API rate limit exceeded", &RateLimitError{
		ResetTime: resetTime,
		Limit:     limit,
		Remaining: remaining,
	})
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, err error) *AppError {
	return New(ErrNotFound, message, err)
}

// NewValidationError creates a new validation error
func NewValidationError(message string, err error) *AppError {
	return New(ErrInvalidInput, message, err)
}

// NewUnauthorizedError creates a new unauthorized error
func NewUnauthorizedError(message string, err error) *AppError {
	return New(ErrUnauthorized, message, err)
}

// NewTransportError wraps a network-level failure
func NewTransportError(message string, err error) *AppError {
	return New(ErrTransport, message, err)
}

// NewUnexpectedStatusError records a non-success status with no dedicated type
func NewUnexpectedStatusError(statusCode int, message string) *AppError {
	appErr := New(ErrUnexpectedStatus, message, nil)
	appErr.StatusCode = statusCode
	return appErr
}

// NewMalformedResponseError creates an error for undecodable or incomplete payloads
func NewMalformedResponseError(message string, err error) *AppError {
	return New(ErrMalformedResponse, message, err)
}

// NewStoreError wraps a local persistence failure
func NewStoreError(message string, err error) *AppError {
	return New(ErrStore, message, err)
}

// NewConflictError creates a new conflict error
func NewConflictError(message string, err error) *AppError {
	return New(ErrConflict, message, err)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *AppError {
	return New(ErrInternal, message, err)
}
