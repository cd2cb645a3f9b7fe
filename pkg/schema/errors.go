// Package schema holds the canonical wire types exchanged between
// Proofline's components: provider payload shapes, sample/aggregate
// records, and the typed error taxonomy used at every package boundary.
package schema

import (
	"fmt"
	"net/http"
)

// ErrorType is a taxonomy tag, not a concrete error type; the constants
// below are the full list.
type ErrorType string

const (
	ErrorTypeValidation          ErrorType = "validation"
	ErrorTypeUnknownModel        ErrorType = "unknown_model"
	ErrorTypeParse               ErrorType = "parse"
	ErrorTypeSchema              ErrorType = "schema"
	ErrorTypeRateLimitTimeout    ErrorType = "rate_limit_timeout"
	ErrorTypeProviderHTTP        ErrorType = "provider_http"
	ErrorTypeInsufficientSamples ErrorType = "insufficient_samples"
	ErrorTypeDeadlineExceeded    ErrorType = "deadline_exceeded"
	ErrorTypePromptTooLong       ErrorType = "prompt_too_long"
	ErrorTypeStore               ErrorType = "store"
	ErrorTypeAuth                ErrorType = "auth"
	ErrorTypeQuota               ErrorType = "quota"
	ErrorTypeInternal            ErrorType = "internal"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation:          http.StatusBadRequest,
	ErrorTypeUnknownModel:        http.StatusBadRequest,
	ErrorTypeParse:               http.StatusBadGateway,
	ErrorTypeSchema:              http.StatusBadGateway,
	ErrorTypeRateLimitTimeout:    http.StatusServiceUnavailable,
	ErrorTypeProviderHTTP:        http.StatusBadGateway,
	ErrorTypeInsufficientSamples: http.StatusBadGateway,
	ErrorTypeDeadlineExceeded:    http.StatusGatewayTimeout,
	ErrorTypePromptTooLong:       http.StatusBadRequest,
	ErrorTypeStore:               http.StatusInternalServerError,
	ErrorTypeAuth:                http.StatusUnauthorized,
	ErrorTypeQuota:               http.StatusPaymentRequired,
	ErrorTypeInternal:            http.StatusInternalServerError,
}

// AppError is the single structured error type used across package
// boundaries, carrying an HTTP status code, a non-leaking message, and an
// optional wrapped cause.
type AppError struct {
	Type       ErrorType
	Message    string
	Details    string
	StatusCode int
	Cause      error
}

// New creates an AppError of the given type with its default status code.
func New(t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message, StatusCode: statusFor(t)}
}

// Newf creates a formatted AppError.
func Newf(t ErrorType, format string, args ...any) *AppError {
	return New(t, fmt.Sprintf(format, args...))
}

// Wrap creates an AppError that wraps an underlying cause.
func Wrap(cause error, t ErrorType, message string) *AppError {
	return &AppError{Type: t, Message: message, StatusCode: statusFor(t), Cause: cause}
}

// Wrapf creates a formatted wrapping AppError.
func Wrapf(cause error, t ErrorType, format string, args ...any) *AppError {
	return Wrap(cause, t, fmt.Sprintf(format, args...))
}

func statusFor(t ErrorType) int {
	if code, ok := statusByType[t]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// WithDetails attaches extra detail, mutating and returning the receiver.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithDetailsf attaches formatted detail.
func (e *AppError) WithDetailsf(format string, args ...any) *AppError {
	e.Details = fmt.Sprintf(format, args...)
	return e
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the status code to use for an HTTP response.
func (e *AppError) HTTPStatus() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	return statusFor(e.Type)
}
