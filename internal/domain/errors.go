package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrInvalidInput indicates that the request data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrServiceUnavailable indicates that an external service failed or is unreachable.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInternal indicates an unexpected failure inside the pipeline.
	ErrInternal = errors.New("internal error")

	// ErrSourceDisabled indicates that a source was called while disabled.
	ErrSourceDisabled = errors.New("source disabled")
)

// ErrorKind classifies errors into the three families the service distinguishes.
type ErrorKind int

const (
	// KindNone is the kind of a nil error.
	KindNone ErrorKind = iota
	// KindValidation covers missing, empty or oversized request fields.
	KindValidation
	// KindExternal covers non-2xx responses, timeouts and malformed payloads from sources.
	KindExternal
	// KindInternal covers everything else.
	KindInternal
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindExternal:
		return "external"
	default:
		return "internal"
	}
}

// KindOf classifies err.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var ve *ValidationError
	if errors.As(err, &ve) || errors.Is(err, ErrInvalidInput) {
		return KindValidation
	}
	var ee *ExternalAPIError
	if errors.As(err, &ee) || errors.Is(err, ErrServiceUnavailable) || errors.Is(err, ErrSourceDisabled) {
		return KindExternal
	}
	return KindInternal
}

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// ExternalAPIError provides details about an external API error.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error, or ErrServiceUnavailable without one.
func (e *ExternalAPIError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrServiceUnavailable
}

// InternalError wraps an unexpected failure in a pipeline component.
type InternalError struct {
	Component string
	Cause     error
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: internal error: %v", e.Component, e.Cause)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *InternalError) Unwrap() error {
	return ErrInternal
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// NewInternalError creates a new InternalError.
func NewInternalError(component string, cause error) *InternalError {
	return &InternalError{
		Component: component,
		Cause:     cause,
	}
}

// Result carries a component's value together with the error that produced it.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps an error.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Kind classifies the result's error.
func (r Result[T]) Kind() ErrorKind {
	return KindOf(r.Err)
}

// Degrade returns Value on success and fallback on failure.
func (r Result[T]) Degrade(fallback T) T {
	if r.Err != nil {
		return fallback
	}
	return r.Value
}
