package services

import (
	"errors"
	"fmt"
	"net/http"
)

// ===============================
// ERROR TYPES
// ===============================

// ServiceError represents a structured service error that maps to a stable
// HTTP status and the uniform error envelope.
type ServiceError struct {
	Type       string       `json:"type"`
	Message    string       `json:"message"`
	Fields     []FieldError `json:"fields,omitempty"`
	StatusCode int          `json:"-"`
	Cause      error        `json:"-"`
}

// FieldError carries a per-field validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// GetStatusCode returns the HTTP status code for this error.
func (e *ServiceError) GetStatusCode() int {
	if e.StatusCode > 0 {
		return e.StatusCode
	}
	return http.StatusInternalServerError
}

// Error type tags. Handlers and tests match on these rather than on status
// codes.
const (
	TypeValidation      = "VALIDATION_ERROR"
	TypeUnauthenticated = "UNAUTHENTICATED"
	TypeForbidden       = "FORBIDDEN"
	TypeNotFound        = "NOT_FOUND"
	TypeConflict        = "CONFLICT"
	TypeInternal        = "INTERNAL_ERROR"
)

// ===============================
// ERROR CONSTRUCTORS
// ===============================

// NewValidationError creates a validation error for malformed input.
func NewValidationError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       TypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Cause:      cause,
	}
}

// NewFieldValidationError creates a validation error with per-field messages.
func NewFieldValidationError(message string, fields []FieldError) *ServiceError {
	return &ServiceError{
		Type:       TypeValidation,
		Message:    message,
		Fields:     fields,
		StatusCode: http.StatusBadRequest,
	}
}

// NewUnauthenticatedError creates an error for a missing or invalid credential.
func NewUnauthenticatedError(message string) *ServiceError {
	return &ServiceError{
		Type:       TypeUnauthenticated,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewForbiddenError creates an error for an authenticated but unauthorized caller.
func NewForbiddenError(message string) *ServiceError {
	return &ServiceError{
		Type:       TypeForbidden,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// NewNotFoundError creates an error for an absent or soft-deleted entity.
func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Type:       TypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewConflictError creates an error for a duplicate unique constraint.
func NewConflictError(message string) *ServiceError {
	return &ServiceError{
		Type:       TypeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInternalError creates an internal server error. The message is masked by
// the response layer outside development mode.
func NewInternalError(message string, cause error) *ServiceError {
	return &ServiceError{
		Type:       TypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ===============================
// ERROR UTILITIES
// ===============================

// GetServiceError extracts a ServiceError from an error chain, or wraps the
// error as a generic internal one.
func GetServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return NewInternalError("unexpected error", err)
}

// IsErrorType checks whether an error carries a specific type tag.
func IsErrorType(err error, errorType string) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Type == errorType
	}
	return false
}

// IsNotFoundError checks if an error is a not found error.
func IsNotFoundError(err error) bool {
	return IsErrorType(err, TypeNotFound)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return IsErrorType(err, TypeValidation)
}

// IsUnauthenticatedError checks if an error is an authentication error.
func IsUnauthenticatedError(err error) bool {
	return IsErrorType(err, TypeUnauthenticated)
}

// IsForbiddenError checks if an error is an authorization error.
func IsForbiddenError(err error) bool {
	return IsErrorType(err, TypeForbidden)
}

// IsConflictError checks if an error is a unique-constraint conflict.
func IsConflictError(err error) bool {
	return IsErrorType(err, TypeConflict)
}
