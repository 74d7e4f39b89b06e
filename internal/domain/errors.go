// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import "errors"

// ErrorType represents the semantic category of an error
type ErrorType int

const (
	ErrorTypeValidation   ErrorType = iota // Input validation errors (400 Bad Request)
	ErrorTypeNotFound                      // Series, occurrence or exception absent (404 Not Found)
	ErrorTypeConflict                      // Row-version mismatch on write (409 Conflict)
	ErrorTypeInternal                      // Internal server errors (500 Internal Server Error)
	ErrorTypeUnavailable                   // Service unavailable errors (503 Service Unavailable)
	ErrorTypeInvalidRule                   // Malformed recurrence configuration (422)
	ErrorTypeInvalidScope                  // Edit scope not applicable to the target occurrence (422)
)

// String returns the wire name of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeConflict:
		return "concurrency_conflict"
	case ErrorTypeUnavailable:
		return "unavailable"
	case ErrorTypeInvalidRule:
		return "invalid_rule"
	case ErrorTypeInvalidScope:
		return "invalid_scope"
	default:
		return "internal"
	}
}

// DomainError represents an error with semantic type information
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error // underlying error for wrapping
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError of the same type, so that
// errors.Is(err, ErrConcurrencyConflict) works on wrapped errors.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// Sentinels for errors.Is checks. They carry no message and match any
// DomainError of the same type.
var (
	ErrInvalidRule         = &DomainError{Type: ErrorTypeInvalidRule}
	ErrInvalidScope        = &DomainError{Type: ErrorTypeInvalidScope}
	ErrNotFound            = &DomainError{Type: ErrorTypeNotFound}
	ErrConcurrencyConflict = &DomainError{Type: ErrorTypeConflict}
)

// GetErrorType returns the semantic type of an error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ErrorTypeInternal // default fallback
}

// IsRetryable reports whether the caller should reload and re-apply the
// request. Only concurrency conflicts qualify.
func IsRetryable(err error) bool {
	return err != nil && GetErrorType(err) == ErrorTypeConflict
}

// Error constructors for different types
func NewValidationError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeValidation, Message: message, Err: errors.Join(err...)}
}

func NewNotFoundError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeNotFound, Message: message, Err: errors.Join(err...)}
}

func NewConflictError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeConflict, Message: message, Err: errors.Join(err...)}
}

func NewInternalError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInternal, Message: message, Err: errors.Join(err...)}
}

func NewUnavailableError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeUnavailable, Message: message, Err: errors.Join(err...)}
}

func NewInvalidRuleError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInvalidRule, Message: message, Err: errors.Join(err...)}
}

func NewInvalidScopeError(message string, err ...error) *DomainError {
	return &DomainError{Type: ErrorTypeInvalidScope, Message: message, Err: errors.Join(err...)}
}
