// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name         string
		err          *DomainError
		expectedType ErrorType
		expectedMsg  string
		expectedWire string
	}{
		{
			name:         "validation",
			err:          NewValidationError("title is required"),
			expectedType: ErrorTypeValidation,
			expectedMsg:  "title is required",
			expectedWire: "validation",
		},
		{
			name:         "not found with cause",
			err:          NewNotFoundError("series not found", cause),
			expectedType: ErrorTypeNotFound,
			expectedMsg:  "series not found: boom",
			expectedWire: "not_found",
		},
		{
			name:         "conflict",
			err:          NewConflictError("series has been modified"),
			expectedType: ErrorTypeConflict,
			expectedMsg:  "series has been modified",
			expectedWire: "concurrency_conflict",
		},
		{
			name:         "invalid rule",
			err:          NewInvalidRuleError("interval must be positive"),
			expectedType: ErrorTypeInvalidRule,
			expectedMsg:  "interval must be positive",
			expectedWire: "invalid_rule",
		},
		{
			name:         "invalid scope",
			err:          NewInvalidScopeError("occurrence 0 cannot be split"),
			expectedType: ErrorTypeInvalidScope,
			expectedMsg:  "occurrence 0 cannot be split",
			expectedWire: "invalid_scope",
		},
		{
			name:         "internal",
			err:          NewInternalError("store failure", cause),
			expectedType: ErrorTypeInternal,
			expectedMsg:  "store failure: boom",
			expectedWire: "internal",
		},
		{
			name:         "unavailable",
			err:          NewUnavailableError("store not ready"),
			expectedType: ErrorTypeUnavailable,
			expectedMsg:  "store not ready",
			expectedWire: "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedType, tt.err.Type)
			assert.Equal(t, tt.expectedMsg, tt.err.Error())
			assert.Equal(t, tt.expectedWire, tt.err.Type.String())
			assert.Equal(t, tt.expectedType, GetErrorType(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("wrong last sequence")
	err := NewConflictError("series has been modified", cause)

	assert.ErrorIs(t, err, cause)
}

func TestDomainError_IsSentinel(t *testing.T) {
	err := fmt.Errorf("cancel series: %w", NewConflictError("series has been modified"))

	assert.ErrorIs(t, err, ErrConcurrencyConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrInvalidScope)
	assert.ErrorIs(t, NewInvalidRuleError("bad"), ErrInvalidRule)
	assert.ErrorIs(t, NewInvalidScopeError("bad"), ErrInvalidScope)
	assert.ErrorIs(t, NewNotFoundError("missing"), ErrNotFound)
}

func TestGetErrorType_PlainError(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, GetErrorType(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewConflictError("stale")))
	assert.False(t, IsRetryable(NewInvalidScopeError("first occurrence")))
	assert.False(t, IsRetryable(NewNotFoundError("missing")))
	assert.False(t, IsRetryable(nil))
}
