package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCatalogError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantRetry int
	}{
		{"deadline", fmt.Errorf("query grants: %w", context.DeadlineExceeded), ErrCodeCatalogTimeout, 2},
		{"connection refused", stderrors.New("dial tcp: connection refused"), ErrCodeCatalogUnavailable, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr := FromCatalogError(tt.err)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.True(t, stdErr.Retryable)
			assert.Equal(t, tt.wantRetry, GetRetryCount(stdErr.Code))
			assert.ErrorIs(t, stdErr, tt.err)
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewInvalidInputError("projectCost must be positive", nil)
	bpmn := ConvertToBPMNError(stdErr)

	assert.Equal(t, "INVALID_INPUT", bpmn.Code)
	assert.False(t, bpmn.Retryable)
	assert.Equal(t, 0, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "INVALID_INPUT", vars["errorCode"])
	assert.Equal(t, "INVALID_INPUT", vars["originalErrorCode"])
}

func TestCacheUnavailableRetries(t *testing.T) {
	bpmn := ConvertToBPMNError(NewCacheUnavailableError(stderrors.New("redis: connection refused")))

	assert.True(t, bpmn.Retryable)
	assert.Equal(t, 3, bpmn.Retries)
	assert.True(t, IsRetryableErrorCode(ErrCodeCacheUnavailable))
}

func TestNormalize(t *testing.T) {
	wrapped := fmt.Errorf("worker: %w", NewProfileValidationFailedError("purpose must be an array"))
	assert.Equal(t, ErrCodeProfileValidationFailed, Normalize(wrapped).Code)

	plain := stderrors.New("boom")
	got := Normalize(plain)
	require.NotNil(t, got)
	assert.Equal(t, ErrCodeInternal, got.Code)
	assert.ErrorIs(t, got, plain)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "CATALOG", GetErrorCategory(ErrCodeCatalogTimeout))
	assert.Equal(t, "CACHE", GetErrorCategory(ErrCodeCacheUnavailable))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeParseError))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
