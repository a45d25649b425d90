package services

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func throttlingError() error {
	return &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}
}

func validationError() error {
	return &smithy.GenericAPIError{Code: "ValidationException", Message: "key shape mismatch"}
}

func TestWithRetriesTransientExhaustsBudget(t *testing.T) {
	attempts := 0
	err := withRetries(context.Background(), "test", func() error {
		attempts++
		return throttlingError()
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable), "exhausted budget should surface as ErrUnavailable")
	assert.Equal(t, maxStoreAttempts, attempts)
}

func TestWithRetriesFatalSurfacesImmediately(t *testing.T) {
	attempts := 0
	err := withRetries(context.Background(), "test", func() error {
		attempts++
		return validationError()
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSchemaMismatch), "validation errors are schema defects")
	assert.Equal(t, 1, attempts, "fatal errors must not be retried")
}

func TestWithRetriesEventualSuccess(t *testing.T) {
	attempts := 0
	err := withRetries(context.Background(), "test", func() error {
		attempts++
		if attempts == 1 {
			return throttlingError()
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestWithRetriesNotFoundPassesThrough(t *testing.T) {
	attempts := 0
	err := withRetries(context.Background(), "test", func() error {
		attempts++
		return ErrItemNotFound
	})

	assert.True(t, errors.Is(err, ErrItemNotFound))
	assert.Equal(t, 1, attempts)
}

func TestIsTransientErrorClassification(t *testing.T) {
	assert.True(t, IsTransientError(throttlingError()))
	assert.True(t, IsTransientError(errors.New("connection reset")), "transport errors are retryable")
	assert.False(t, IsTransientError(validationError()))
	assert.False(t, IsTransientError(ErrItemNotFound))
	assert.False(t, IsTransientError(nil))
}
