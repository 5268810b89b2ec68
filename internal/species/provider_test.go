package species

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkallio/gardenplan-go/internal/errors"
)

func TestClassifyStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		statusCode int
		want       errors.ErrorCategory
	}{
		{http.StatusUnauthorized, errors.CategoryProviderAuth},
		{http.StatusForbidden, errors.CategoryProviderAuth},
		{http.StatusNotFound, errors.CategoryNotFound},
		{http.StatusTooManyRequests, errors.CategoryLimit},
		{http.StatusInternalServerError, errors.CategoryNetwork},
		{http.StatusBadGateway, errors.CategoryNetwork},
		{http.StatusServiceUnavailable, errors.CategoryNetwork},
		{http.StatusGatewayTimeout, errors.CategoryNetwork},
		{http.StatusBadRequest, errors.CategoryGeneric},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyStatusCode(tt.statusCode), "status %d", tt.statusCode)
	}
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	transient := errors.Newf("connection refused").
		Category(errors.CategoryNetwork).
		Build()
	timeout := errors.Newf("deadline exceeded").
		Category(errors.CategoryTimeout).
		Build()
	auth := errors.Newf("bad key").
		Category(errors.CategoryProviderAuth).
		Build()
	rateLimited := errors.Newf("slow down").
		Category(errors.CategoryLimit).
		Build()

	assert.True(t, isTransient(transient))
	assert.True(t, isTransient(timeout))
	assert.False(t, isTransient(auth), "auth failures must not be retried")
	assert.False(t, isTransient(rateLimited), "retrying while rate limited makes it worse")
	assert.False(t, isTransient(errors.NewStd("vanilla error")))
}

func TestLookupWithRetry_SuccessShortCircuits(t *testing.T) {
	t.Parallel()

	attempts := 0
	result := lookupWithRetry(context.Background(), "test", 1, func(ctx context.Context) SourceResult {
		attempts++
		return Success(testRecord("id-1", "Tomato"))
	})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 1, attempts)
}

func TestLookupWithRetry_NotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	attempts := 0
	result := lookupWithRetry(context.Background(), "test", 1, func(ctx context.Context) SourceResult {
		attempts++
		return NotFound()
	})

	assert.Equal(t, StatusNotFound, result.Status)
	assert.Equal(t, 1, attempts)
}

func TestLookupWithRetry_TransientFailureRetriedOnce(t *testing.T) {
	t.Parallel()

	attempts := 0
	result := lookupWithRetry(context.Background(), "test", 1, func(ctx context.Context) SourceResult {
		attempts++
		if attempts == 1 {
			return Failure(errors.Newf("connection reset").
				Category(errors.CategoryNetwork).
				Build())
		}
		return Success(testRecord("id-1", "Tomato"))
	})

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, 2, attempts)
}

func TestLookupWithRetry_RetriesAreBounded(t *testing.T) {
	t.Parallel()

	attempts := 0
	result := lookupWithRetry(context.Background(), "test", 1, func(ctx context.Context) SourceResult {
		attempts++
		return Failure(errors.Newf("still down").
			Category(errors.CategoryNetwork).
			Build())
	})

	assert.Equal(t, StatusFailure, result.Status)
	assert.Equal(t, 2, attempts, "one initial attempt plus one retry")
}

func TestLookupWithRetry_PermanentFailureNotRetried(t *testing.T) {
	t.Parallel()

	attempts := 0
	result := lookupWithRetry(context.Background(), "test", 3, func(ctx context.Context) SourceResult {
		attempts++
		return Failure(errors.Newf("invalid key").
			Category(errors.CategoryProviderAuth).
			Build())
	})

	assert.Equal(t, StatusFailure, result.Status)
	assert.Equal(t, 1, attempts)
}

func TestLookupWithRetry_CancelledContextStopsRetries(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	result := lookupWithRetry(ctx, "test", 3, func(ctx context.Context) SourceResult {
		attempts++
		cancel()
		return Failure(errors.Newf("connection reset").
			Category(errors.CategoryNetwork).
			Build())
	})

	require.Equal(t, StatusFailure, result.Status)
	assert.Equal(t, 1, attempts)
	assert.True(t, errors.IsCategory(result.Err, errors.CategoryCancellation))
}
