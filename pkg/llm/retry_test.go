package llm

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/require"
)

func TestNewRetryHandler(t *testing.T) {
	t.Run("with all config", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{
			MaxRetries:     5,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     2 * time.Second,
			Multiplier:     2.5,
		})
		require.Equal(t, 5, handler.cfg.MaxRetries)
		require.Equal(t, 100*time.Millisecond, handler.cfg.InitialBackoff)
		require.Equal(t, 2*time.Second, handler.cfg.MaxBackoff)
		require.Equal(t, 2.5, handler.cfg.Multiplier)
	})

	t.Run("with defaults", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{})
		require.Equal(t, defaultInitialBackoff, handler.cfg.InitialBackoff)
		require.Equal(t, defaultMaxBackoff, handler.cfg.MaxBackoff)
		require.Equal(t, defaultBackoffFactor, handler.cfg.Multiplier)
		require.Equal(t, 0, handler.cfg.MaxRetries)
	})

	t.Run("negative values use defaults", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{
			MaxRetries:     -1,
			InitialBackoff: -100 * time.Millisecond,
			MaxBackoff:     -2 * time.Second,
			Multiplier:     0.5,
		})
		require.Equal(t, 0, handler.cfg.MaxRetries)
		require.Equal(t, defaultInitialBackoff, handler.cfg.InitialBackoff)
		require.Equal(t, defaultMaxBackoff, handler.cfg.MaxBackoff)
		require.Equal(t, defaultBackoffFactor, handler.cfg.Multiplier)
	})
}

func TestRetryHandlerDo(t *testing.T) {
	t.Run("success on first try", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{MaxRetries: 3})

		callCount := 0
		err := handler.Do(context.Background(), func() error {
			callCount++
			return nil
		})

		require.NoError(t, err)
		require.Equal(t, 1, callCount)
	})

	t.Run("success on retry", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 10 * time.Millisecond,
		})

		callCount := 0
		err := handler.Do(context.Background(), func() error {
			callCount++
			if callCount < 3 {
				return &openai.Error{StatusCode: http.StatusTooManyRequests}
			}
			return nil
		})

		require.NoError(t, err)
		require.Equal(t, 3, callCount)
	})

	t.Run("exhausted retries", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{
			MaxRetries:     2,
			InitialBackoff: 10 * time.Millisecond,
		})

		callCount := 0
		err := handler.Do(context.Background(), func() error {
			callCount++
			return &openai.Error{StatusCode: http.StatusTooManyRequests}
		})

		require.Error(t, err)
		require.Equal(t, 3, callCount) // initial + 2 retries
	})

	t.Run("context canceled", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 100 * time.Millisecond,
		})
		ctx, cancel := context.WithCancel(context.Background())

		callCount := 0
		err := handler.Do(ctx, func() error {
			callCount++
			if callCount == 1 {
				cancel()
			}
			return &openai.Error{StatusCode: http.StatusTooManyRequests}
		})

		require.Error(t, err)
		require.Equal(t, context.Canceled, err)
	})

	t.Run("non-retryable error", func(t *testing.T) {
		handler := NewRetryHandler(RetryConfig{MaxRetries: 3})

		callCount := 0
		err := handler.Do(context.Background(), func() error {
			callCount++
			return &openai.Error{StatusCode: http.StatusBadRequest}
		})

		require.Error(t, err)
		require.Equal(t, 1, callCount)
	})
}

func TestShouldRetry(t *testing.T) {
	require.False(t, shouldRetry(nil))
	require.False(t, shouldRetry(context.Canceled))
	require.False(t, shouldRetry(context.DeadlineExceeded))

	for _, code := range []int{
		http.StatusTooManyRequests,
		http.StatusRequestTimeout,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	} {
		require.True(t, shouldRetry(&openai.Error{StatusCode: code}), "status code %d should be retryable", code)
	}

	for _, code := range []int{
		http.StatusBadRequest,
		http.StatusUnauthorized,
		http.StatusForbidden,
		http.StatusNotFound,
	} {
		require.False(t, shouldRetry(&openai.Error{StatusCode: code}), "status code %d should not be retryable", code)
	}
}
