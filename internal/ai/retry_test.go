package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bosocmputer/fleet_capture_ocr/internal/common"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestCategorizeError(t *testing.T) {
	cases := []struct {
		err       error
		category  string
		retryable bool
	}{
		{&openai.APIError{HTTPStatusCode: 429, Message: "slow down"}, "rate_limit", true},
		{&openai.APIError{HTTPStatusCode: 401}, "unauthorized", false},
		{&openai.RequestError{HTTPStatusCode: 503, Err: errors.New("unavailable")}, "server_error", true},
		{fmt.Errorf("wrapped: %w", &googleapi.Error{Code: 413}), "payload_too_large", false},
		{context.DeadlineExceeded, "timeout", true},
		{context.Canceled, "canceled", false},
		{errors.New("dial tcp: connection refused"), "network_error", true},
		{errors.New("quota exhausted"), "quota_exceeded", false},
		{errors.New("weird"), "unknown", false},
	}

	for _, tc := range cases {
		got := categorizeError(tc.err)
		assert.Equal(t, tc.category, got.Category, tc.err.Error())
		assert.Equal(t, tc.retryable, got.Retryable, tc.err.Error())
	}
}

func TestCallWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffMultiple: 2}

	_, err := callWithRetry(context.Background(), cfg, common.FromContext(context.Background()), func(context.Context) (string, error) {
		calls++
		return "", &openai.APIError{HTTPStatusCode: 400}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestCallWithRetryRetriesRetryable(t *testing.T) {
	calls := 0
	cfg := RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffMultiple: 2}

	got, err := callWithRetry(context.Background(), cfg, common.FromContext(context.Background()), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", &openai.APIError{HTTPStatusCode: 502}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestCallWithRetrySingleAttemptByDefault(t *testing.T) {
	calls := 0
	_, err := callWithRetry(context.Background(), DefaultRetryConfig, common.FromContext(context.Background()), func(context.Context) (int, error) {
		calls++
		return 0, &openai.APIError{HTTPStatusCode: 503}
	})

	var providerErr *ProviderError
	require.ErrorAs(t, err, &providerErr)
	assert.Equal(t, "server_error", providerErr.Category)
	assert.Equal(t, 1, calls)
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffMultiple: 2}
	assert.Equal(t, time.Second, calculateBackoff(1, cfg))
	assert.Equal(t, 2*time.Second, calculateBackoff(2, cfg))
	assert.Equal(t, 4*time.Second, calculateBackoff(3, cfg))
	assert.Equal(t, 5*time.Second, calculateBackoff(4, cfg))
}

func TestRetryConfigWithAttempts(t *testing.T) {
	assert.Equal(t, 1, RetryConfigWithAttempts(0).MaxAttempts)
	assert.Equal(t, 4, RetryConfigWithAttempts(4).MaxAttempts)
}

func TestUserFacingMessage(t *testing.T) {
	assert.Contains(t, UserFacingMessage(categorizeError(&openai.APIError{HTTPStatusCode: 401})), "API key")
	assert.Contains(t, UserFacingMessage(errors.New("x")), "could not be processed")
}
