// retry.go - Retry logic and error categorization for completion calls

package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"strings"
	"time"

	"github.com/bosocmputer/fleet_capture_ocr/internal/common"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/api/googleapi"
)

// RetryConfig defines retry behavior for completion calls
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig makes exactly one attempt; a failed capture is retaken by the driver
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     1,
	InitialDelay:    1 * time.Second,
	MaxDelay:        8 * time.Second,
	BackoffMultiple: 2.0,
}

// RetryConfigWithAttempts returns DefaultRetryConfig with a different attempt count
func RetryConfigWithAttempts(attempts int) RetryConfig {
	cfg := DefaultRetryConfig
	if attempts > 1 {
		cfg.MaxAttempts = attempts
	}
	return cfg
}

// ProviderError represents a categorized completion API error
type ProviderError struct {
	OriginalError error
	Category      string
	StatusCode    int
	Message       string
	Retryable     bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("[%s] %s (status: %d, retryable: %v)", e.Category, e.Message, e.StatusCode, e.Retryable)
}

func (e *ProviderError) Unwrap() error {
	return e.OriginalError
}

// categorizeError analyzes error and determines retry strategy
func categorizeError(err error) *ProviderError {
	if err == nil {
		return nil
	}

	var already *ProviderError
	if errors.As(err, &already) {
		return already
	}

	providerErr := &ProviderError{
		OriginalError: err,
		Category:      "unknown",
		Message:       err.Error(),
	}

	if status := statusCodeOf(err); status != 0 {
		providerErr.StatusCode = status
		categorizeStatus(providerErr, status)
		return providerErr
	}

	if errors.Is(err, context.DeadlineExceeded) {
		providerErr.Category = "timeout"
		providerErr.Message = "Request timeout - processing took too long"
		providerErr.Retryable = true
		return providerErr
	}

	if errors.Is(err, context.Canceled) {
		providerErr.Category = "canceled"
		providerErr.Message = "Request was canceled"
		return providerErr
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		providerErr.Category = "network_error"
		providerErr.Message = "Network connection error"
		providerErr.Retryable = netErr.Timeout()
		return providerErr
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "quota") {
		providerErr.Category = "quota_exceeded"
		providerErr.Message = "API quota exceeded"
		return providerErr
	}

	if strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline") {
		providerErr.Category = "timeout"
		providerErr.Message = "Request timeout"
		providerErr.Retryable = true
		return providerErr
	}

	if strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") {
		providerErr.Category = "network_error"
		providerErr.Message = "Network connection error"
		providerErr.Retryable = true
		return providerErr
	}

	return providerErr
}

// statusCodeOf digs the HTTP status out of either provider SDK's error types
func statusCodeOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	return 0
}

func categorizeStatus(providerErr *ProviderError, status int) {
	switch status {
	case 400:
		providerErr.Category = "bad_request"
		providerErr.Message = "Invalid request format or parameters"
	case 401:
		providerErr.Category = "unauthorized"
		providerErr.Message = "Invalid API key or authentication failed"
	case 403:
		providerErr.Category = "forbidden"
		providerErr.Message = "API key lacks required permissions"
	case 404:
		providerErr.Category = "not_found"
		providerErr.Message = "Model not found or invalid endpoint"
	case 413:
		providerErr.Category = "payload_too_large"
		providerErr.Message = "Request size exceeds limit (reduce image size)"
	case 429:
		providerErr.Category = "rate_limit"
		providerErr.Message = "Rate limit exceeded - too many requests"
		providerErr.Retryable = true
	case 500, 502, 503, 504:
		providerErr.Category = "server_error"
		providerErr.Message = fmt.Sprintf("Completion server error (%d)", status)
		providerErr.Retryable = true
	default:
		providerErr.Category = "unknown_api_error"
		providerErr.Message = fmt.Sprintf("API error (%d)", status)
		providerErr.Retryable = status >= 500
	}
}

// callWithRetry executes a completion call with retry logic
func callWithRetry[T any](
	ctx context.Context,
	config RetryConfig,
	reqCtx *common.RequestContext,
	call func(context.Context) (T, error),
) (T, error) {
	var zero T
	var lastErr *ProviderError

	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			reqCtx.LogInfo("Retry attempt %d/%d", attempt, attempts)
		}

		resp, err := call(ctx)
		if err == nil {
			if attempt > 1 {
				reqCtx.LogInfo("✅ Retry succeeded on attempt %d", attempt)
			}
			return resp, nil
		}

		lastErr = categorizeError(err)
		reqCtx.LogError("API call failed (attempt %d/%d): %s", attempt, attempts, lastErr.Error())

		if !lastErr.Retryable || attempt >= attempts {
			break
		}

		delay := calculateBackoff(attempt, config)
		if lastErr.Category == "rate_limit" {
			delay = delay * 2
			reqCtx.LogWarning("Rate limit hit, waiting %v before retry", delay)
		} else {
			reqCtx.LogInfo("Waiting %v before retry", delay)
		}

		select {
		case <-ctx.Done():
			return zero, categorizeError(ctx.Err())
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}

// calculateBackoff computes exponential backoff delay
func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt-1))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}

// UserFacingMessage converts a technical failure into a message fit for the driver
func UserFacingMessage(err error) string {
	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		return "The image could not be processed. Please try again."
	}

	switch providerErr.Category {
	case "rate_limit":
		return "Too many requests. Please wait a moment and try again."
	case "quota_exceeded":
		return "API quota exceeded. Check the account behind the API key."
	case "unauthorized", "forbidden":
		return "The API key was rejected. Check the key in settings."
	case "payload_too_large":
		return "Image size is too large. Please retake the photo at a lower resolution."
	case "timeout":
		return "Request took too long. Please try again."
	case "server_error":
		return "The recognition service is temporarily unavailable. Please try again in a few minutes."
	case "network_error":
		return "Network connection issue. Please check your connection and try again."
	default:
		return "The image could not be processed. Please try again."
	}
}
