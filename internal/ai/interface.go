// interface.go - Completion provider interface for supporting multiple AI providers

package ai

import (
	"context"

	"github.com/bosocmputer/fleet_capture_ocr/internal/common"
)

// CompletionRequest is one instruction plus one image, sent as a single user turn
type CompletionRequest struct {
	Instruction string
	ImageURL    string // data URL, passed through unchanged
	MaxTokens   int
	Temperature float32
}

// CompletionResult is the first choice of a completion reply
type CompletionResult struct {
	Content   string
	HasChoice bool // false when the reply contained no choices at all
	Model     string
	Usage     *common.TokenUsage
}

// Provider defines the interface that all completion providers must implement.
// The credential is supplied per call and never stored by the provider.
type Provider interface {
	Complete(ctx context.Context, credential string, req CompletionRequest) (*CompletionResult, error)

	// GetProviderName returns the name of the provider (e.g., "openai", "gemini")
	GetProviderName() string
}

// ProviderConfig contains configuration for completion providers
type ProviderConfig struct {
	// Provider name: "openai" or "gemini"
	Provider string

	// OpenAI-compatible configuration
	OpenAIBaseURL string
	OpenAIModel   string

	// Gemini configuration
	GeminiModel string

	Retry RetryConfig
}
