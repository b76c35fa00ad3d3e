// factory.go - Completion provider factory for creating provider instances

package ai

import (
	"fmt"
	"log"

	"github.com/bosocmputer/fleet_capture_ocr/configs"
)

// ProviderConfigFromEnv builds a ProviderConfig from the loaded configuration
func ProviderConfigFromEnv() ProviderConfig {
	return ProviderConfig{
		Provider:      configs.COMPLETION_PROVIDER,
		OpenAIBaseURL: configs.OPENAI_BASE_URL,
		OpenAIModel:   configs.MODEL_NAME,
		GeminiModel:   configs.GEMINI_MODEL_NAME,
		Retry:         RetryConfigWithAttempts(configs.COMPLETION_MAX_ATTEMPTS),
	}
}

// CreateProvider creates a completion provider based on configuration
func CreateProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "openai":
		log.Printf("🟢 Creating OpenAI-compatible provider (%s, model %s)", cfg.OpenAIBaseURL, cfg.OpenAIModel)
		return NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIModel).WithRetry(cfg.Retry), nil

	case "gemini":
		log.Printf("🔵 Creating Gemini provider (model %s)", cfg.GeminiModel)
		return NewGeminiProvider(cfg.GeminiModel).WithRetry(cfg.Retry), nil

	default:
		return nil, fmt.Errorf("unsupported completion provider: %s (supported: openai, gemini)", cfg.Provider)
	}
}

// DefaultCredential returns the configured fallback credential for the active provider
func DefaultCredential() string {
	if configs.COMPLETION_PROVIDER == "gemini" {
		return configs.GEMINI_API_KEY
	}
	return configs.OPENAI_API_KEY
}
