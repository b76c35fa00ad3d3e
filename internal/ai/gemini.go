// gemini.go - Gemini completion provider

package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/bosocmputer/fleet_capture_ocr/internal/common"
	"github.com/bosocmputer/fleet_capture_ocr/internal/processor"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider sends captures to Gemini's generateContent with the image as an inline blob
type GeminiProvider struct {
	model      string
	retry      RetryConfig
	clientOpts []option.ClientOption
}

// NewGeminiProvider creates a Gemini provider for model
func NewGeminiProvider(model string) *GeminiProvider {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiProvider{model: model, retry: DefaultRetryConfig}
}

// WithRetry overrides the retry policy
func (p *GeminiProvider) WithRetry(cfg RetryConfig) *GeminiProvider {
	p.retry = cfg
	return p
}

// WithClientOptions appends client options (endpoint, HTTP client) used for every call
func (p *GeminiProvider) WithClientOptions(opts ...option.ClientOption) *GeminiProvider {
	p.clientOpts = append(p.clientOpts, opts...)
	return p
}

// GetProviderName returns "gemini"
func (p *GeminiProvider) GetProviderName() string {
	return "gemini"
}

// Complete decodes the data URL and sends instruction plus image in one generateContent call
func (p *GeminiProvider) Complete(ctx context.Context, credential string, req CompletionRequest) (*CompletionResult, error) {
	reqCtx := common.FromContext(ctx)

	image, err := processor.ParseDataURL(req.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid image payload: %w", err)
	}

	opts := append([]option.ClientOption{option.WithAPIKey(credential)}, p.clientOpts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	resp, err := callWithRetry(ctx, p.retry, reqCtx, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		return model.GenerateContent(ctx,
			genai.Text(req.Instruction),
			genai.Blob{MIMEType: image.MIMEType, Data: image.Data},
		)
	})
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{Model: p.model}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		result.HasChoice = true

		var text strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		result.Content = text.String()

		if resp.Candidates[0].FinishReason == genai.FinishReasonMaxTokens {
			reqCtx.LogWarning("Reply was truncated (FinishReason: MAX_TOKENS)")
		}
	}

	if resp.UsageMetadata != nil {
		tokens := common.CalculateTokenCost(
			int(resp.UsageMetadata.PromptTokenCount),
			int(resp.UsageMetadata.CandidatesTokenCount),
		)
		result.Usage = &tokens
	}

	return result, nil
}
