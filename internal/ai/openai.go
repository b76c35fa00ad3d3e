// openai.go - OpenAI-compatible chat completion provider

package ai

import (
	"context"
	"net/http"

	"github.com/bosocmputer/fleet_capture_ocr/internal/common"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to any endpoint speaking the OpenAI chat completions protocol
type OpenAIProvider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	retry      RetryConfig
}

// NewOpenAIProvider creates a provider for baseURL (e.g. https://api.openai.com/v1)
func NewOpenAIProvider(baseURL, model string) *OpenAIProvider {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIProvider{
		baseURL: baseURL,
		model:   model,
		retry:   DefaultRetryConfig,
	}
}

// WithHTTPClient overrides the HTTP client used for completion calls
func (p *OpenAIProvider) WithHTTPClient(client *http.Client) *OpenAIProvider {
	p.httpClient = client
	return p
}

// WithRetry overrides the retry policy
func (p *OpenAIProvider) WithRetry(cfg RetryConfig) *OpenAIProvider {
	p.retry = cfg
	return p
}

// GetProviderName returns "openai"
func (p *OpenAIProvider) GetProviderName() string {
	return "openai"
}

// Complete sends the instruction and image as one user message and returns the first choice
func (p *OpenAIProvider) Complete(ctx context.Context, credential string, req CompletionRequest) (*CompletionResult, error) {
	reqCtx := common.FromContext(ctx)

	cfg := openai.DefaultConfig(credential)
	if p.baseURL != "" {
		cfg.BaseURL = p.baseURL
	}
	if p.httpClient != nil {
		cfg.HTTPClient = p.httpClient
	}
	client := openai.NewClientWithConfig(cfg)

	chatReq := openai.ChatCompletionRequest{
		Model:       p.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: req.Instruction},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: req.ImageURL}},
				},
			},
		},
	}

	resp, err := callWithRetry(ctx, p.retry, reqCtx, func(ctx context.Context) (openai.ChatCompletionResponse, error) {
		return client.CreateChatCompletion(ctx, chatReq)
	})
	if err != nil {
		return nil, err
	}

	result := &CompletionResult{Model: resp.Model}
	if resp.Model == "" {
		result.Model = p.model
	}
	if len(resp.Choices) > 0 {
		result.HasChoice = true
		result.Content = resp.Choices[0].Message.Content
	}
	if resp.Usage.TotalTokens > 0 {
		tokens := common.CalculateTokenCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		result.Usage = &tokens
	}

	return result, nil
}
