// extractor.go - Single-field extraction (license plate, odometer)

package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/bosocmputer/fleet_capture_ocr/configs"
	"github.com/bosocmputer/fleet_capture_ocr/internal/common"
)

// Limiter gates outgoing completion calls. *ratelimit.RateLimiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Options shape every completion request made by the extractor and the document parser
type Options struct {
	MaxTokens        int
	Temperature      float32
	RequireKeyPrefix bool
	Limiter          Limiter // nil means no limiting
}

// ExtractOptionsFromConfig returns the configured options for single-field extraction
func ExtractOptionsFromConfig() Options {
	return Options{
		MaxTokens:        configs.EXTRACT_MAX_TOKENS,
		Temperature:      float32(configs.TEMPERATURE),
		RequireKeyPrefix: configs.REQUIRE_KEY_PREFIX,
	}
}

// DocumentOptionsFromConfig returns the configured options for document parsing
func DocumentOptionsFromConfig() Options {
	return Options{
		MaxTokens:        configs.DOCUMENT_MAX_TOKENS,
		Temperature:      float32(configs.TEMPERATURE),
		RequireKeyPrefix: configs.REQUIRE_KEY_PREFIX,
	}
}

func (o Options) withDefaults(maxTokens int) Options {
	if o.MaxTokens <= 0 {
		o.MaxTokens = maxTokens
	}
	if o.Temperature <= 0 {
		o.Temperature = 0.1
	}
	return o
}

// Extractor reads one value off a photo
type Extractor struct {
	provider Provider
	opts     Options
}

// NewExtractor creates an Extractor. Zero option values fall back to 100 tokens at temperature 0.1.
func NewExtractor(provider Provider, opts Options) *Extractor {
	return &Extractor{provider: provider, opts: opts.withDefaults(100)}
}

// Extract returns the trimmed reply text for kind, or "" when the reply has no choices.
func (e *Extractor) Extract(ctx context.Context, image string, kind FieldKind, credential string) (string, error) {
	const op = "extract"

	if err := checkCredential(op, credential, e.opts.RequireKeyPrefix); err != nil {
		return "", err
	}

	instruction, ok := InstructionFor(kind)
	if !ok {
		return "", newError(KindUnknownFieldKind, op, fmt.Sprintf("unsupported field kind %q", kind))
	}

	reqCtx := common.FromContext(ctx)
	reqCtx.StartStep("extract_field")

	result, err := complete(ctx, e.provider, e.opts, credential, CompletionRequest{
		Instruction: instruction,
		ImageURL:    image,
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	})
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		return "", wrapError(KindExtractionFailed, op, UserFacingMessage(err), err)
	}

	value := strings.TrimSpace(result.Content)
	if !result.HasChoice {
		reqCtx.LogWarning("Reply for %s contained no choices", kind)
	}
	reqCtx.LogInfo("%s → %q", kind, value)
	reqCtx.EndStep("success", result.Usage, nil)

	return value, nil
}

func checkCredential(op, credential string, requirePrefix bool) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return newError(KindMissingCredential, op, "an API key is required")
	}
	if requirePrefix && !strings.HasPrefix(credential, "sk-") {
		return newError(KindMissingCredential, op, "the API key must start with sk-")
	}
	return nil
}

// complete waits for the limiter and performs one provider call
func complete(ctx context.Context, provider Provider, opts Options, credential string, req CompletionRequest) (*CompletionResult, error) {
	reqCtx := common.FromContext(ctx)

	if opts.Limiter != nil {
		reqCtx.StartSubStep("wait_rate_limit")
		err := opts.Limiter.Wait(ctx)
		reqCtx.EndSubStep("")
		if err != nil {
			return nil, categorizeError(err)
		}
	}

	reqCtx.StartSubStep("call_completion")
	result, err := provider.Complete(ctx, strings.TrimSpace(credential), req)
	if err != nil {
		reqCtx.EndSubStep("❌ FAILED")
		return nil, err
	}
	reqCtx.EndSubStep(fmt.Sprintf("%s | %d chars", provider.GetProviderName(), len(result.Content)))

	return result, nil
}
