package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProvider(t *testing.T) {
	p, err := CreateProvider(ProviderConfig{Provider: "openai", OpenAIModel: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.GetProviderName())

	p, err = CreateProvider(ProviderConfig{Provider: "gemini"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", p.GetProviderName())

	_, err = CreateProvider(ProviderConfig{Provider: "mistral"})
	assert.Error(t, err)
}

func TestGeminiRejectsNonDataURL(t *testing.T) {
	p := NewGeminiProvider("")
	_, err := p.Complete(context.Background(), "key", CompletionRequest{Instruction: "x", ImageURL: "https://example.com/a.jpg"})
	assert.Error(t, err)
}

func TestErrorHelpers(t *testing.T) {
	base := &Error{Kind: KindMalformedExtraction, Op: "parse_reply", Message: "bad", Raw: "oops", Cause: errors.New("json")}
	wrapped := fmt.Errorf("handler: %w", base)

	assert.True(t, IsKind(wrapped, KindMalformedExtraction))
	assert.False(t, IsKind(wrapped, KindExtractionFailed))
	assert.Equal(t, KindMalformedExtraction, KindOf(wrapped))
	assert.Equal(t, "oops", RawReply(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Contains(t, base.Error(), "[malformed_extraction:parse_reply] bad: json")
	assert.Nil(t, wrapError(KindExtractionFailed, "op", "msg", nil))
}
