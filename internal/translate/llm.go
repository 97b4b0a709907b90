package translate

import (
	"context"

	"github.com/ppiankov/labsense/internal/llm"
)

// LLMBackend translates through an LLM provider
type LLMBackend struct {
	provider llm.Provider
}

// NewLLMBackend wraps a provider
func NewLLMBackend(provider llm.Provider) *LLMBackend {
	return &LLMBackend{provider: provider}
}

// Name implements Backend
func (b *LLMBackend) Name() string { return "llm:" + b.provider.Name() }

// Translate implements Backend
func (b *LLMBackend) Translate(ctx context.Context, text, source, target string) (string, error) {
	resp, err := b.provider.Translate(ctx, llm.TranslateRequest{
		Text:   text,
		Source: source,
		Target: target,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
