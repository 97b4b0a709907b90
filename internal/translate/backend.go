package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/labsense/internal/collab"
	"github.com/ppiankov/labsense/internal/llm"
	"github.com/ppiankov/labsense/internal/model"
	"github.com/ppiankov/labsense/internal/util"
)

// Backend translates masked text. Implementations must pass ⟦...⟧ tokens
// through; anything they drop is caught when the text is unmasked.
type Backend interface {
	// Name identifies the backend in reports and cache keys
	Name() string

	// Translate converts text from source to target language
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Echo returns its input unchanged. It serves offline runs and tests.
type Echo struct{}

// Name implements Backend
func (Echo) Name() string { return "echo" }

// Translate implements Backend
func (Echo) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

// guarded runs every call through a collaborator guard
type guarded struct {
	Backend
	guard *collab.Guard
}

// Guarded wraps a backend with timeout, rate limit, retry and breaker
func Guarded(b Backend, guard *collab.Guard) Backend {
	if guard == nil {
		return b
	}
	return &guarded{Backend: b, guard: guard}
}

func (g *guarded) Translate(ctx context.Context, text, source, target string) (string, error) {
	var out string
	err := g.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.Backend.Translate(ctx, text, source, target)
		return err
	})
	return out, err
}

// NewBackend builds the configured backend. "none" and "" return nil:
// the pipeline then produces English only.
func NewBackend(cfg model.Config) (Backend, error) {
	switch strings.ToLower(cfg.Translation.Backend) {
	case "", "none":
		return nil, nil

	case "echo":
		return Echo{}, nil

	case "google":
		client := util.NewHTTPClient(util.ClientOptions{
			Timeout:    cfg.Translation.Timeout,
			UserAgent:  cfg.HTTP.UserAgent,
			HTTPProxy:  cfg.HTTP.HTTPProxy,
			HTTPSProxy: cfg.HTTP.HTTPSProxy,
			NoProxy:    cfg.HTTP.NoProxy,
		})
		return NewGoogleBackend(cfg.Translation.BaseURL, client), nil

	case "llm":
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM translator: %w", err)
		}
		if provider == nil {
			return nil, fmt.Errorf("translation backend llm needs llm.provider to be set")
		}
		return NewLLMBackend(provider), nil

	default:
		return nil, fmt.Errorf("unknown translation backend: %s (supported: google, llm, echo, none)", cfg.Translation.Backend)
	}
}
