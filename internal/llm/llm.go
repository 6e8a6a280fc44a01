// Package llm provides clients for external language model APIs.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nlweb-ai/nlweb-go/internal/config"
)

// ErrNotConfigured is returned by New when no provider is configured.
// Callers degrade to retrieval-only behavior instead of failing.
var ErrNotConfigured = errors.New("llm provider not configured")

// StreamChunk is one unit of streamed model output. A chunk with Err set is
// terminal; the channel closes after it.
type StreamChunk struct {
	Content string
	Err     error
}

// Request is a single completion request. Zero MaxTokens means the
// provider's configured budget.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Provider generates text from an external model.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
	// GenerateStream emits model output incrementally. The channel closes
	// when the stream ends.
	GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error)
}

// New builds the configured provider. An empty provider name returns
// ErrNotConfigured.
func New(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, ErrNotConfigured
	case "openai":
		return NewOpenAIProvider(cfg)
	case "anthropic":
		return NewAnthropicProvider(cfg)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// resolveAPIKey prefers the configured key and falls back to the provider's
// conventional environment variable.
func resolveAPIKey(cfg config.LLMConfig, envVar string) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	return os.Getenv(envVar)
}
