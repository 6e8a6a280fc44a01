package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MockProvider is a deterministic provider for tests and credential-free
// local runs. The same request always gets the same output.
type MockProvider struct {
	// Response, when set, is returned verbatim instead of the derived text.
	Response string
	// Delay is inserted before each streamed chunk so tests can exercise
	// cancellation mid-stream.
	Delay time.Duration
	// Fail, when set, makes every call return this error.
	Fail error
}

// NewMockProvider returns a provider that produces deterministic output.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string {
	return "mock"
}

// Generate returns a canned completion derived from the prompt.
func (m *MockProvider) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Fail != nil {
		return "", m.Fail
	}
	if m.Response != "" {
		return m.Response, nil
	}
	prompt := req.Prompt
	if len(prompt) > 80 {
		prompt = prompt[:80]
	}
	return fmt.Sprintf("mock response for: %s", prompt), nil
}

// GenerateStream emits the Generate output one word at a time.
func (m *MockProvider) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	text, err := m.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		words := strings.Fields(text)
		for i, word := range words {
			if m.Delay > 0 {
				select {
				case <-time.After(m.Delay):
				case <-ctx.Done():
					select {
					case out <- StreamChunk{Err: ctx.Err()}:
					default:
					}
					return
				}
			}
			chunk := word
			if i < len(words)-1 {
				chunk += " "
			}
			select {
			case out <- StreamChunk{Content: chunk}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
