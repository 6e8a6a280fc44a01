package llm

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/nlweb-ai/nlweb-go/internal/config"
)

const defaultAnthropicModel = "claude-3-5-haiku-latest"

// AnthropicProvider talks to the Anthropic messages API.
type AnthropicProvider struct {
	client      *anthropic.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewAnthropicProvider builds a provider from config. The API key falls
// back to ANTHROPIC_API_KEY.
func NewAnthropicProvider(cfg config.LLMConfig) (*AnthropicProvider, error) {
	apiKey := resolveAPIKey(cfg, "ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}

	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}

	return &AnthropicProvider{
		client:      anthropic.NewClient(apiKey, opts...),
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

func (p *AnthropicProvider) buildRequest(req Request) anthropic.MessagesRequest {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.maxTokens
	}
	temperature := p.temperature

	mr := anthropic.MessagesRequest{
		Model: anthropic.Model(p.model),
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(req.Prompt),
		},
		MaxTokens:   maxTokens,
		Temperature: &temperature,
	}
	if req.System != "" {
		mr.System = req.System
	}
	return mr
}

// Generate performs a single blocking completion.
func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := p.client.CreateMessages(ctx, p.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}
	return resp.GetFirstContentText(), nil
}

// GenerateStream performs a streaming completion. Text deltas are forwarded
// as they arrive.
func (p *AnthropicProvider) GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error) {
	out := make(chan StreamChunk)
	go func() {
		defer close(out)

		_, err := p.client.CreateMessagesStream(ctx, anthropic.MessagesStreamRequest{
			MessagesRequest: p.buildRequest(req),
			OnContentBlockDelta: func(data anthropic.MessagesEventContentBlockDeltaData) {
				text := data.Delta.GetText()
				if text == "" {
					return
				}
				select {
				case out <- StreamChunk{Content: text}:
				case <-ctx.Done():
				}
			},
		})
		if err != nil {
			select {
			case out <- StreamChunk{Err: fmt.Errorf("anthropic stream failed: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}
