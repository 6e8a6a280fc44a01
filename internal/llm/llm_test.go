package llm

import (
	"errors"
	"testing"

	"github.com/nlweb-ai/nlweb-go/internal/config"
)

func TestNewUnconfigured(t *testing.T) {
	_, err := New(config.LLMConfig{})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(config.LLMConfig{Provider: "cohere"})
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestNewMock(t *testing.T) {
	p, err := New(config.LLMConfig{Provider: "mock"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Name() != "mock" {
		t.Errorf("expected mock provider, got %q", p.Name())
	}
}

func TestNewOpenAI(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	p, err := New(config.LLMConfig{Provider: "openai", APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Name() != "openai" {
		t.Errorf("expected openai provider, got %q", p.Name())
	}

	if _, err := New(config.LLMConfig{Provider: "openai"}); err == nil {
		t.Error("expected error without api key")
	}
}

func TestNewOpenAIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	if _, err := New(config.LLMConfig{Provider: "openai"}); err != nil {
		t.Errorf("expected env key fallback, got %v", err)
	}
}

func TestNewAnthropic(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	p, err := New(config.LLMConfig{Provider: "anthropic", APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if p.Name() != "anthropic" {
		t.Errorf("expected anthropic provider, got %q", p.Name())
	}

	if _, err := New(config.LLMConfig{Provider: "anthropic"}); err == nil {
		t.Error("expected error without api key")
	}
}

func TestOpenAIDefaultModel(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	p, err := NewOpenAIProvider(config.LLMConfig{Provider: "openai", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}
	if p.model != defaultOpenAIModel {
		t.Errorf("expected default model %q, got %q", defaultOpenAIModel, p.model)
	}

	p, err = NewOpenAIProvider(config.LLMConfig{Provider: "openai", APIKey: "k", Model: "gpt-4o"})
	if err != nil {
		t.Fatalf("NewOpenAIProvider failed: %v", err)
	}
	if p.model != "gpt-4o" {
		t.Errorf("expected configured model, got %q", p.model)
	}
}
