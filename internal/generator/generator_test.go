package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/config"
	"github.com/nlweb-ai/nlweb-go/internal/llm"
	"github.com/nlweb-ai/nlweb-go/internal/models"
)

type stubSearcher struct {
	results []models.Result
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, text, site string, maxResults int) ([]models.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func sampleResults() []models.Result {
	return []models.Result{
		{Name: "Carbonara", URL: "https://food.example.com/carbonara", Description: "Classic Roman pasta.", Score: 0.9},
		{Name: "Cacio e Pepe", URL: "https://food.example.com/cacio", Description: "Pecorino and pepper.", Score: 0.8},
		{Name: "Amatriciana", URL: "https://food.example.com/amatriciana", Description: "Tomato and guanciale.", Score: 0.7},
	}
}

func testQueryConfig() *config.QueryConfig {
	return &config.QueryConfig{DefaultMode: "list", MaxResults: 10, SummarizeTop: 2}
}

func TestList(t *testing.T) {
	g := New(&stubSearcher{results: sampleResults()}, nil, testQueryConfig(), zap.NewNop())

	results, err := g.List(context.Background(), "pasta", "", 10)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestListPropagatesError(t *testing.T) {
	g := New(&stubSearcher{err: errors.New("backend down")}, nil, testQueryConfig(), zap.NewNop())

	if _, err := g.List(context.Background(), "pasta", "", 10); err == nil {
		t.Error("expected retrieval error surfaced")
	}
}

func TestSummarizeUnavailableWithoutProvider(t *testing.T) {
	g := New(&stubSearcher{}, nil, testQueryConfig(), zap.NewNop())

	_, err := g.Summarize(context.Background(), "pasta", sampleResults())
	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Errorf("expected ErrGenerationUnavailable, got %v", err)
	}
	if _, err := g.Generate(context.Background(), "pasta", sampleResults()); !errors.Is(err, ErrGenerationUnavailable) {
		t.Errorf("expected ErrGenerationUnavailable, got %v", err)
	}
	if _, err := g.GenerateStream(context.Background(), "pasta", sampleResults(), models.ModeGenerate); !errors.Is(err, ErrGenerationUnavailable) {
		t.Errorf("expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestSummarize(t *testing.T) {
	provider := &llm.MockProvider{Response: "Three Roman pasta dishes were found."}
	g := New(&stubSearcher{}, provider, testQueryConfig(), zap.NewNop())

	results := sampleResults()
	summary, err := g.Summarize(context.Background(), "roman pasta", results)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != "Three Roman pasta dishes were found." {
		t.Errorf("summary = %q", summary)
	}

	// The summarizer must not reorder the caller's results.
	if results[0].Name != "Carbonara" || results[2].Name != "Amatriciana" {
		t.Error("expected result order untouched")
	}
}

func TestSummarizeEmptyResultsSkipsModel(t *testing.T) {
	provider := &llm.MockProvider{Fail: errors.New("should not be called")}
	g := New(&stubSearcher{}, provider, testQueryConfig(), zap.NewNop())

	summary, err := g.Summarize(context.Background(), "pasta", nil)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if summary != noResultsMessage {
		t.Errorf("summary = %q, want canned no-results text", summary)
	}
}

func TestGenerateModelError(t *testing.T) {
	provider := &llm.MockProvider{Fail: errors.New("model down")}
	g := New(&stubSearcher{}, provider, testQueryConfig(), zap.NewNop())

	if _, err := g.Generate(context.Background(), "pasta", sampleResults()); err == nil {
		t.Error("expected model error surfaced")
	}
}

func TestGenerateStream(t *testing.T) {
	provider := &llm.MockProvider{Response: "a grounded answer"}
	g := New(&stubSearcher{}, provider, testQueryConfig(), zap.NewNop())

	ch, err := g.GenerateStream(context.Background(), "pasta", sampleResults(), models.ModeGenerate)
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}

	var sb strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			t.Fatalf("unexpected stream error: %v", chunk.Err)
		}
		sb.WriteString(chunk.Content)
	}
	if sb.String() != "a grounded answer" {
		t.Errorf("streamed text = %q", sb.String())
	}
}

func TestGenerateStreamRejectsListMode(t *testing.T) {
	provider := &llm.MockProvider{}
	g := New(&stubSearcher{}, provider, testQueryConfig(), zap.NewNop())

	if _, err := g.GenerateStream(context.Background(), "pasta", sampleResults(), models.ModeList); err == nil {
		t.Error("expected error for list mode")
	}
}

func TestGenerateStreamEmptyResults(t *testing.T) {
	provider := &llm.MockProvider{Fail: errors.New("should not be called")}
	g := New(&stubSearcher{}, provider, testQueryConfig(), zap.NewNop())

	ch, err := g.GenerateStream(context.Background(), "pasta", nil, models.ModeSummarize)
	if err != nil {
		t.Fatalf("GenerateStream failed: %v", err)
	}

	var chunks []llm.StreamChunk
	for chunk := range ch {
		chunks = append(chunks, chunk)
	}
	if len(chunks) != 1 || chunks[0].Content != noResultsMessage {
		t.Errorf("expected single canned chunk, got %+v", chunks)
	}
}

func TestPromptContextHonorsSummarizeTop(t *testing.T) {
	g := New(&stubSearcher{}, nil, testQueryConfig(), zap.NewNop())

	block := g.promptContext(sampleResults())
	if !strings.Contains(block, "Carbonara") || !strings.Contains(block, "Cacio e Pepe") {
		t.Errorf("expected top 2 results in prompt, got %q", block)
	}
	if strings.Contains(block, "Amatriciana") {
		t.Errorf("expected third result cut by summarize_top=2, got %q", block)
	}
}
