// Package generator turns ranked retrieval results into the response shape
// a query's mode asks for: a plain list, a summary, or a grounded answer.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/config"
	"github.com/nlweb-ai/nlweb-go/internal/llm"
	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/pkg/utils"
)

// ErrGenerationUnavailable is returned by AI-backed modes when no language
// model is configured.
var ErrGenerationUnavailable = errors.New("generation unavailable: no language model configured")

const (
	defaultSummarizeTop = 5
	descriptionMaxLen   = 300

	// noResultsMessage stands in for model output when retrieval found
	// nothing to summarize or ground an answer on.
	noResultsMessage = "No matching results were found."

	summarizeSystem = "You summarize search results for a user. Be concise and factual " +
		"and mention only the retrieved items."
	generateSystem = "You answer questions using only the provided search results as " +
		"grounding context. If the results do not contain the answer, say so plainly."
)

// Searcher is the retrieval surface the list mode delegates to.
// *backend.Manager implements it.
type Searcher interface {
	Search(ctx context.Context, text, site string, maxResults int) ([]models.Result, error)
}

// Generator produces mode-shaped output from retrieval results.
type Generator struct {
	searcher Searcher
	provider llm.Provider
	cfg      *config.QueryConfig
	logger   *zap.Logger
}

// New creates a generator. provider may be nil, in which case summarize and
// generate modes fail with ErrGenerationUnavailable.
func New(searcher Searcher, provider llm.Provider, cfg *config.QueryConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		searcher: searcher,
		provider: provider,
		cfg:      cfg,
		logger:   logger,
	}
}

// List retrieves ranked results without any model call.
func (g *Generator) List(ctx context.Context, text, site string, maxResults int) ([]models.Result, error) {
	results, err := g.searcher.Search(ctx, text, site, maxResults)
	if err != nil {
		return nil, fmt.Errorf("list retrieval failed: %w", err)
	}
	return results, nil
}

// Summarize produces a short summary of the top results. The result list
// itself is never reordered by the model.
func (g *Generator) Summarize(ctx context.Context, text string, results []models.Result) (string, error) {
	if g.provider == nil {
		return "", ErrGenerationUnavailable
	}
	if len(results) == 0 {
		return noResultsMessage, nil
	}

	out, err := g.provider.Generate(ctx, llm.Request{
		System: summarizeSystem,
		Prompt: g.summarizePrompt(text, results),
	})
	if err != nil {
		return "", fmt.Errorf("summary generation failed: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Generate produces an answer grounded on the top results.
func (g *Generator) Generate(ctx context.Context, text string, results []models.Result) (string, error) {
	if g.provider == nil {
		return "", ErrGenerationUnavailable
	}
	if len(results) == 0 {
		return noResultsMessage, nil
	}

	out, err := g.provider.Generate(ctx, llm.Request{
		System: generateSystem,
		Prompt: g.generatePrompt(text, results),
	})
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// GenerateStream streams the summary or answer for the given mode. The
// channel closes when the model finishes; the stream is not restartable.
func (g *Generator) GenerateStream(ctx context.Context, text string, results []models.Result, mode models.Mode) (<-chan llm.StreamChunk, error) {
	if g.provider == nil {
		return nil, ErrGenerationUnavailable
	}

	var req llm.Request
	switch mode {
	case models.ModeSummarize:
		req = llm.Request{System: summarizeSystem, Prompt: g.summarizePrompt(text, results)}
	case models.ModeGenerate:
		req = llm.Request{System: generateSystem, Prompt: g.generatePrompt(text, results)}
	default:
		return nil, fmt.Errorf("mode %q does not generate text", mode)
	}

	if len(results) == 0 {
		out := make(chan llm.StreamChunk, 1)
		out <- llm.StreamChunk{Content: noResultsMessage}
		close(out)
		return out, nil
	}

	ch, err := g.provider.GenerateStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("stream generation failed: %w", err)
	}
	return ch, nil
}

func (g *Generator) summarizePrompt(text string, results []models.Result) string {
	return fmt.Sprintf("The user searched for: %s\n\nTop results:\n%s\nSummarize what was found in 2-3 sentences.",
		text, g.promptContext(results))
}

func (g *Generator) generatePrompt(text string, results []models.Result) string {
	return fmt.Sprintf("Question: %s\n\nRetrieved context:\n%s\nAnswer the question using the context above.",
		text, g.promptContext(results))
}

// promptContext renders the top results as a numbered block.
func (g *Generator) promptContext(results []models.Result) string {
	top := g.summarizeTop()
	if len(results) < top {
		top = len(results)
	}

	var sb strings.Builder
	for i := 0; i < top; i++ {
		r := results[i]
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, r.Name, r.URL)
		if r.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", utils.Truncate(r.Description, descriptionMaxLen))
		}
	}
	return sb.String()
}

func (g *Generator) summarizeTop() int {
	if g.cfg != nil && g.cfg.SummarizeTop > 0 {
		return g.cfg.SummarizeTop
	}
	return defaultSummarizeTop
}
