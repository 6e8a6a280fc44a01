package processor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/llm"
	"github.com/nlweb-ai/nlweb-go/internal/models"
)

const decontextualizeSystem = "You rewrite follow-up search queries into standalone queries. " +
	"Reply with the rewritten query only, no explanation."

// decontextualizeMaxTokens bounds the rewrite; queries are short.
const decontextualizeMaxTokens = 120

// Passthrough is the default Decontextualizer: the raw text is already
// the standalone query.
type Passthrough struct{}

// Decontextualize returns the raw query text unchanged.
func (Passthrough) Decontextualize(ctx context.Context, q *models.Query) (string, error) {
	return q.RawText, nil
}

// LLMDecontextualizer rewrites follow-up queries with a language model.
type LLMDecontextualizer struct {
	provider llm.Provider
	logger   *zap.Logger
}

// NewLLMDecontextualizer wires a provider-backed rewriter.
func NewLLMDecontextualizer(provider llm.Provider, logger *zap.Logger) *LLMDecontextualizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMDecontextualizer{provider: provider, logger: logger}
}

// Decontextualize folds the previous queries into the current one. Errors
// propagate to the caller, which falls back to the raw text.
func (d *LLMDecontextualizer) Decontextualize(ctx context.Context, q *models.Query) (string, error) {
	if len(q.Prev) == 0 {
		return q.RawText, nil
	}

	var sb strings.Builder
	sb.WriteString("Previous queries in this conversation:\n")
	for _, prev := range q.Prev {
		fmt.Fprintf(&sb, "- %s\n", prev)
	}
	fmt.Fprintf(&sb, "Current query: %s\n", q.RawText)
	sb.WriteString("Rewrite the current query so it stands alone.")

	text, err := d.provider.Generate(ctx, llm.Request{
		System:    decontextualizeSystem,
		Prompt:    sb.String(),
		MaxTokens: decontextualizeMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("decontextualize failed: %w", err)
	}

	text = strings.TrimSpace(strings.Trim(strings.TrimSpace(text), `"`))
	if text == "" {
		return "", fmt.Errorf("decontextualize returned empty text")
	}
	return text, nil
}
