// Package processor validates and normalizes incoming queries before the
// pipeline runs them.
package processor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/config"
	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/internal/tools"
)

// ToolSelector chooses a specialized handler for a query, or nil.
// Implemented by tools.Selector.
type ToolSelector interface {
	Select(q *models.Query) tools.Tool
}

// Decontextualizer folds previous conversation turns into a standalone
// query text.
type Decontextualizer interface {
	Decontextualize(ctx context.Context, q *models.Query) (string, error)
}

// PreparedQuery is a validated query plus the tool that claimed it, if any.
type PreparedQuery struct {
	Query *models.Query
	Tool  tools.Tool
}

// Processor prepares queries: validation, ID assignment, defaults,
// decontextualization, and tool selection.
type Processor struct {
	selector ToolSelector
	dctx     Decontextualizer
	cfg      *config.QueryConfig
	logger   *zap.Logger
}

// New creates a processor. selector and dctx may be nil when the
// corresponding stage is disabled.
func New(selector ToolSelector, dctx Decontextualizer, cfg *config.QueryConfig, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		selector: selector,
		dctx:     dctx,
		cfg:      cfg,
		logger:   logger,
	}
}

// Prepare validates the query in place, assigns an ID when the caller
// didn't, applies configured defaults, decontextualizes follow-up queries,
// and consults tool selection. Generate mode always bypasses tools.
func (p *Processor) Prepare(ctx context.Context, q *models.Query) (*PreparedQuery, error) {
	if q == nil {
		return nil, fmt.Errorf("invalid query: %w", models.ErrEmptyQuery)
	}
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.Mode == "" {
		q.Mode = p.defaultMode()
	}
	if q.MaxResults == 0 {
		q.MaxResults = p.cfg.MaxResults
	}
	if !p.cfg.StreamingOrDefault() {
		q.Streaming = false
	}

	p.decontextualize(ctx, q)

	var tool tools.Tool
	if p.selector != nil && p.cfg.ToolSelectionOrDefault() && q.Mode != models.ModeGenerate {
		tool = p.selector.Select(q)
	}

	p.logger.Debug("query prepared",
		zap.String("query_id", q.ID),
		zap.String("mode", string(q.Mode)),
		zap.Bool("tool_selected", tool != nil))

	return &PreparedQuery{Query: q, Tool: tool}, nil
}

// decontextualize fills q.Decontextualized for follow-up queries. A
// caller-supplied decontextualized text is kept verbatim, and a failed
// rewrite falls back to the raw text rather than failing the request.
func (p *Processor) decontextualize(ctx context.Context, q *models.Query) {
	if p.dctx == nil || q.Decontextualized != "" || len(q.Prev) == 0 {
		return
	}
	text, err := p.dctx.Decontextualize(ctx, q)
	if err != nil {
		p.logger.Warn("decontextualization failed, using raw query",
			zap.String("query_id", q.ID),
			zap.Error(err))
		return
	}
	if text != "" && text != q.RawText {
		q.Decontextualized = text
	}
}

func (p *Processor) defaultMode() models.Mode {
	if mode, err := models.ParseMode(p.cfg.DefaultMode); err == nil && mode != "" {
		return mode
	}
	return models.ModeList
}
