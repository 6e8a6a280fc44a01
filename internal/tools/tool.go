// Package tools holds specialized query handlers and the logic that picks
// at most one of them per request.
package tools

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/models"
)

// maxToolItems caps how many retrieved items a tool returns after its
// synthetic header.
const maxToolItems = 8

// Searcher is the retrieval surface tools build on. *backend.Manager
// implements it.
type Searcher interface {
	Search(ctx context.Context, text, site string, maxResults int) ([]models.Result, error)
}

// Tool is a specialized handler that can claim and answer certain queries.
type Tool interface {
	// Type names the tool ("recipe", "ensemble", "compare").
	Type() string
	// CanHandle reports whether the tool claims the query. Predicates are
	// pure functions of the query text and return false on empty text.
	CanHandle(q *models.Query) bool
	// Priority scores how specifically the tool matches, 0 to 100.
	Priority(q *models.Query) int
	// Execute answers the query.
	Execute(ctx context.Context, q *models.Query) (*models.Response, error)
}

// Selector chooses among registered tools and runs the winner with its
// failures isolated from the rest of the pipeline.
type Selector struct {
	tools  []Tool
	logger *zap.Logger
}

// NewSelector creates an empty selector.
func NewSelector(logger *zap.Logger) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{logger: logger}
}

// Register appends a tool. Registration order is significant: when two
// tools claim a query with equal priority, the earlier registration wins.
func (s *Selector) Register(t Tool) {
	s.tools = append(s.tools, t)
}

// Tools returns the registered tools in registration order.
func (s *Selector) Tools() []Tool {
	out := make([]Tool, len(s.tools))
	copy(out, s.tools)
	return out
}

// Select returns the claiming tool with the highest priority, or nil when
// no tool claims the query.
func (s *Selector) Select(q *models.Query) Tool {
	var best Tool
	bestPriority := -1
	for _, t := range s.tools {
		if !t.CanHandle(q) {
			continue
		}
		if p := t.Priority(q); p > bestPriority {
			best = t
			bestPriority = p
		}
	}
	if best != nil {
		s.logger.Debug("tool selected",
			zap.String("tool", best.Type()),
			zap.Int("priority", bestPriority),
			zap.String("query_id", q.ID))
	}
	return best
}

// Execute runs the tool. Tool errors and panics become an error Response
// carrying a single synthetic "Tool Error" result; nothing propagates as a
// fault. Cancellation before or during execution yields a response whose
// error marks the cancellation.
func (s *Selector) Execute(ctx context.Context, t Tool, q *models.Query) (resp *models.Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("tool panicked",
				zap.String("tool", t.Type()),
				zap.String("query_id", q.ID),
				zap.Any("panic", r))
			resp = toolErrorResponse(q, fmt.Sprintf("tool %s failed: %v", t.Type(), r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return toolErrorResponse(q, fmt.Sprintf("tool %s canceled: %v", t.Type(), err))
	}

	out, err := t.Execute(ctx, q)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return toolErrorResponse(q, fmt.Sprintf("tool %s canceled: %v", t.Type(), err))
		}
		s.logger.Warn("tool failed",
			zap.String("tool", t.Type()),
			zap.String("query_id", q.ID),
			zap.Error(err))
		return toolErrorResponse(q, fmt.Sprintf("tool %s failed: %v", t.Type(), err))
	}
	return out
}

// toolErrorResponse is the degraded response for a failed tool run.
func toolErrorResponse(q *models.Query, msg string) *models.Response {
	resp := models.NewErrorResponse(q, msg)
	resp.Results = []models.Result{{
		Name:        "Tool Error",
		Description: msg,
	}}
	resp.TotalResults = len(resp.Results)
	return resp
}

// headerScore places a synthetic header above the retrieved items without
// rescoring them.
func headerScore(results []models.Result) float64 {
	if len(results) == 0 {
		return 1.0
	}
	return results[0].Score + 1.0
}

// keepRelevant drops unscored items and caps the list.
func keepRelevant(results []models.Result, max int) []models.Result {
	kept := make([]models.Result, 0, max)
	for _, r := range results {
		if r.Score <= 0 {
			continue
		}
		kept = append(kept, r)
		if len(kept) == max {
			break
		}
	}
	return kept
}
