package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/pkg/utils"
)

// ensembleTerms marks queries asking for several recommendations at once.
var ensembleTerms = map[string]struct{}{
	"ideas":           {},
	"options":         {},
	"suggestions":     {},
	"suggest":         {},
	"recommend":       {},
	"recommendation":  {},
	"recommendations": {},
	"alternatives":    {},
	"picks":           {},
	"variety":         {},
}

// perSiteCap keeps ensemble answers from being dominated by one source.
const perSiteCap = 2

// EnsembleTool answers requests for multiple recommendations with a
// source-diverse, capped result list.
type EnsembleTool struct {
	searcher Searcher
	logger   *zap.Logger
}

// NewEnsembleTool creates the ensemble tool on top of the given retrieval surface.
func NewEnsembleTool(searcher Searcher, logger *zap.Logger) *EnsembleTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnsembleTool{searcher: searcher, logger: logger}
}

// Type returns the tool name.
func (t *EnsembleTool) Type() string {
	return "ensemble"
}

// CanHandle claims queries that ask for several recommendations.
func (t *EnsembleTool) CanHandle(q *models.Query) bool {
	if q == nil || strings.TrimSpace(q.Text()) == "" {
		return false
	}
	for _, tok := range utils.Tokenize(q.Text()) {
		if _, ok := ensembleTerms[tok]; ok {
			return true
		}
	}
	return false
}

// Priority is a flat 80: the predicate is broad, so more specific tools
// win when both claim a query.
func (t *EnsembleTool) Priority(q *models.Query) int {
	return 80
}

// Execute retrieves a wide candidate set and reshapes it for diversity:
// at most two items per site, capped, behind a synthetic overview item.
func (t *EnsembleTool) Execute(ctx context.Context, q *models.Query) (*models.Response, error) {
	results, err := t.searcher.Search(ctx, q.Text(), q.Site, maxToolItems*3)
	if err != nil {
		return nil, fmt.Errorf("ensemble search failed: %w", err)
	}

	perSite := make(map[string]int)
	kept := make([]models.Result, 0, maxToolItems)
	for _, r := range results {
		if r.Score <= 0 {
			continue
		}
		if perSite[r.Site] >= perSiteCap {
			continue
		}
		perSite[r.Site]++
		kept = append(kept, r)
		if len(kept) == maxToolItems {
			break
		}
	}

	header := models.Result{
		Name:        fmt.Sprintf("Suggestions: %s", q.Text()),
		Description: fmt.Sprintf("%d recommendations drawn from %d sources.", len(kept), len(perSite)),
		Site:        q.Site,
		Score:       headerScore(kept),
	}

	resp := models.NewResponse(q)
	resp.Results = append([]models.Result{header}, kept...)
	resp.TotalResults = len(resp.Results)
	return resp, nil
}
