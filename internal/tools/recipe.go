package tools

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/pkg/utils"
)

// cookingTerms is the keyword predicate for the recipe tool.
var cookingTerms = map[string]struct{}{
	"recipe":       {},
	"recipes":      {},
	"cook":         {},
	"cooking":      {},
	"bake":         {},
	"baking":       {},
	"ingredient":   {},
	"ingredients":  {},
	"dish":         {},
	"dishes":       {},
	"meal":         {},
	"meals":        {},
	"cuisine":      {},
	"dinner":       {},
	"lunch":        {},
	"breakfast":    {},
	"dessert":      {},
	"substitute":   {},
	"substitution": {},
}

// RecipeTool answers cooking queries with a curated, capped result list.
type RecipeTool struct {
	searcher Searcher
	logger   *zap.Logger
}

// NewRecipeTool creates the recipe tool on top of the given retrieval surface.
func NewRecipeTool(searcher Searcher, logger *zap.Logger) *RecipeTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecipeTool{searcher: searcher, logger: logger}
}

// Type returns the tool name.
func (t *RecipeTool) Type() string {
	return "recipe"
}

// CanHandle claims queries containing cooking vocabulary.
func (t *RecipeTool) CanHandle(q *models.Query) bool {
	if q == nil || strings.TrimSpace(q.Text()) == "" {
		return false
	}
	for _, tok := range utils.Tokenize(q.Text()) {
		if _, ok := cookingTerms[tok]; ok {
			return true
		}
	}
	return false
}

// Priority is 95 for substitution phrasing, which the tool handles
// especially well, and 90 for general cooking queries.
func (t *RecipeTool) Priority(q *models.Query) int {
	text := strings.ToLower(q.Text())
	if strings.Contains(text, "substitute for") || strings.Contains(text, "substitution for") {
		return 95
	}
	return 90
}

// Execute retrieves candidates, filters out unscored ones, caps the list,
// and prepends a synthetic overview item.
func (t *RecipeTool) Execute(ctx context.Context, q *models.Query) (*models.Response, error) {
	results, err := t.searcher.Search(ctx, q.Text(), q.Site, maxToolItems*2)
	if err != nil {
		return nil, fmt.Errorf("recipe search failed: %w", err)
	}

	kept := keepRelevant(results, maxToolItems)
	header := models.Result{
		Name:        fmt.Sprintf("Recipe Guide: %s", q.Text()),
		Description: fmt.Sprintf("Curated matches for %q.", q.Text()),
		Site:        q.Site,
		Score:       headerScore(kept),
	}

	resp := models.NewResponse(q)
	resp.Results = append([]models.Result{header}, kept...)
	resp.TotalResults = len(resp.Results)
	return resp, nil
}
