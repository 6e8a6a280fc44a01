package tools

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/pkg/utils"
)

var (
	versusPattern     = regexp.MustCompile(`(?i)^(?:compare\s+)?(.+?)\s+(?:vs\.?|versus)\s+(.+)$`)
	differencePattern = regexp.MustCompile(`(?i)difference\s+between\s+(.+?)\s+and\s+(.+)$`)
)

// compareTerms marks explicit comparison vocabulary.
var compareTerms = map[string]struct{}{
	"compare":    {},
	"comparison": {},
	"versus":     {},
	"vs":         {},
	"difference": {},
}

// CompareTool answers "X vs Y" queries by retrieving both sides and
// interleaving the matches.
type CompareTool struct {
	searcher Searcher
	logger   *zap.Logger
}

// NewCompareTool creates the compare tool on top of the given retrieval surface.
func NewCompareTool(searcher Searcher, logger *zap.Logger) *CompareTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompareTool{searcher: searcher, logger: logger}
}

// Type returns the tool name.
func (t *CompareTool) Type() string {
	return "compare"
}

// CanHandle claims queries with comparison vocabulary.
func (t *CompareTool) CanHandle(q *models.Query) bool {
	if q == nil || strings.TrimSpace(q.Text()) == "" {
		return false
	}
	for _, tok := range utils.Tokenize(q.Text()) {
		if _, ok := compareTerms[tok]; ok {
			return true
		}
	}
	return false
}

// Priority is 85: more specific than the ensemble predicate, less specific
// than recipe substitution phrasing.
func (t *CompareTool) Priority(q *models.Query) int {
	return 85
}

// comparands extracts the two sides of a comparison, or ok=false when the
// phrasing doesn't name two sides.
func comparands(text string) (left, right string, ok bool) {
	for _, pattern := range []*regexp.Regexp{versusPattern, differencePattern} {
		if m := pattern.FindStringSubmatch(text); m != nil {
			left = strings.Trim(strings.TrimSpace(m[1]), "?.!,")
			right = strings.Trim(strings.TrimSpace(m[2]), "?.!,")
			if left != "" && right != "" {
				return left, right, true
			}
		}
	}
	return "", "", false
}

// Execute retrieves candidates for each side of the comparison and
// interleaves them behind a synthetic overview item. Queries without two
// recognizable sides degrade to a single capped search.
func (t *CompareTool) Execute(ctx context.Context, q *models.Query) (*models.Response, error) {
	left, right, ok := comparands(q.Text())
	if !ok {
		results, err := t.searcher.Search(ctx, q.Text(), q.Site, maxToolItems*2)
		if err != nil {
			return nil, fmt.Errorf("compare search failed: %w", err)
		}
		kept := keepRelevant(results, maxToolItems)
		return t.respond(q, q.Text(), kept), nil
	}

	perSide := maxToolItems / 2
	leftResults, err := t.searcher.Search(ctx, left, q.Site, perSide*2)
	if err != nil {
		return nil, fmt.Errorf("compare search for %q failed: %w", left, err)
	}
	rightResults, err := t.searcher.Search(ctx, right, q.Site, perSide*2)
	if err != nil {
		return nil, fmt.Errorf("compare search for %q failed: %w", right, err)
	}

	kept := interleave(keepRelevant(leftResults, perSide), keepRelevant(rightResults, perSide))
	return t.respond(q, fmt.Sprintf("%s vs %s", left, right), kept), nil
}

func (t *CompareTool) respond(q *models.Query, subject string, kept []models.Result) *models.Response {
	header := models.Result{
		Name:        fmt.Sprintf("Comparison: %s", subject),
		Description: fmt.Sprintf("Side-by-side matches for %s.", subject),
		Site:        q.Site,
		Score:       headerScore(kept),
	}

	resp := models.NewResponse(q)
	resp.Results = append([]models.Result{header}, kept...)
	resp.TotalResults = len(resp.Results)
	return resp
}

// interleave alternates entries from the two sides, deduplicating by URL.
func interleave(a, b []models.Result) []models.Result {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]models.Result, 0, len(a)+len(b))
	for i := 0; i < len(a) || i < len(b); i++ {
		if i < len(a) {
			out = appendUnseen(out, a[i], seen)
		}
		if i < len(b) {
			out = appendUnseen(out, b[i], seen)
		}
	}
	if len(out) > maxToolItems {
		out = out[:maxToolItems]
	}
	return out
}

func appendUnseen(out []models.Result, r models.Result, seen map[string]struct{}) []models.Result {
	if r.URL != "" {
		if _, ok := seen[r.URL]; ok {
			return out
		}
		seen[r.URL] = struct{}{}
	}
	return append(out, r)
}
