package backend

import (
	"sort"

	"github.com/nlweb-ai/nlweb-go/internal/models"
)

// MergeResults combines per-backend result lists into one ranked list.
// With dedupe set, URL collisions keep the higher-scoring entry. Scores are
// compared as-is across backends; no normalization is applied. The merged
// list is sorted by score descending and truncated to maxResults; ties keep
// their arrival order.
func MergeResults(lists [][]models.Result, maxResults int, dedupe bool) []models.Result {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	merged := make([]models.Result, 0, total)

	if dedupe {
		index := make(map[string]int, total)
		for _, l := range lists {
			for _, r := range l {
				if r.URL == "" {
					merged = append(merged, r)
					continue
				}
				if i, ok := index[r.URL]; ok {
					if r.Score > merged[i].Score {
						merged[i] = r
					}
					continue
				}
				index[r.URL] = len(merged)
				merged = append(merged, r)
			}
		}
	} else {
		for _, l := range lists {
			merged = append(merged, l...)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Score > merged[j].Score })
	if maxResults > 0 && len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	return merged
}
