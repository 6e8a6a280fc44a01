package backend

import "github.com/nlweb-ai/nlweb-go/pkg/utils"

// scoreTokens ranks an item against the query tokens by term coverage.
// Coverage is squared so items matching all terms outrank partial matches,
// and name hits add on top of the base score. Zero means no match.
func scoreTokens(queryTokens []string, name, description string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	nameSet := utils.TokenSet(name)
	descSet := utils.TokenSet(description)
	matched := 0
	nameMatched := 0
	for _, tok := range queryTokens {
		_, inName := nameSet[tok]
		_, inDesc := descSet[tok]
		if inName || inDesc {
			matched++
		}
		if inName {
			nameMatched++
		}
	}
	if matched == 0 {
		return 0
	}
	coverage := float64(matched) / float64(len(queryTokens))
	score := coverage * coverage
	score += 0.5 * float64(nameMatched) / float64(len(queryTokens))
	return score
}
