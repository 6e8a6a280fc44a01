// Package e2e tests the HTTP surface end to end over real components.
package e2e

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nlweb-ai/nlweb-go/internal/models"
)

// fixtureItems is the corpus every e2e server starts with.
func fixtureItems() []models.Result {
	return []models.Result{
		{Name: "Chocolate Cake Recipe", URL: "https://food.example.com/cake", Description: "rich chocolate layer cake recipe with ganache", Site: "food.example.com"},
		{Name: "Pasta Carbonara", URL: "https://food.example.com/carbonara", Description: "classic roman pasta with guanciale", Site: "food.example.com"},
		{Name: "Trail Running Shoes", URL: "https://gear.example.com/shoes", Description: "picking shoes for technical trails", Site: "gear.example.com"},
		{Name: "Headlamp Review", URL: "https://gear.example.com/headlamp", Description: "night running headlamp comparison", Site: "gear.example.com"},
	}
}

// writeCorpusFile writes items as a JSONL corpus into dir and returns the path.
func writeCorpusFile(t *testing.T, dir string, items []models.Result) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for _, item := range items {
		line, err := json.Marshal(item)
		if err != nil {
			t.Fatal(err)
		}
		fmt.Fprintf(f, "%s\n", line)
	}
	return path
}
