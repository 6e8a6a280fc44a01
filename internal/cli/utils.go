// Package cli provides CLI output utilities for nlweb.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/pkg/utils"
)

// OutputFormat is the format for response output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a format flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteResponse writes a query response to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteResponse(w io.Writer, resp *models.Response, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	default:
		writeResponseText(w, resp)
		return nil
	}
}

func writeResponseText(w io.Writer, resp *models.Response) {
	if resp.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", resp.Error)
		return
	}

	fmt.Fprintf(w, "\nFound %d results in %dms (mode: %s)\n\n",
		resp.TotalResults, resp.ProcessingTimeMs, resp.Mode)
	for i, result := range resp.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "Rank: %d | Score: %.4f\n", i+1, result.Score)
		fmt.Fprintf(w, "%s\n%s\n", result.Name, result.URL)
		if result.Site != "" {
			fmt.Fprintf(w, "Site: %s\n", result.Site)
		}
		if result.Description != "" {
			fmt.Fprintf(w, "\n%s\n", utils.Truncate(result.Description, 200))
		}
		fmt.Fprintln(w)
	}

	if resp.Summary != "" {
		fmt.Fprintf(w, "Summary:\n%s\n\n", resp.Summary)
	}
	if resp.GeneratedResponse != "" {
		fmt.Fprintf(w, "Answer:\n%s\n\n", resp.GeneratedResponse)
	}
}
