// Package models defines core data structures for queries, results, and responses.
package models

import (
	"fmt"
	"strings"
)

// Mode controls how results are rendered for a query.
type Mode string

const (
	// ModeList returns ranked results only.
	ModeList Mode = "list"
	// ModeSummarize returns ranked results plus a short synthesized summary.
	ModeSummarize Mode = "summarize"
	// ModeGenerate returns a full synthesized answer grounded in the results.
	ModeGenerate Mode = "generate"
)

// ParseMode parses a mode string case-insensitively.
// The empty string is valid and means "use the configured default".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "list":
		return ModeList, nil
	case "summarize":
		return ModeSummarize, nil
	case "generate":
		return ModeGenerate, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeList, ModeSummarize, ModeGenerate:
		return true
	default:
		return false
	}
}
