package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuery is returned when a query has no text after trimming.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Query represents a natural-language request with optional context and filters.
type Query struct {
	// ID identifies the request. Assigned during processing when empty;
	// caller-supplied IDs are kept as-is.
	ID      string `json:"query_id,omitempty"`
	RawText string `json:"query"`
	// Decontextualized is the self-contained form of RawText with prior
	// conversation folded in. When set, retrieval and generation use it
	// instead of RawText.
	Decontextualized string   `json:"decontextualized_query,omitempty"`
	Mode             Mode     `json:"mode,omitempty"`
	Site             string   `json:"site,omitempty"`
	Prev             []string `json:"prev,omitempty"`
	Streaming        bool     `json:"streaming,omitempty"`
	MaxResults       int      `json:"max_results,omitempty"`
}

// Validate checks the query and normalizes its fields in place.
// Returns an error for empty query text or an unknown mode; whitespace is
// trimmed and result limits are clamped.
func (q *Query) Validate() error {
	q.RawText = strings.TrimSpace(q.RawText)
	if q.RawText == "" {
		return ErrEmptyQuery
	}
	q.Decontextualized = strings.TrimSpace(q.Decontextualized)
	q.Site = strings.TrimSpace(q.Site)
	if q.Mode != "" && !q.Mode.Valid() {
		return fmt.Errorf("unknown mode %q", q.Mode)
	}
	if q.MaxResults < 0 {
		q.MaxResults = 0
	}
	if q.MaxResults > 100 {
		q.MaxResults = 100
	}
	return nil
}

// Text returns the query text retrieval should use: the decontextualized
// form when present, the raw text otherwise.
func (q *Query) Text() string {
	if q.Decontextualized != "" {
		return q.Decontextualized
	}
	return q.RawText
}
