package models

// Result represents a single retrieved item.
type Result struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	// Score is the backend-assigned relevance. Scores from different
	// backends are merged as-is; they are not normalized to a common scale.
	Score       float64 `json:"score"`
	Description string  `json:"description,omitempty"`
	Site        string  `json:"site,omitempty"`
}

// Response is the answer to a query. In streaming flows a sequence of
// Responses shares one QueryID and exactly one of them has IsFinal set.
type Response struct {
	QueryID string   `json:"query_id"`
	Query   string   `json:"query"`
	Mode    Mode     `json:"mode"`
	Results []Result `json:"results"`
	// Summary is populated in summarize and generate modes only.
	Summary string `json:"summary,omitempty"`
	// GeneratedResponse is populated in generate mode only. During
	// streaming, fragments carry incremental pieces of it.
	GeneratedResponse string `json:"generated_response,omitempty"`
	IsStreaming       bool   `json:"is_streaming,omitempty"`
	IsFinal           bool   `json:"is_final"`
	TotalResults      int    `json:"total_results,omitempty"`
	ProcessingTimeMs  int64  `json:"processing_time_ms,omitempty"`
	Error             string `json:"error,omitempty"`
}

// NewResponse returns a Response pre-filled from the query's identity fields.
func NewResponse(q *Query) *Response {
	return &Response{
		QueryID: q.ID,
		Query:   q.RawText,
		Mode:    q.Mode,
		Results: []Result{},
	}
}

// NewErrorResponse returns a final Response carrying an error message.
// The result list is empty but non-nil so encodings stay well-formed.
func NewErrorResponse(q *Query, msg string) *Response {
	resp := NewResponse(q)
	resp.Error = msg
	resp.IsFinal = true
	return resp
}
