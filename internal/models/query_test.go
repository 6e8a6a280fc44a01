package models

import (
	"testing"
)

func TestQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *Query
		wantErr bool
	}{
		{"empty query", &Query{RawText: ""}, true},
		{"whitespace only", &Query{RawText: "   \t\n"}, true},
		{"valid query", &Query{RawText: "best pasta recipes"}, false},
		{"trims whitespace", &Query{RawText: "  hello  "}, false},
		{"unknown mode", &Query{RawText: "x", Mode: "verbose"}, true},
		{"known mode", &Query{RawText: "x", Mode: ModeSummarize}, false},
		{"negative max results reset", &Query{RawText: "x", MaxResults: -3}, false},
		{"caps max results at 100", &Query{RawText: "x", MaxResults: 500}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.query.RawText != "" && tt.query.RawText[0] == ' ' {
				t.Error("expected leading whitespace trimmed")
			}
			if tt.query.MaxResults < 0 {
				t.Errorf("expected non-negative max results, got %d", tt.query.MaxResults)
			}
			if tt.query.MaxResults > 100 {
				t.Errorf("expected max results capped at 100, got %d", tt.query.MaxResults)
			}
		})
	}
}

func TestQuery_Text(t *testing.T) {
	q := &Query{RawText: "how about the second one", Decontextualized: "pasta carbonara recipe details"}
	if q.Text() != "pasta carbonara recipe details" {
		t.Errorf("Text() = %q, want decontextualized form", q.Text())
	}
	q2 := &Query{RawText: "pasta carbonara"}
	if q2.Text() != "pasta carbonara" {
		t.Errorf("Text() = %q, want raw text", q2.Text())
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"list", ModeList, false},
		{"Summarize", ModeSummarize, false},
		{"GENERATE", ModeGenerate, false},
		{"", "", false},
		{"explain", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewErrorResponse(t *testing.T) {
	q := &Query{ID: "q-1", RawText: "anything", Mode: ModeList}
	resp := NewErrorResponse(q, "backend unavailable")
	if resp.QueryID != "q-1" {
		t.Errorf("QueryID = %q, want q-1", resp.QueryID)
	}
	if !resp.IsFinal {
		t.Error("error response must be final")
	}
	if resp.Results == nil {
		t.Error("results must be an empty list, not nil")
	}
	if resp.Error != "backend unavailable" {
		t.Errorf("Error = %q", resp.Error)
	}
}
