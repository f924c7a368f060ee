// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func TestFormatTable(t *testing.T) {
	score := 0.87
	resp := &types.SearchResponse{
		Query:  "go concurrency",
		Status: types.StatusDegraded,
		Results: []types.RankedItem{
			{RetrievalItem: types.RetrievalItem{Title: "Go Concurrency Patterns", Source: "wikipedia"}, Score: &score, Rank: 1},
			{RetrievalItem: types.RetrievalItem{Title: "Goroutines", Source: "duckduckgo"}, Rank: 2},
		},
		Synthesis:       &types.SynthesisSummary{Summary: "Concurrency in Go.", Confidence: 0.8, KeyPoints: []string{"goroutines are cheap"}},
		DegradedSources: []string{"brave"},
	}

	var buf bytes.Buffer
	FormatTable(resp, &buf)
	out := buf.String()

	for _, want := range []string{
		"Go Concurrency Patterns", "0.87", "wikipedia",
		"2 results (degraded", "Concurrency in Go.", "goroutines are cheap",
		"Degraded sources: brave",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(&types.SearchResponse{}, &buf)
	if !strings.Contains(buf.String(), "No results found.") {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	resp := &types.SearchResponse{Query: "go concurrency", Status: types.StatusOK}
	if err := FormatJSON(resp, &buf); err != nil {
		t.Fatalf("FormatJSON() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"query": "go concurrency"`) {
		t.Errorf("json output = %q", buf.String())
	}
}
