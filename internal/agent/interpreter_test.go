// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"errors"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"lowercase", "What Is Go", "what is go"},
		{"collapse whitespace", "go   concurrency\tpatterns", "go concurrency patterns"},
		{"strip specials keep hyphen and question mark", "what's single-flight?!", "whats single-flight?"},
		{"trim", "  go  ", "go"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.query); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestInterpretIntent(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"what is a goroutine", "definition"},
		{"who wrote the go language", "person"},
		{"when was go released", "time"},
		{"where is gophercon held", "location"},
		{"why use channels", "reason"},
		{"how do channels work", "process"},
		{"best go web framework", "recommendation"},
		{"go vs rust performance", "comparison"},
		{"golang orm review", "review"},
		{"go generics", "general"},
	}
	interp := NewHeuristicInterpreter()
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			pq, err := interp.Interpret(context.Background(), tt.query)
			if err != nil {
				t.Fatalf("Interpret() error = %v", err)
			}
			if pq.Intent != tt.want {
				t.Errorf("intent = %q, want %q", pq.Intent, tt.want)
			}
		})
	}
}

func TestInterpretKeywordsAndVariations(t *testing.T) {
	interp := NewHeuristicInterpreter()
	pq, err := interp.Interpret(context.Background(), "What are the best patterns for concurrency in the Go language today")
	if err != nil {
		t.Fatalf("Interpret() error = %v", err)
	}

	if len(pq.Keywords) > 5 {
		t.Errorf("len(keywords) = %d, want <= 5", len(pq.Keywords))
	}
	for _, kw := range pq.Keywords {
		if _, stop := stopWords[kw]; stop {
			t.Errorf("keyword %q is a stop word", kw)
		}
		if len(kw) <= 2 {
			t.Errorf("keyword %q too short", kw)
		}
	}

	if len(pq.Variations) == 0 || len(pq.Variations) > 3 {
		t.Fatalf("len(variations) = %d, want 1-3", len(pq.Variations))
	}
	if pq.Variations[0] != pq.Normalized {
		t.Errorf("variations[0] = %q, want normalized query first", pq.Variations[0])
	}
}

func TestInterpretEmptyQueryIsPermanent(t *testing.T) {
	interp := NewHeuristicInterpreter()
	_, err := interp.Interpret(context.Background(), "  !!! ")
	if err == nil {
		t.Fatal("expected error for empty query")
	}
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("error = %v, want ErrEmptyQuery", err)
	}
}
