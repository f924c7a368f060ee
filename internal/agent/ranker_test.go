// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"testing"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func testQuery() types.ProcessedQuery {
	return types.ProcessedQuery{
		Original:   "go concurrency patterns",
		Normalized: "go concurrency patterns",
		Intent:     "general",
		Keywords:   []string{"concurrency", "patterns"},
	}
}

func TestRankOrdersByRelevance(t *testing.T) {
	items := []types.RetrievalItem{
		{Title: "Unrelated cooking blog", Snippet: "recipes and baking", Source: "duckduckgo", Position: 1},
		{Title: "Go concurrency patterns", Snippet: "go concurrency patterns explained with channels", Source: "wikipedia", Position: 1},
		{Title: "Concurrency", Snippet: "patterns for concurrent programs", Source: "duckduckgo", Position: 2},
	}

	ranked, err := NewRelevanceRanker().Rank(context.Background(), items, testQuery())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(ranked) != 3 {
		t.Fatalf("len(ranked) = %d, want 3", len(ranked))
	}

	if ranked[0].Title != "Go concurrency patterns" {
		t.Errorf("top result = %q, want the exact-match wikipedia item", ranked[0].Title)
	}
	if ranked[2].Title != "Unrelated cooking blog" {
		t.Errorf("last result = %q, want the unrelated item", ranked[2].Title)
	}

	for i, r := range ranked {
		if r.Rank != i+1 {
			t.Errorf("rank[%d] = %d, want %d", i, r.Rank, i+1)
		}
		if r.Score == nil {
			t.Fatalf("score[%d] is nil, want set", i)
		}
		if *r.Score < 0 || *r.Score > 1 {
			t.Errorf("score[%d] = %f, want in [0,1]", i, *r.Score)
		}
		if i > 0 && *ranked[i-1].Score < *r.Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestRankTiesKeepInputOrder(t *testing.T) {
	// Identical items from the same source score identically; stable sort
	// must preserve their input order.
	items := []types.RetrievalItem{
		{Title: "same", URL: "https://a.example", Snippet: "same", Source: "duckduckgo", Position: 3},
		{Title: "same", URL: "https://b.example", Snippet: "same", Source: "duckduckgo", Position: 3},
	}

	ranked, err := NewRelevanceRanker().Rank(context.Background(), items, testQuery())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if ranked[0].URL != "https://a.example" || ranked[1].URL != "https://b.example" {
		t.Errorf("tie order changed: got %q then %q", ranked[0].URL, ranked[1].URL)
	}
}

func TestRankUnknownSourceUsesDefaultAuthority(t *testing.T) {
	items := []types.RetrievalItem{
		{Title: "go concurrency patterns", Snippet: "go concurrency patterns", Source: "obscure", Position: 1},
	}
	ranked, err := NewRelevanceRanker().Rank(context.Background(), items, testQuery())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	// Full text match (0.4+0.3) + default authority 0.5*0.2 + position 0.1.
	want := 0.9
	if *ranked[0].Score != want {
		t.Errorf("score = %f, want %f", *ranked[0].Score, want)
	}
}

func TestRankEmptyInput(t *testing.T) {
	ranked, err := NewRelevanceRanker().Rank(context.Background(), nil, testQuery())
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("len(ranked) = %d, want 0", len(ranked))
	}
}
