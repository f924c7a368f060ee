// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Scoring weights: title relevance, snippet relevance, source authority,
// and a small bonus for items the source itself ranked early.
const (
	weightTitle     = 0.4
	weightSnippet   = 0.3
	weightAuthority = 0.2
	weightPosition  = 0.1
)

// defaultAuthority scores sources with no explicit authority entry.
const defaultAuthority = 0.5

// RelevanceRanker scores items by keyword overlap with the query, weighted
// by source authority and original position. Ties keep stable input order.
type RelevanceRanker struct {
	// Authority maps a source name to its authority score in [0.0, 1.0].
	Authority map[string]float64
}

// NewRelevanceRanker returns the built-in ranker with default source
// authority scores.
func NewRelevanceRanker() *RelevanceRanker {
	return &RelevanceRanker{
		Authority: map[string]float64{
			"wikipedia":  0.9,
			"brave":      0.75,
			"duckduckgo": 0.7,
		},
	}
}

// Rank scores every item, sorts by descending score with stable tie order,
// and assigns 1-based rank positions.
func (r *RelevanceRanker) Rank(_ context.Context, items []types.RetrievalItem, query types.ProcessedQuery) ([]types.RankedItem, error) {
	ranked := make([]types.RankedItem, len(items))
	for i, item := range items {
		score := r.score(item, query)
		ranked[i] = types.RankedItem{RetrievalItem: item, Score: &score}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].Score > *ranked[j].Score
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, nil
}

func (r *RelevanceRanker) score(item types.RetrievalItem, query types.ProcessedQuery) float64 {
	title := strings.ToLower(item.Title)
	snippet := strings.ToLower(item.Snippet)

	authority, ok := r.Authority[item.Source]
	if !ok {
		authority = defaultAuthority
	}

	position := item.Position
	if position < 1 {
		position = 10
	}
	positionScore := math.Max(0, 1.0-float64(position-1)*0.1)

	score := textRelevance(title, query)*weightTitle +
		textRelevance(snippet, query)*weightSnippet +
		authority*weightAuthority +
		positionScore*weightPosition

	return math.Round(score*1000) / 1000
}

// textRelevance combines exact query containment and keyword coverage,
// each contributing up to half of the [0.0, 1.0] range.
func textRelevance(text string, query types.ProcessedQuery) float64 {
	if text == "" {
		return 0
	}

	var score float64
	if strings.Contains(text, query.Normalized) {
		score += 0.5
	}
	if len(query.Keywords) > 0 {
		matches := 0
		for _, kw := range query.Keywords {
			if strings.Contains(text, kw) {
				matches++
			}
		}
		score += float64(matches) / float64(len(query.Keywords)) * 0.5
	}
	return math.Min(score, 1.0)
}
