// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func score(v float64) *float64 { return &v }

func TestSynthesizeCombinesTopResults(t *testing.T) {
	items := []types.RankedItem{
		{RetrievalItem: types.RetrievalItem{Title: "A", Snippet: "Goroutines are lightweight threads. More detail follows.", Source: "wikipedia"}, Score: score(0.9), Rank: 1},
		{RetrievalItem: types.RetrievalItem{Title: "B", Snippet: "Channels connect goroutines.", Source: "duckduckgo"}, Score: score(0.7), Rank: 2},
		{RetrievalItem: types.RetrievalItem{Title: "C", Snippet: "Channels connect goroutines.", Source: "brave"}, Score: score(0.6), Rank: 3},
	}
	query := types.ProcessedQuery{Original: "what is a goroutine", Normalized: "what is a goroutine", Intent: "definition"}

	syn, err := NewExtractiveSynthesizer().Synthesize(context.Background(), items, query)
	require.NoError(t, err)

	assert.Contains(t, syn.Summary, "Goroutines are lightweight threads.")
	assert.Contains(t, syn.Summary, "3 sources")
	// Duplicate key point collapses.
	assert.Equal(t, []string{"Goroutines are lightweight threads.", "Channels connect goroutines."}, syn.KeyPoints)
	assert.Equal(t, 3, syn.ResultsSynthesized)
	assert.Equal(t, map[string]int{"wikipedia": 1, "duckduckgo": 1, "brave": 1}, syn.SourcesUsed)
	assert.Greater(t, syn.Confidence, 0.0)
	assert.LessOrEqual(t, syn.Confidence, 1.0)
}

func TestSynthesizeUsesAtMostFiveResults(t *testing.T) {
	var items []types.RankedItem
	for i := 0; i < 8; i++ {
		items = append(items, types.RankedItem{
			RetrievalItem: types.RetrievalItem{Title: "T", Snippet: "S.", Source: "wikipedia"},
			Score:         score(0.5),
			Rank:          i + 1,
		})
	}
	syn, err := NewExtractiveSynthesizer().Synthesize(context.Background(), items, types.ProcessedQuery{Original: "q", Intent: "general"})
	require.NoError(t, err)
	assert.Equal(t, 5, syn.ResultsSynthesized)
}

func TestSynthesizeEmptyInput(t *testing.T) {
	syn, err := NewExtractiveSynthesizer().Synthesize(context.Background(), nil, types.ProcessedQuery{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, syn.Confidence)
	assert.NotEmpty(t, syn.Summary)
}

func TestSynthesizeUnscoredItemsUseRawScore(t *testing.T) {
	items := []types.RankedItem{
		{RetrievalItem: types.RetrievalItem{Title: "A", Snippet: "First point.", Source: "wikipedia", RawScore: 1.0}, Rank: 1},
	}
	syn, err := NewExtractiveSynthesizer().Synthesize(context.Background(), items, types.ProcessedQuery{Original: "q", Intent: "general"})
	require.NoError(t, err)
	// avg 1.0 * 0.7 + count factor (1/5) * 0.3 = 0.76
	assert.InDelta(t, 0.76, syn.Confidence, 0.001)
}
