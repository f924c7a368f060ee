// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// synthesisDepth is how many top results the synthesizer draws from.
const synthesisDepth = 5

// ExtractiveSynthesizer builds a summary answer from the top ranked result
// snippets. Purely extractive; no generative model involved.
type ExtractiveSynthesizer struct{}

// NewExtractiveSynthesizer returns the built-in extractive synthesizer.
func NewExtractiveSynthesizer() *ExtractiveSynthesizer {
	return &ExtractiveSynthesizer{}
}

// Synthesize combines the top results into a summary with key points, a
// confidence estimate, and a per-source breakdown.
func (s *ExtractiveSynthesizer) Synthesize(_ context.Context, items []types.RankedItem, query types.ProcessedQuery) (*types.SynthesisSummary, error) {
	if len(items) == 0 {
		return &types.SynthesisSummary{
			Summary:    "No results available for synthesis.",
			Confidence: 0,
		}, nil
	}

	top := items
	if len(top) > synthesisDepth {
		top = top[:synthesisDepth]
	}

	sources := make(map[string]int, len(top))
	for _, item := range top {
		sources[item.Source]++
	}

	return &types.SynthesisSummary{
		Summary:            buildSummary(top, query),
		KeyPoints:          extractKeyPoints(top),
		Confidence:         confidence(items),
		SourcesUsed:        sources,
		ResultsSynthesized: len(top),
	}, nil
}

func buildSummary(top []types.RankedItem, query types.ProcessedQuery) string {
	lead := firstSentence(top[0].Snippet)
	if lead == "" {
		lead = top[0].Title
	}

	switch query.Intent {
	case "definition":
		return fmt.Sprintf("%s %s", lead, supportingNote(top))
	case "tutorial", "process":
		return fmt.Sprintf("To address %q: %s %s", query.Original, lead, supportingNote(top))
	default:
		return fmt.Sprintf("Regarding %q: %s %s", query.Original, lead, supportingNote(top))
	}
}

func supportingNote(top []types.RankedItem) string {
	if len(top) == 1 {
		return "(based on 1 source)"
	}
	return fmt.Sprintf("(based on %d sources)", len(top))
}

// extractKeyPoints takes the first sentence of each top snippet, skipping
// empties and duplicates.
func extractKeyPoints(top []types.RankedItem) []string {
	seen := make(map[string]struct{}, len(top))
	var points []string
	for _, item := range top {
		p := firstSentence(item.Snippet)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		points = append(points, p)
	}
	return points
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if idx := strings.IndexAny(text, ".!?"); idx > 0 {
		return strings.TrimSpace(text[:idx+1])
	}
	return text
}

// confidence grows with result count and average relevance score, capped at
// 1.0. Unscored items contribute their raw source score.
func confidence(items []types.RankedItem) float64 {
	var total float64
	for _, item := range items {
		if item.Score != nil {
			total += *item.Score
		} else {
			total += item.RawScore
		}
	}
	avg := total / float64(len(items))

	countFactor := math.Min(float64(len(items))/float64(synthesisDepth), 1.0)
	c := avg*0.7 + countFactor*0.3
	return math.Round(math.Min(c, 1.0)*1000) / 1000
}
