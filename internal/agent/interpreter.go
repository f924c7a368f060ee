// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/pdiddy/answer-engine/internal/stage"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// ErrEmptyQuery rejects queries with no searchable text. Non-retryable.
var ErrEmptyQuery = errors.New("query is empty: provide a question or search terms")

const (
	maxKeywords   = 5
	maxVariations = 3
)

// questionWords maps a leading question word to the query intent.
var questionWords = map[string]string{
	"what":  "definition",
	"who":   "person",
	"when":  "time",
	"where": "location",
	"why":   "reason",
	"how":   "process",
}

// stopWords are filtered out of keyword extraction.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {},
	"of": {}, "with": {}, "by": {},
}

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	specialsRE   = regexp.MustCompile(`[^\w\s\-\?]`)
)

// HeuristicInterpreter normalizes queries and extracts intent, keywords, and
// variations using rule-based heuristics. No network calls.
type HeuristicInterpreter struct{}

// NewHeuristicInterpreter returns the built-in rule-based interpreter.
func NewHeuristicInterpreter() *HeuristicInterpreter {
	return &HeuristicInterpreter{}
}

// Interpret analyzes the raw query. An empty query fails permanently.
func (h *HeuristicInterpreter) Interpret(_ context.Context, query string) (types.ProcessedQuery, error) {
	normalized := Normalize(query)
	if normalized == "" {
		return types.ProcessedQuery{}, stage.Permanent(ErrEmptyQuery)
	}

	keywords := extractKeywords(normalized)
	return types.ProcessedQuery{
		Original:   query,
		Normalized: normalized,
		Intent:     extractIntent(normalized),
		Keywords:   keywords,
		Variations: generateVariations(normalized, keywords),
	}, nil
}

// Normalize lowercases, collapses whitespace, and strips special characters
// except hyphens and question marks. The orchestrator applies the same
// normalization before fingerprinting so equivalent queries share cache
// entries.
func Normalize(query string) string {
	n := strings.ToLower(strings.TrimSpace(query))
	n = specialsRE.ReplaceAllString(n, "")
	return whitespaceRE.ReplaceAllString(n, " ")
}

func extractIntent(query string) string {
	words := strings.Fields(query)
	if len(words) == 0 {
		return "unknown"
	}

	if intent, ok := questionWords[words[0]]; ok {
		return intent
	}

	switch {
	case strings.Contains(query, "how to"), strings.Contains(query, "how do"):
		return "tutorial"
	case strings.Contains(query, "best"), strings.Contains(query, "top"):
		return "recommendation"
	case strings.Contains(query, "compare"), strings.Contains(query, " vs "), strings.Contains(query, "versus"):
		return "comparison"
	case strings.Contains(query, "review"):
		return "review"
	default:
		return "general"
	}
}

func extractKeywords(query string) []string {
	var keywords []string
	for _, w := range strings.Fields(query) {
		if _, stop := stopWords[w]; stop || len(w) <= 2 {
			continue
		}
		keywords = append(keywords, w)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// generateVariations produces up to three query variations for broader
// retrieval: the original, a keywords-only form, and a quoted exact phrase.
func generateVariations(query string, keywords []string) []string {
	variations := []string{query}
	if len(keywords) >= 2 {
		variations = append(variations, strings.Join(keywords, " "))
	}
	if len(strings.Fields(query)) >= 2 {
		variations = append(variations, `"`+query+`"`)
	}

	seen := make(map[string]struct{}, len(variations))
	var unique []string
	for _, v := range variations {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	if len(unique) > maxVariations {
		unique = unique[:maxVariations]
	}
	return unique
}
