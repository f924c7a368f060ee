// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the answer-engine pipeline.
package types

import "time"

// QueryOptions control how a single search is executed. Two queries with the
// same normalized text and the same options are treated as identical work.
type QueryOptions struct {
	// MaxResults is the maximum number of ranked results to return (1-50, default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableAnalysis enables relevance ranking of the merged results.
	// When false the merged retrieval order is returned as-is.
	EnableAnalysis bool `json:"enable_analysis" yaml:"enable_analysis"`

	// EnableSynthesis enables answer synthesis over the ranked results.
	EnableSynthesis bool `json:"enable_synthesis" yaml:"enable_synthesis"`

	// Sources optionally restricts the search to the named retrieval sources.
	// Empty means all registered sources.
	Sources []string `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// ProcessedQuery is the interpreter's view of a raw query: normalized text,
// detected intent, extracted keywords, and search variations.
type ProcessedQuery struct {
	Original   string   `json:"original" yaml:"original"`
	Normalized string   `json:"normalized" yaml:"normalized"`
	Intent     string   `json:"intent" yaml:"intent"`
	Keywords   []string `json:"keywords" yaml:"keywords"`
	Variations []string `json:"variations" yaml:"variations"`
}

// RetrievalItem is one result unit returned by a retrieval source. URL is
// the deduplication key across sources.
type RetrievalItem struct {
	// Title is the result title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// URL is the canonical result location and the cross-source dedup key.
	URL string `json:"url" yaml:"url"`

	// Snippet is a short excerpt or abstract of the result.
	Snippet string `json:"snippet" yaml:"snippet"`

	// Source identifies which retrieval source produced this item
	// (e.g. "wikipedia", "duckduckgo", "brave").
	Source string `json:"source" yaml:"source"`

	// Position is the 1-based rank the source itself assigned.
	Position int `json:"position" yaml:"position"`

	// RetrievedAt records when the item was fetched.
	RetrievedAt time.Time `json:"retrieved_at" yaml:"retrieved_at"`

	// RawScore is the source's own relevance estimate, if any, in [0.0, 1.0].
	RawScore float64 `json:"raw_score,omitempty" yaml:"raw_score,omitempty"`
}

// RankedItem is a RetrievalItem plus its computed relevance score and rank
// position. Score is nil when ranking was skipped or degraded to identity
// order.
type RankedItem struct {
	RetrievalItem `yaml:",inline"`

	// Score is the computed relevance in [0.0, 1.0], nil when unranked.
	Score *float64 `json:"score,omitempty" yaml:"score,omitempty"`

	// Rank is the 1-based position in the final ordering.
	Rank int `json:"rank" yaml:"rank"`
}

// SynthesisSummary is the synthesizer's combined answer over the top ranked
// results.
type SynthesisSummary struct {
	Summary            string         `json:"summary" yaml:"summary"`
	KeyPoints          []string       `json:"key_points" yaml:"key_points"`
	Confidence         float64        `json:"confidence" yaml:"confidence"`
	SourcesUsed        map[string]int `json:"sources_used" yaml:"sources_used"`
	ResultsSynthesized int            `json:"results_synthesized" yaml:"results_synthesized"`
}

// Response status values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// SearchResponse is the assembled outcome of one pipeline run.
type SearchResponse struct {
	// Query is the normalized query text the pipeline executed.
	Query string `json:"query" yaml:"query"`

	// Intent is the query intent the interpreter detected, carried so
	// consumers never re-derive it.
	Intent string `json:"intent,omitempty" yaml:"intent,omitempty"`

	// Options are the options the query was accepted with.
	Options QueryOptions `json:"options" yaml:"options"`

	// Results is the final ordered sequence of ranked items. The order is a
	// total order (ties broken by stable input order) and is never reshuffled
	// after synthesis.
	Results []RankedItem `json:"results" yaml:"results"`

	// Synthesis is the optional combined answer; nil when synthesis was not
	// requested or degraded away.
	Synthesis *SynthesisSummary `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`

	// TimingsMS records per-stage wall time in milliseconds, keyed by stage
	// name ("interpret", "retrieve", "rank", "synthesize", "total").
	TimingsMS map[string]float64 `json:"timings_ms" yaml:"timings_ms"`

	// DegradedSources lists retrieval sources that failed while at least one
	// other source succeeded.
	DegradedSources []string `json:"degraded_sources,omitempty" yaml:"degraded_sources,omitempty"`

	// DegradedStages lists non-fatal stages that failed and fell back
	// ("rank", "synthesize").
	DegradedStages []string `json:"degraded_stages,omitempty" yaml:"degraded_stages,omitempty"`

	// Status is "ok" or "degraded".
	Status string `json:"status" yaml:"status"`

	// Cached reports whether this response was served from the result cache.
	Cached bool `json:"cached" yaml:"cached"`

	// CompletedAt records when the pipeline finished assembling the response.
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// Degraded reports whether any source or non-fatal stage fell back.
func (r *SearchResponse) Degraded() bool {
	return len(r.DegradedSources) > 0 || len(r.DegradedStages) > 0
}
