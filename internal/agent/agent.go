// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent defines the capability ports the orchestrator drives and the
// built-in heuristic implementations. Each capability (interpreter, retrieval
// source, ranker, synthesizer) is a swappable implementation of a fixed
// contract per the Strategy pattern; sources are registered in a named
// collection resolved at startup.
package agent

import (
	"context"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Interpreter analyzes a raw query and produces a processed query with
// intent, keywords, and search variations.
type Interpreter interface {
	Interpret(ctx context.Context, query string) (types.ProcessedQuery, error)
}

// Source retrieves results for a processed query from one provider.
// Multiple named instances are registered with the fan-out coordinator.
type Source interface {
	Name() string
	Retrieve(ctx context.Context, query types.ProcessedQuery, maxResults int) ([]types.RetrievalItem, error)
}

// Ranker orders retrieval items by relevance to the processed query and
// assigns each a score in [0.0, 1.0].
type Ranker interface {
	Rank(ctx context.Context, items []types.RetrievalItem, query types.ProcessedQuery) ([]types.RankedItem, error)
}

// Synthesizer combines the top ranked results into a summary answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, items []types.RankedItem, query types.ProcessedQuery) (*types.SynthesisSummary, error)
}
