// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates a query through interpretation, fan-out
// retrieval, ranking, and synthesis, with single-flight caching in front.
// Interpretation and retrieval failures are fatal; ranking and synthesis
// failures degrade the response instead of failing it.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/answer-engine/internal/agent"
	"github.com/pdiddy/answer-engine/internal/cache"
	"github.com/pdiddy/answer-engine/internal/metrics"
	"github.com/pdiddy/answer-engine/internal/retrieval"
	"github.com/pdiddy/answer-engine/internal/stage"
	"github.com/pdiddy/answer-engine/pkg/types"
)

const (
	defaultMaxResults = 10
	maxMaxResults     = 50
)

// Observer receives state transitions for one query. Calls arrive in order
// from a single goroutine. Nil observers are allowed.
type Observer func(State)

// Orchestrator runs the search pipeline. Stateless between queries apart
// from the cache and metrics it shares across them.
type Orchestrator struct {
	interp  agent.Interpreter
	coord   *retrieval.Coordinator
	ranker  agent.Ranker
	synth   agent.Synthesizer
	cache   *cache.Cache
	metrics *metrics.Collector
	cfg     types.PipelineConfig
	log     zerolog.Logger
}

// New wires the pipeline together from its capabilities.
func New(
	interp agent.Interpreter,
	coord *retrieval.Coordinator,
	ranker agent.Ranker,
	synth agent.Synthesizer,
	c *cache.Cache,
	m *metrics.Collector,
	cfg types.PipelineConfig,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		interp:  interp,
		coord:   coord,
		ranker:  ranker,
		synth:   synth,
		cache:   c,
		metrics: m,
		cfg:     cfg,
		log:     log,
	}
}

// Search runs one query through the pipeline.
func (o *Orchestrator) Search(ctx context.Context, query string, opts types.QueryOptions) (*types.SearchResponse, error) {
	return o.SearchObserved(ctx, query, opts, nil)
}

// SearchObserved is Search with state-transition callbacks, used by the
// async task manager to surface progress.
//
// Identical queries (same normalized text and options) share one cache
// fingerprint: a valid cached response is returned without running any
// stage, and concurrent identical misses collapse into a single execution.
// Fatal failures are never cached.
func (o *Orchestrator) SearchObserved(ctx context.Context, query string, opts types.QueryOptions, observe Observer) (*types.SearchResponse, error) {
	o.metrics.RecordQuery()
	notify(observe, StateReceived)

	opts = clampOptions(opts)
	fp := cache.Fingerprint(agent.Normalize(query), opts)

	resp, hit, err := o.cache.GetOrCompute(fp, func() (*types.SearchResponse, error) {
		return o.run(ctx, query, opts, observe)
	})

	if hit {
		o.metrics.RecordCacheHit()
	} else {
		o.metrics.RecordCacheMiss()
	}

	if err != nil {
		if ctx.Err() != nil {
			o.metrics.RecordCancelled()
			notify(observe, StateCancelled)
			o.log.Info().Str("query", query).Msg("query cancelled")
			return nil, ErrCancelled
		}
		o.metrics.RecordFailed()
		notify(observe, StateFailed)
		o.log.Error().Str("query", query).Err(err).Msg("query failed")
		return nil, err
	}

	if hit {
		notify(observe, StateCacheHit)
		// Shallow copy so the Cached flag never mutates the shared entry.
		served := *resp
		served.Cached = true
		o.metrics.RecordCompleted(served.Degraded())
		return &served, nil
	}

	notify(observe, StateCompleted)
	o.metrics.RecordCompleted(resp.Degraded())
	return resp, nil
}

// ClearCache drops all cached responses and returns how many were removed.
func (o *Orchestrator) ClearCache() int { return o.cache.Clear() }

// Metrics exposes the shared collector for transports.
func (o *Orchestrator) Metrics() *metrics.Collector { return o.metrics }

// Sources returns the registered retrieval source names in merge order.
func (o *Orchestrator) Sources() []string { return o.coord.SourceNames() }

// run executes the stages for one cache miss.
func (o *Orchestrator) run(ctx context.Context, query string, opts types.QueryOptions, observe Observer) (*types.SearchResponse, error) {
	start := time.Now()
	timings := make(map[string]float64)

	notify(observe, StateInterpreting)
	t := time.Now()
	pq, err := stage.Run(ctx, o.cfg.Interpret, func(ctx context.Context) (types.ProcessedQuery, error) {
		return o.interp.Interpret(ctx, query)
	})
	o.recordStage("interpret", t, timings, err)
	if err != nil {
		return nil, o.fatal(ctx, "interpret", err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	notify(observe, StateRetrieving)
	t = time.Now()
	out, err := o.coord.Retrieve(ctx, pq, opts)
	o.recordStage("retrieve", t, timings, err)
	if err != nil {
		return nil, o.fatal(ctx, "retrieve", err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	resp := &types.SearchResponse{
		Query:           pq.Normalized,
		Intent:          pq.Intent,
		Options:         opts,
		TimingsMS:       timings,
		DegradedSources: out.Failed,
	}

	var ranked []types.RankedItem
	if opts.EnableAnalysis {
		notify(observe, StateRanking)
		t = time.Now()
		r, rankErr := stage.Run(ctx, o.cfg.Rank.Stage, func(ctx context.Context) ([]types.RankedItem, error) {
			return o.ranker.Rank(ctx, out.Items, pq)
		})
		o.recordStage("rank", t, timings, rankErr)
		if rankErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Ranker failure is non-fatal: fall back to retrieval order
			// with no scores.
			o.log.Warn().Err(rankErr).Msg("ranking failed, returning retrieval order")
			resp.DegradedStages = append(resp.DegradedStages, "rank")
			ranked = identityRanking(out.Items)
		} else {
			ranked = filterMinScore(r, o.cfg.Rank.MinScore)
		}
	} else {
		ranked = identityRanking(out.Items)
	}

	if len(ranked) > opts.MaxResults {
		ranked = ranked[:opts.MaxResults]
	}
	resp.Results = ranked

	if opts.EnableSynthesis && len(ranked) > 0 {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		notify(observe, StateSynthesizing)
		t = time.Now()
		sum, synthErr := stage.Run(ctx, o.cfg.Synthesize, func(ctx context.Context) (*types.SynthesisSummary, error) {
			return o.synth.Synthesize(ctx, ranked, pq)
		})
		o.recordStage("synthesize", t, timings, synthErr)
		if synthErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			o.log.Warn().Err(synthErr).Msg("synthesis failed, omitting summary")
			resp.DegradedStages = append(resp.DegradedStages, "synthesize")
		} else {
			resp.Synthesis = sum
		}
	}

	timings["total"] = millis(time.Since(start))
	resp.Status = types.StatusOK
	if resp.Degraded() {
		resp.Status = types.StatusDegraded
	}
	resp.CompletedAt = time.Now()

	o.log.Info().
		Str("query", pq.Normalized).
		Str("intent", pq.Intent).
		Int("results", len(resp.Results)).
		Str("status", resp.Status).
		Float64("total_ms", timings["total"]).
		Msg("query completed")
	return resp, nil
}

// fatal maps a stage error to the pipeline error surface, letting caller
// cancellation take precedence over the stage's own failure.
func (o *Orchestrator) fatal(ctx context.Context, stageName string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &Error{Stage: stageName, Err: err}
}

func (o *Orchestrator) recordStage(name string, start time.Time, timings map[string]float64, err error) {
	d := time.Since(start)
	timings[name] = millis(d)
	o.metrics.RecordStage(name, d, err != nil)
}

func notify(observe Observer, s State) {
	if observe != nil {
		observe(s)
	}
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func clampOptions(opts types.QueryOptions) types.QueryOptions {
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.MaxResults > maxMaxResults {
		opts.MaxResults = maxMaxResults
	}
	return opts
}

// identityRanking preserves the merged retrieval order, ranks 1..n, no
// scores.
func identityRanking(items []types.RetrievalItem) []types.RankedItem {
	ranked := make([]types.RankedItem, len(items))
	for i, item := range items {
		ranked[i] = types.RankedItem{RetrievalItem: item, Rank: i + 1}
	}
	return ranked
}

// filterMinScore drops items below the threshold and renumbers ranks so the
// surviving sequence stays contiguous.
func filterMinScore(items []types.RankedItem, minScore float64) []types.RankedItem {
	if minScore <= 0 {
		return items
	}
	kept := items[:0]
	for _, item := range items {
		if item.Score != nil && *item.Score < minScore {
			continue
		}
		item.Rank = len(kept) + 1
		kept = append(kept, item)
	}
	return kept
}
