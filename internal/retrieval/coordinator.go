// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieval fans a processed query out to all configured sources
// concurrently, joins the results, and merges them with cross-source URL
// deduplication. Partial source failure degrades the outcome; total failure
// is fatal.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pdiddy/answer-engine/internal/agent"
	"github.com/pdiddy/answer-engine/internal/stage"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// ErrAllSourcesFailed marks a retrieval stage where no source produced
// results. Fatal for the query; never cached.
var ErrAllSourcesFailed = errors.New("all retrieval sources failed")

// ErrNoSources marks a query whose source filter matched nothing.
var ErrNoSources = errors.New("no retrieval sources configured")

// Output holds the merged items and the identifiers of failed sources.
type Output struct {
	Items []types.RetrievalItem

	// Failed lists sources that failed while at least one succeeded.
	Failed []string
}

// Coordinator invokes every configured source concurrently, each wrapped by
// the stage runner with the per-source timeout/retry policy.
type Coordinator struct {
	sources []agent.Source
	cfg     types.RetrievalConfig
	log     zerolog.Logger
}

// NewCoordinator builds a coordinator over the registered sources. Source
// order is merge precedence: on duplicate URLs the earlier source's item wins.
func NewCoordinator(sources []agent.Source, cfg types.RetrievalConfig, log zerolog.Logger) *Coordinator {
	return &Coordinator{sources: sources, cfg: cfg, log: log}
}

// SourceNames returns the registered source identifiers in merge order.
func (c *Coordinator) SourceNames() []string {
	names := make([]string, len(c.sources))
	for i, s := range c.sources {
		names[i] = s.Name()
	}
	return names
}

// Retrieve fans the query out to the selected sources, waits for all of them
// to settle, and merges successful results with URL dedup (first occurrence
// wins, in source-list order). A subset filter comes from the query options;
// empty means all sources.
//
// At least one success yields a (possibly degraded) Output; total failure
// returns ErrAllSourcesFailed.
func (c *Coordinator) Retrieve(ctx context.Context, query types.ProcessedQuery, opts types.QueryOptions) (Output, error) {
	selected := c.selectSources(opts.Sources)
	if len(selected) == 0 {
		return Output{}, stage.Permanent(ErrNoSources)
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = c.cfg.MaxResults
	}

	type sourceResult struct {
		items []types.RetrievalItem
		err   error
	}

	// Join barrier: indexed slots keep source-list order independent of
	// completion order, and no source can short-circuit the others.
	results := make([]sourceResult, len(selected))
	var wg sync.WaitGroup
	for i, src := range selected {
		wg.Add(1)
		go func(i int, src agent.Source) {
			defer wg.Done()
			items, err := stage.Run(ctx, c.cfg.Stage, func(ctx context.Context) ([]types.RetrievalItem, error) {
				return src.Retrieve(ctx, query, maxResults)
			})
			results[i] = sourceResult{items: items, err: err}
		}(i, src)
	}
	wg.Wait()

	var out Output
	var causes []string
	seen := make(map[string]struct{})
	for i, r := range results {
		name := selected[i].Name()
		if r.err != nil {
			c.log.Warn().Str("source", name).Err(r.err).Msg("retrieval source failed")
			out.Failed = append(out.Failed, name)
			causes = append(causes, fmt.Sprintf("%s: %v", name, r.err))
			continue
		}
		for _, item := range r.items {
			if _, dup := seen[item.URL]; dup {
				continue
			}
			seen[item.URL] = struct{}{}
			out.Items = append(out.Items, item)
		}
	}

	if len(out.Failed) == len(selected) {
		return Output{Failed: out.Failed}, fmt.Errorf("%w: %s", ErrAllSourcesFailed, strings.Join(causes, "; "))
	}
	return out, nil
}

// selectSources filters the registry by the per-query source names; empty
// keeps every registered source. Unknown names are ignored.
func (c *Coordinator) selectSources(names []string) []agent.Source {
	if len(names) == 0 {
		return c.sources
	}
	wanted := make(map[string]struct{}, len(names))
	for _, n := range names {
		wanted[n] = struct{}{}
	}
	var selected []agent.Source
	for _, s := range c.sources {
		if _, ok := wanted[s.Name()]; ok {
			selected = append(selected, s)
		}
	}
	return selected
}
