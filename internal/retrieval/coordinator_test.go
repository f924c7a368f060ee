// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieval

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/answer-engine/internal/agent"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// --- mock source ---

type mockSource struct {
	name  string
	items []types.RetrievalItem
	err   error
	delay time.Duration
	calls int32
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) Retrieve(ctx context.Context, _ types.ProcessedQuery, _ int) ([]types.RetrievalItem, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.items, m.err
}

func item(url, source string) types.RetrievalItem {
	return types.RetrievalItem{Title: url, URL: url, Snippet: "snippet", Source: source}
}

func fastRetrievalCfg() types.RetrievalConfig {
	return types.RetrievalConfig{
		Stage: types.StageConfig{
			Timeout:     100 * time.Millisecond,
			MaxAttempts: 1,
			BackoffBase: time.Millisecond,
			BackoffCap:  time.Millisecond,
		},
		MaxResults: 10,
	}
}

func sources(ms ...*mockSource) []agent.Source {
	ss := make([]agent.Source, len(ms))
	for i, m := range ms {
		ss[i] = m
	}
	return ss
}

func TestRetrieveMergesInSourceOrder(t *testing.T) {
	a := &mockSource{name: "alpha", items: []types.RetrievalItem{item("https://x.example/1", "alpha"), item("https://x.example/2", "alpha")}}
	b := &mockSource{name: "beta", items: []types.RetrievalItem{item("https://x.example/2", "beta"), item("https://x.example/3", "beta")}}
	c := NewCoordinator(sources(a, b), fastRetrievalCfg(), zerolog.Nop())

	out, err := c.Retrieve(context.Background(), types.ProcessedQuery{Normalized: "q"}, types.QueryOptions{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(out.Failed) != 0 {
		t.Errorf("failed = %v, want none", out.Failed)
	}
	if len(out.Items) != 3 {
		t.Fatalf("len(items) = %d, want 3 after dedup", len(out.Items))
	}
	// First occurrence wins: /2 comes from alpha, not beta.
	if out.Items[1].URL != "https://x.example/2" || out.Items[1].Source != "alpha" {
		t.Errorf("dedup kept %q from %q, want alpha's item", out.Items[1].URL, out.Items[1].Source)
	}
	if out.Items[2].Source != "beta" {
		t.Errorf("items[2].Source = %q, want beta", out.Items[2].Source)
	}
}

func TestRetrievePartialFailure(t *testing.T) {
	ok := &mockSource{name: "good", items: []types.RetrievalItem{item("https://x.example/1", "good")}}
	bad1 := &mockSource{name: "bad1", err: errors.New("boom")}
	bad2 := &mockSource{name: "bad2", err: errors.New("boom")}
	c := NewCoordinator(sources(bad1, ok, bad2), fastRetrievalCfg(), zerolog.Nop())

	out, err := c.Retrieve(context.Background(), types.ProcessedQuery{Normalized: "q"}, types.QueryOptions{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v, want degraded success", err)
	}
	if len(out.Failed) != 2 {
		t.Fatalf("failed = %v, want exactly the two failing sources", out.Failed)
	}
	if out.Failed[0] != "bad1" || out.Failed[1] != "bad2" {
		t.Errorf("failed = %v, want [bad1 bad2]", out.Failed)
	}
	if len(out.Items) != 1 || out.Items[0].Source != "good" {
		t.Errorf("items = %v, want only the good source's item", out.Items)
	}
}

func TestRetrieveAllSourcesFailed(t *testing.T) {
	bad1 := &mockSource{name: "bad1", err: errors.New("boom")}
	bad2 := &mockSource{name: "bad2", err: errors.New("boom")}
	c := NewCoordinator(sources(bad1, bad2), fastRetrievalCfg(), zerolog.Nop())

	_, err := c.Retrieve(context.Background(), types.ProcessedQuery{Normalized: "q"}, types.QueryOptions{})
	if !errors.Is(err, ErrAllSourcesFailed) {
		t.Fatalf("error = %v, want ErrAllSourcesFailed", err)
	}
}

func TestRetrieveSlowSourceTimesOutAlone(t *testing.T) {
	fast := &mockSource{name: "fast", items: []types.RetrievalItem{item("https://x.example/1", "fast")}}
	slow := &mockSource{name: "slow", delay: time.Second, items: []types.RetrievalItem{item("https://x.example/2", "slow")}}
	c := NewCoordinator(sources(fast, slow), fastRetrievalCfg(), zerolog.Nop())

	start := time.Now()
	out, err := c.Retrieve(context.Background(), types.ProcessedQuery{Normalized: "q"}, types.QueryOptions{})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("retrieve took %v; slow source should be cut at its own timeout", elapsed)
	}
	if len(out.Failed) != 1 || out.Failed[0] != "slow" {
		t.Errorf("failed = %v, want [slow]", out.Failed)
	}
	if len(out.Items) != 1 {
		t.Errorf("len(items) = %d, want 1", len(out.Items))
	}
}

func TestRetrieveSourceFilter(t *testing.T) {
	a := &mockSource{name: "alpha", items: []types.RetrievalItem{item("https://x.example/1", "alpha")}}
	b := &mockSource{name: "beta", items: []types.RetrievalItem{item("https://x.example/2", "beta")}}
	c := NewCoordinator(sources(a, b), fastRetrievalCfg(), zerolog.Nop())

	out, err := c.Retrieve(context.Background(), types.ProcessedQuery{Normalized: "q"}, types.QueryOptions{Sources: []string{"beta"}})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].Source != "beta" {
		t.Errorf("items = %v, want only beta", out.Items)
	}
	if atomic.LoadInt32(&a.calls) != 0 {
		t.Errorf("alpha was called despite filter")
	}
}

func TestRetrieveUnknownFilterMatchesNothing(t *testing.T) {
	a := &mockSource{name: "alpha", items: []types.RetrievalItem{item("https://x.example/1", "alpha")}}
	c := NewCoordinator(sources(a), fastRetrievalCfg(), zerolog.Nop())

	_, err := c.Retrieve(context.Background(), types.ProcessedQuery{Normalized: "q"}, types.QueryOptions{Sources: []string{"nope"}})
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("error = %v, want ErrNoSources", err)
	}
}
