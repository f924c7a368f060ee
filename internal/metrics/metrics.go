// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics collects in-process counters for the search pipeline. A
// single mutex guards everything; recording is a few field updates, so
// contention is negligible next to the network work being measured.
package metrics

import (
	"sync"
	"time"
)

// Collector accumulates query outcomes, cache effectiveness, and per-stage
// latency. Snapshot returns plain data so transports can render it however
// they like.
type Collector struct {
	mu sync.Mutex

	startedAt time.Time

	queriesTotal     uint64
	queriesCompleted uint64
	queriesFailed    uint64
	queriesCancelled uint64
	queriesDegraded  uint64

	cacheHits   uint64
	cacheMisses uint64

	stages map[string]*stageStats
}

type stageStats struct {
	count  uint64
	errors uint64
	total  time.Duration
	min    time.Duration
	max    time.Duration
}

// New returns a collector with the uptime clock started.
func New() *Collector {
	return &Collector{
		startedAt: time.Now(),
		stages:    make(map[string]*stageStats),
	}
}

// RecordQuery counts one accepted query.
func (c *Collector) RecordQuery() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queriesTotal++
}

// RecordCompleted counts a query that produced a response. degraded marks
// responses with partial source or stage failures.
func (c *Collector) RecordCompleted(degraded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queriesCompleted++
	if degraded {
		c.queriesDegraded++
	}
}

// RecordFailed counts a fatal query failure.
func (c *Collector) RecordFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queriesFailed++
}

// RecordCancelled counts a query cancelled by its caller.
func (c *Collector) RecordCancelled() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queriesCancelled++
}

// RecordCacheHit counts a response served from cache.
func (c *Collector) RecordCacheHit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheHits++
}

// RecordCacheMiss counts a query that had to be computed.
func (c *Collector) RecordCacheMiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheMisses++
}

// RecordStage folds one stage execution into the per-stage stats.
func (c *Collector) RecordStage(stage string, d time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.stages[stage]
	if !ok {
		s = &stageStats{min: d, max: d}
		c.stages[stage] = s
	}
	s.count++
	if failed {
		s.errors++
	}
	s.total += d
	if d < s.min {
		s.min = d
	}
	if d > s.max {
		s.max = d
	}
}

// StageSummary reports aggregated latency for one pipeline stage.
type StageSummary struct {
	Count  uint64  `json:"count"`
	Errors uint64  `json:"errors"`
	AvgMS  float64 `json:"avg_ms"`
	MinMS  float64 `json:"min_ms"`
	MaxMS  float64 `json:"max_ms"`
}

// Summary is a point-in-time copy of every counter.
type Summary struct {
	UptimeSeconds    float64                 `json:"uptime_seconds"`
	QueriesTotal     uint64                  `json:"queries_total"`
	QueriesCompleted uint64                  `json:"queries_completed"`
	QueriesFailed    uint64                  `json:"queries_failed"`
	QueriesCancelled uint64                  `json:"queries_cancelled"`
	QueriesDegraded  uint64                  `json:"queries_degraded"`
	SuccessRate      float64                 `json:"success_rate"`
	CacheHits        uint64                  `json:"cache_hits"`
	CacheMisses      uint64                  `json:"cache_misses"`
	CacheHitRate     float64                 `json:"cache_hit_rate"`
	Stages           map[string]StageSummary `json:"stages"`
}

// Snapshot copies the counters out under the lock. The result shares no
// state with the collector.
func (c *Collector) Snapshot() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{
		UptimeSeconds:    time.Since(c.startedAt).Seconds(),
		QueriesTotal:     c.queriesTotal,
		QueriesCompleted: c.queriesCompleted,
		QueriesFailed:    c.queriesFailed,
		QueriesCancelled: c.queriesCancelled,
		QueriesDegraded:  c.queriesDegraded,
		CacheHits:        c.cacheHits,
		CacheMisses:      c.cacheMisses,
		Stages:           make(map[string]StageSummary, len(c.stages)),
	}
	if c.queriesTotal > 0 {
		s.SuccessRate = float64(c.queriesCompleted) / float64(c.queriesTotal)
	}
	if lookups := c.cacheHits + c.cacheMisses; lookups > 0 {
		s.CacheHitRate = float64(c.cacheHits) / float64(lookups)
	}
	for name, st := range c.stages {
		sum := StageSummary{
			Count:  st.count,
			Errors: st.errors,
			MinMS:  float64(st.min.Microseconds()) / 1000,
			MaxMS:  float64(st.max.Microseconds()) / 1000,
		}
		if st.count > 0 {
			sum.AvgMS = float64(st.total.Microseconds()) / 1000 / float64(st.count)
		}
		s.Stages[name] = sum
	}
	return s
}
