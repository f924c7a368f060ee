// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache stores completed search responses keyed by query
// fingerprint, with TTL expiry and single-flight suppression of concurrent
// identical computations.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// Fingerprint derives the deterministic cache and single-flight key from the
// normalized query text and the options that affect the result.
func Fingerprint(normalized string, opts types.QueryOptions) string {
	h := sha256.New()
	h.Write([]byte(normalized))
	fmt.Fprintf(h, "|%d|%t|%t|%s",
		opts.MaxResults, opts.EnableAnalysis, opts.EnableSynthesis,
		strings.Join(opts.Sources, ","))
	return hex.EncodeToString(h.Sum(nil))
}

type entry struct {
	resp       *types.SearchResponse
	expiresAt  time.Time
	lastAccess time.Time
}

// Cache is safe for concurrent use. The single-flight group serializes
// computations per fingerprint without a global lock across distinct keys.
type Cache struct {
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]*entry

	flight singleflight.Group
}

// New builds a cache with the given TTL and size bound. maxEntries <= 0
// means unbounded.
func New(cfg types.CacheConfig) *Cache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		ttl:        ttl,
		maxEntries: cfg.MaxEntries,
		entries:    make(map[string]*entry),
	}
}

// GetOrCompute returns the cached response for fp when a valid entry exists
// (hit=true, compute never runs). Otherwise concurrent callers for the same
// fp join one single-flight computation: the leader runs compute, stores the
// result on success, and every joined caller receives the same response or
// the same failure. Failures are never cached, so the next identical query
// retries fresh.
func (c *Cache) GetOrCompute(fp string, compute func() (*types.SearchResponse, error)) (resp *types.SearchResponse, hit bool, err error) {
	if resp := c.lookup(fp); resp != nil {
		return resp, true, nil
	}

	v, err, _ := c.flight.Do(fp, func() (any, error) {
		// A leader may have stored the entry between our miss and joining
		// the flight.
		if resp := c.lookup(fp); resp != nil {
			return resp, nil
		}
		resp, err := compute()
		if err != nil {
			return nil, err
		}
		c.store(fp, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*types.SearchResponse), false, nil
}

// Clear drops every cached entry and returns how many were removed.
// In-flight computations are untouched; they store their result afterwards
// (last writer wins on the cache map).
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]*entry)
	return n
}

// Len reports the number of live entries, dropping expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for fp, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, fp)
		}
	}
	return len(c.entries)
}

// lookup returns a valid entry's response or nil. Expired entries are
// removed and treated as a miss.
func (c *Cache) lookup(fp string) *types.SearchResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[fp]
	if !ok {
		return nil
	}
	now := time.Now()
	if now.After(e.expiresAt) {
		delete(c.entries, fp)
		return nil
	}
	e.lastAccess = now
	return e.resp
}

func (c *Cache) store(fp string, resp *types.SearchResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		if _, exists := c.entries[fp]; !exists {
			c.evictOldest()
		}
	}
	c.entries[fp] = &entry{
		resp:       resp,
		expiresAt:  now.Add(c.ttl),
		lastAccess: now,
	}
}

// evictOldest removes the least-recently-accessed entry. Linear scan; the
// cache is small and already serialized by c.mu.
func (c *Cache) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for fp, e := range c.entries {
		if oldestKey == "" || e.lastAccess.Before(oldest) {
			oldestKey = fp
			oldest = e.lastAccess
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
