// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/answer-engine/pkg/types"
)

func testResponse(query string) *types.SearchResponse {
	return &types.SearchResponse{Query: query, Status: types.StatusOK}
}

func TestFingerprintDeterministic(t *testing.T) {
	opts := types.QueryOptions{MaxResults: 10, EnableSynthesis: true, Sources: []string{"wikipedia"}}
	a := Fingerprint("go concurrency", opts)
	b := Fingerprint("go concurrency", opts)
	if a != b {
		t.Errorf("same inputs produced different fingerprints: %s vs %s", a, b)
	}
}

func TestFingerprintSensitiveToOptions(t *testing.T) {
	base := types.QueryOptions{MaxResults: 10}
	fp := Fingerprint("go concurrency", base)

	variants := []types.QueryOptions{
		{MaxResults: 5},
		{MaxResults: 10, EnableAnalysis: true},
		{MaxResults: 10, EnableSynthesis: true},
		{MaxResults: 10, Sources: []string{"brave"}},
	}
	for i, v := range variants {
		if Fingerprint("go concurrency", v) == fp {
			t.Errorf("variant %d collided with base fingerprint", i)
		}
	}
	if Fingerprint("other query", base) == fp {
		t.Error("different query collided with base fingerprint")
	}
}

func TestGetOrComputeCachesSuccess(t *testing.T) {
	c := New(types.CacheConfig{TTL: time.Minute})
	var calls int32
	compute := func() (*types.SearchResponse, error) {
		atomic.AddInt32(&calls, 1)
		return testResponse("q"), nil
	}

	resp, hit, err := c.GetOrCompute("fp1", compute)
	if err != nil || hit {
		t.Fatalf("first call: hit=%v err=%v, want miss", hit, err)
	}
	if resp.Query != "q" {
		t.Errorf("resp.Query = %q", resp.Query)
	}

	_, hit, err = c.GetOrCompute("fp1", compute)
	if err != nil || !hit {
		t.Fatalf("second call: hit=%v err=%v, want hit", hit, err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("compute ran %d times, want 1", got)
	}
}

func TestGetOrComputeSingleFlight(t *testing.T) {
	c := New(types.CacheConfig{TTL: time.Minute})
	var calls int32
	release := make(chan struct{})
	compute := func() (*types.SearchResponse, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return testResponse("q"), nil
	}

	const n = 8
	var wg sync.WaitGroup
	started := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			if _, _, err := c.GetOrCompute("fp1", compute); err != nil {
				t.Errorf("GetOrCompute() error = %v", err)
			}
		}()
	}
	for i := 0; i < n; i++ {
		<-started
	}
	// Give the goroutines a beat to reach the flight before releasing.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("compute ran %d times under concurrency, want 1", got)
	}
}

func TestGetOrComputeFailureNotCached(t *testing.T) {
	c := New(types.CacheConfig{TTL: time.Minute})
	var calls int32
	boom := errors.New("boom")
	failing := func() (*types.SearchResponse, error) {
		atomic.AddInt32(&calls, 1)
		return nil, boom
	}

	_, _, err := c.GetOrCompute("fp1", failing)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}
	_, hit, err := c.GetOrCompute("fp1", failing)
	if !errors.Is(err, boom) || hit {
		t.Fatalf("second call: hit=%v err=%v, want fresh failure", hit, err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("compute ran %d times, want 2 (failures never cached)", got)
	}
}

func TestExpiredEntryRecomputed(t *testing.T) {
	c := New(types.CacheConfig{TTL: 10 * time.Millisecond})
	var calls int32
	compute := func() (*types.SearchResponse, error) {
		atomic.AddInt32(&calls, 1)
		return testResponse("q"), nil
	}

	if _, _, err := c.GetOrCompute("fp1", compute); err != nil {
		t.Fatal(err)
	}
	time.Sleep(25 * time.Millisecond)

	_, hit, err := c.GetOrCompute("fp1", compute)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("expired entry reported as hit")
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("compute ran %d times, want 2 after expiry", got)
	}
}

func TestClear(t *testing.T) {
	c := New(types.CacheConfig{TTL: time.Minute})
	for _, fp := range []string{"a", "b", "c"} {
		if _, _, err := c.GetOrCompute(fp, func() (*types.SearchResponse, error) {
			return testResponse(fp), nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	if n := c.Clear(); n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after clear, want 0", c.Len())
	}

	var calls int32
	if _, hit, _ := c.GetOrCompute("a", func() (*types.SearchResponse, error) {
		atomic.AddInt32(&calls, 1)
		return testResponse("a"), nil
	}); hit {
		t.Error("hit after clear")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Error("compute not re-run after clear")
	}
}

func TestBoundedEviction(t *testing.T) {
	c := New(types.CacheConfig{TTL: time.Minute, MaxEntries: 2})
	store := func(fp string) {
		if _, _, err := c.GetOrCompute(fp, func() (*types.SearchResponse, error) {
			return testResponse(fp), nil
		}); err != nil {
			t.Fatal(err)
		}
	}

	store("a")
	time.Sleep(2 * time.Millisecond)
	store("b")
	time.Sleep(2 * time.Millisecond)
	// Touch "a" so "b" becomes the eviction candidate.
	if _, hit, _ := c.GetOrCompute("a", func() (*types.SearchResponse, error) {
		t.Fatal("compute ran for cached entry")
		return nil, nil
	}); !hit {
		t.Fatal("expected hit for a")
	}
	time.Sleep(2 * time.Millisecond)
	store("c")

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if _, hit, _ := c.GetOrCompute("b", func() (*types.SearchResponse, error) {
		return testResponse("b"), nil
	}); hit {
		t.Error("least-recently-used entry b survived eviction")
	}
}
