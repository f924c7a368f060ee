// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

// State names the phase a query is in. States only move forward; Completed,
// Failed, and Cancelled are terminal.
type State string

const (
	StateReceived     State = "received"
	StateInterpreting State = "interpreting"
	StateRetrieving   State = "retrieving"
	StateRanking      State = "ranking"
	StateSynthesizing State = "synthesizing"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
	StateCancelled    State = "cancelled"

	// StateCacheHit marks a query answered from cache without running any
	// stage. Terminal.
	StateCacheHit State = "cache_hit"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled, StateCacheHit:
		return true
	}
	return false
}
