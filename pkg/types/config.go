// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by retrieval sources.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "answer-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// StageConfig holds the timeout/retry policy for one pipeline stage.
type StageConfig struct {
	// Timeout bounds a single attempt; an attempt that exceeds it is
	// abandoned and counted as a failure.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxAttempts is the total number of attempts (1 = no retries).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BackoffBase is the first retry delay; it doubles per attempt.
	BackoffBase time.Duration `json:"backoff_base" yaml:"backoff_base"`

	// BackoffCap caps the retry delay growth.
	BackoffCap time.Duration `json:"backoff_cap" yaml:"backoff_cap"`
}

// RetrievalConfig holds settings for the fan-out retrieval stage.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline"`

	// Stage is the per-source timeout/retry policy.
	Stage StageConfig `json:"stage" yaml:"stage"`

	// MaxResults is the per-source result cap passed to each source.
	MaxResults int `json:"max_results" yaml:"max_results"`

	// EnableWikipedia controls whether the Wikipedia source is registered.
	EnableWikipedia bool `json:"enable_wikipedia" yaml:"enable_wikipedia"`

	// EnableDuckDuckGo controls whether the DuckDuckGo source is registered.
	EnableDuckDuckGo bool `json:"enable_duckduckgo" yaml:"enable_duckduckgo"`

	// EnableBrave controls whether the Brave source is registered.
	// Requires BraveAPIKey.
	EnableBrave bool `json:"enable_brave" yaml:"enable_brave"`

	// BraveAPIKey authenticates against the Brave web-search API.
	BraveAPIKey string `json:"brave_api_key,omitempty" yaml:"brave_api_key,omitempty"`
}

// RankConfig holds settings for the ranking stage.
type RankConfig struct {
	// Stage is the timeout/retry policy for the ranker call.
	Stage StageConfig `json:"stage" yaml:"stage"`

	// MinScore drops ranked items scoring below it (0 keeps everything).
	MinScore float64 `json:"min_score" yaml:"min_score"`
}

// CacheConfig holds settings for the single-flight result cache.
type CacheConfig struct {
	// TTL is how long a cached response stays valid.
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// MaxEntries bounds the cache; the least-recently-used entry is evicted
	// when full (0 means unbounded).
	MaxEntries int `json:"max_entries" yaml:"max_entries"`
}

// TaskConfig holds settings for the asynchronous task manager.
type TaskConfig struct {
	// MaxConcurrent is the worker pool size.
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// QueueDepth is how many submissions may wait beyond the running ones;
	// submissions past MaxConcurrent+QueueDepth are rejected as overloaded.
	QueueDepth int `json:"queue_depth" yaml:"queue_depth"`

	// MaxHistory bounds retained terminal tasks; the oldest terminal task is
	// evicted when full.
	MaxHistory int `json:"max_history" yaml:"max_history"`
}

// ServerConfig holds settings for the HTTP API server.
type ServerConfig struct {
	// Port is the listen port (default "8080").
	Port string `json:"port" yaml:"port"`

	// CORSOrigins lists allowed CORS origins.
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
}

// HistoryConfig holds settings for the search-history store.
type HistoryConfig struct {
	// Path is the SQLite database file ("" disables history).
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Interpret  StageConfig     `json:"interpret" yaml:"interpret"`
	Retrieval  RetrievalConfig `json:"retrieval" yaml:"retrieval"`
	Rank       RankConfig      `json:"rank" yaml:"rank"`
	Synthesize StageConfig     `json:"synthesize" yaml:"synthesize"`
	Cache      CacheConfig     `json:"cache" yaml:"cache"`
	Tasks      TaskConfig      `json:"tasks" yaml:"tasks"`
	Server     ServerConfig    `json:"server" yaml:"server"`
	History    HistoryConfig   `json:"history" yaml:"history"`
}
