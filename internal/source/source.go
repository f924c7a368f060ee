// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source implements the retrieval source clients (Wikipedia,
// DuckDuckGo, Brave). Each client implements the agent.Source port; the
// registry resolves the enabled set at startup.
package source

import (
	"net/http"

	"github.com/pdiddy/answer-engine/internal/agent"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Registry builds the enabled retrieval sources from the configuration.
// The returned order is the merge precedence used by the fan-out
// coordinator: earlier sources win URL-dedup ties.
func Registry(cfg types.RetrievalConfig, client *http.Client) []agent.Source {
	var sources []agent.Source
	if cfg.EnableWikipedia {
		sources = append(sources, &WikipediaSource{Client: client, UserAgent: cfg.UserAgent})
	}
	if cfg.EnableDuckDuckGo {
		sources = append(sources, &DuckDuckGoSource{Client: client, UserAgent: cfg.UserAgent})
	}
	if cfg.EnableBrave && cfg.BraveAPIKey != "" {
		sources = append(sources, &BraveSource{Client: client, UserAgent: cfg.UserAgent, APIKey: cfg.BraveAPIKey})
	}
	return sources
}

// positionScore assigns a raw score by position within a source's result
// list: the first result gets 1.0 and the last 0.1.
func positionScore(i, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(i)/float64(total-1)*0.9
}
