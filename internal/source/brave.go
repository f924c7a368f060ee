// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/answer-engine/internal/httputil"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// braveAPIBase is the Brave web-search endpoint. Declared as a var so tests
// can substitute an httptest server.
var braveAPIBase = "https://api.search.brave.com/res/v1/web/search"

// BraveSource queries the Brave web-search API. Requires an API key
// (secrets file brave-api-key). Brave rate-limits aggressively on the free
// tier, so requests go through the shared 429 retry helper.
type BraveSource struct {
	Client    *http.Client
	UserAgent string
	APIKey    string
}

// Name returns the source identifier.
func (s *BraveSource) Name() string { return "brave" }

// Retrieve queries the web-search API and maps results to retrieval items.
func (s *BraveSource) Retrieve(ctx context.Context, query types.ProcessedQuery, maxResults int) ([]types.RetrievalItem, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	if maxResults > 20 {
		maxResults = 20 // Brave API cap
	}

	params := url.Values{
		"q":     {query.Normalized},
		"count": {fmt.Sprintf("%d", maxResults)},
	}
	reqURL := braveAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.APIKey)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("brave API request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("brave", resp.StatusCode); err != nil {
		return nil, err
	}

	var br braveResponse
	if err := json.NewDecoder(resp.Body).Decode(&br); err != nil {
		return nil, fmt.Errorf("parsing brave response: %w", err)
	}

	now := time.Now()
	total := len(br.Web.Results)
	items := make([]types.RetrievalItem, 0, total)
	for i, r := range br.Web.Results {
		if r.URL == "" {
			continue
		}
		items = append(items, types.RetrievalItem{
			Title:       r.Title,
			URL:         r.URL,
			Snippet:     r.Description,
			Source:      s.Name(),
			Position:    i + 1,
			RetrievedAt: now,
			RawScore:    positionScore(i, total),
		})
	}
	return items, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}
