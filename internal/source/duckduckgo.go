// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// duckduckgoAPIBase is the DuckDuckGo instant-answer endpoint. Declared as
// a var so tests can substitute an httptest server.
var duckduckgoAPIBase = "https://api.duckduckgo.com/"

// DuckDuckGoSource queries the DuckDuckGo instant-answer API. It yields the
// abstract (when present) followed by related topics.
type DuckDuckGoSource struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the source identifier.
func (s *DuckDuckGoSource) Name() string { return "duckduckgo" }

// Retrieve queries the instant-answer API and maps the abstract and related
// topics to retrieval items.
func (s *DuckDuckGoSource) Retrieve(ctx context.Context, query types.ProcessedQuery, maxResults int) ([]types.RetrievalItem, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	params := url.Values{
		"q":       {query.Normalized},
		"format":  {"json"},
		"no_html": {"1"},
	}
	reqURL := duckduckgoAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo API request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("duckduckgo", resp.StatusCode); err != nil {
		return nil, err
	}

	var dr duckduckgoResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("parsing duckduckgo response: %w", err)
	}

	now := time.Now()
	var items []types.RetrievalItem

	if dr.AbstractText != "" && dr.AbstractURL != "" {
		items = append(items, types.RetrievalItem{
			Title:       dr.Heading,
			URL:         dr.AbstractURL,
			Snippet:     dr.AbstractText,
			Source:      s.Name(),
			RetrievedAt: now,
		})
	}

	for _, topic := range flattenTopics(dr.RelatedTopics) {
		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}
		items = append(items, types.RetrievalItem{
			Title:       topicTitle(topic.Text),
			URL:         topic.FirstURL,
			Snippet:     topic.Text,
			Source:      s.Name(),
			RetrievedAt: now,
		})
		if len(items) >= maxResults {
			break
		}
	}

	total := len(items)
	for i := range items {
		items[i].Position = i + 1
		items[i].RawScore = positionScore(i, total)
	}
	return items, nil
}

type duckduckgoTopic struct {
	Text     string            `json:"Text"`
	FirstURL string            `json:"FirstURL"`
	Topics   []duckduckgoTopic `json:"Topics"`
}

type duckduckgoResponse struct {
	Heading       string            `json:"Heading"`
	AbstractText  string            `json:"AbstractText"`
	AbstractURL   string            `json:"AbstractURL"`
	RelatedTopics []duckduckgoTopic `json:"RelatedTopics"`
}

// flattenTopics expands nested topic groups into a flat list, preserving
// the API's order.
func flattenTopics(topics []duckduckgoTopic) []duckduckgoTopic {
	var flat []duckduckgoTopic
	for _, t := range topics {
		if len(t.Topics) > 0 {
			flat = append(flat, flattenTopics(t.Topics)...)
			continue
		}
		flat = append(flat, t)
	}
	return flat
}

// topicTitle takes the leading clause of a related-topic text as its title.
func topicTitle(text string) string {
	if idx := strings.Index(text, " - "); idx > 0 {
		return text[:idx]
	}
	if idx := strings.IndexAny(text, ".!?"); idx > 0 {
		return text[:idx]
	}
	return text
}
