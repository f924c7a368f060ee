// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/answer-engine/internal/stage"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// wikipediaAPIBase is the MediaWiki search endpoint. Declared as a var so
// tests can substitute an httptest server.
var wikipediaAPIBase = "https://en.wikipedia.org/w/api.php"

const wikipediaArticleBase = "https://en.wikipedia.org/wiki/"

// tagRE strips the search-match markup MediaWiki embeds in snippets.
var tagRE = regexp.MustCompile(`<[^>]*>`)

// WikipediaSource queries the MediaWiki full-text search API.
type WikipediaSource struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the source identifier.
func (s *WikipediaSource) Name() string { return "wikipedia" }

// Retrieve runs a full-text search and maps hits to retrieval items.
func (s *WikipediaSource) Retrieve(ctx context.Context, query types.ProcessedQuery, maxResults int) ([]types.RetrievalItem, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query.Normalized},
		"srlimit":  {fmt.Sprintf("%d", maxResults)},
		"format":   {"json"},
	}
	reqURL := wikipediaAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia API request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus("wikipedia", resp.StatusCode); err != nil {
		return nil, err
	}

	var wr wikipediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&wr); err != nil {
		return nil, fmt.Errorf("parsing wikipedia response: %w", err)
	}

	now := time.Now()
	total := len(wr.Query.Search)
	items := make([]types.RetrievalItem, 0, total)
	for i, hit := range wr.Query.Search {
		title := strings.TrimSpace(hit.Title)
		if title == "" {
			continue
		}
		items = append(items, types.RetrievalItem{
			Title:       title,
			URL:         wikipediaArticleBase + url.PathEscape(strings.ReplaceAll(title, " ", "_")),
			Snippet:     tagRE.ReplaceAllString(hit.Snippet, ""),
			Source:      s.Name(),
			Position:    i + 1,
			RetrievedAt: now,
			RawScore:    positionScore(i, total),
		})
	}
	return items, nil
}

// checkStatus converts an HTTP status to an error; client errors other than
// 429 are permanent since retrying the same request cannot help.
func checkStatus(source string, code int) error {
	if code == http.StatusOK {
		return nil
	}
	err := fmt.Errorf("%s API returned HTTP %d", source, code)
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return stage.Permanent(err)
	}
	return err
}

type wikipediaResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			PageID  int    `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}
