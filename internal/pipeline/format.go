// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/answer-engine/pkg/types"
)

// FormatTable writes a response as a human-readable table.
func FormatTable(resp *types.SearchResponse, w io.Writer) {
	if len(resp.Results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-6s  %s\n", "Rank", "Title", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 90))

	for _, r := range resp.Results {
		title := r.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		score := "  -"
		if r.Score != nil {
			score = fmt.Sprintf("%.2f", *r.Score)
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-6s  %s\n", r.Rank, title, score, r.Source)
	}

	fmt.Fprintf(w, "\n%d results (%s", len(resp.Results), resp.Status)
	if resp.Cached {
		fmt.Fprint(w, ", cached")
	}
	fmt.Fprintln(w, ")")

	if resp.Synthesis != nil {
		fmt.Fprintf(w, "\nSummary (confidence %.2f):\n%s\n", resp.Synthesis.Confidence, resp.Synthesis.Summary)
		for _, p := range resp.Synthesis.KeyPoints {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}
	if len(resp.DegradedSources) > 0 {
		fmt.Fprintf(w, "\nDegraded sources: %s\n", strings.Join(resp.DegradedSources, ", "))
	}
	if len(resp.DegradedStages) > 0 {
		fmt.Fprintf(w, "Degraded stages: %s\n", strings.Join(resp.DegradedStages, ", "))
	}
}

// FormatJSON writes a response as indented JSON.
func FormatJSON(resp *types.SearchResponse, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
