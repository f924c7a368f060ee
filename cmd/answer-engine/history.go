package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/history"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past searches from the history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()
		if cfg.History.Path == "" {
			return fmt.Errorf("history is disabled: set history.path in the config")
		}

		store, err := history.NewStore(cfg.History)
		if err != nil {
			return err
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := store.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No searches recorded.")
			return nil
		}

		fmt.Printf("%-5s  %-40s  %-14s  %-7s  %-8s  %s\n",
			"ID", "Query", "Intent", "Results", "Status", "When")
		fmt.Println(strings.Repeat("-", 100))
		for _, e := range entries {
			query := e.Query
			if len(query) > 40 {
				query = query[:37] + "..."
			}
			status := e.Status
			if e.Cached {
				status += "*"
			}
			fmt.Printf("%-5d  %-40s  %-14s  %-7d  %-8s  %s\n",
				e.ID, query, e.Intent, e.ResultCount, status, e.ExecutedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries to list")
	rootCmd.AddCommand(historyCmd)
}

// recordHistory appends the search outcome to the history database. Failures
// are logged, not fatal; history is best effort.
func recordHistory(ctx context.Context, cfg types.PipelineConfig, resp *types.SearchResponse, log zerolog.Logger) {
	store, err := history.NewStore(cfg.History)
	if err != nil {
		log.Warn().Err(err).Msg("opening history store")
		return
	}
	defer store.Close()

	// The response carries the intent the pipeline detected.
	if err := store.Record(ctx, resp); err != nil {
		log.Warn().Err(err).Msg("recording search history")
	}
}
