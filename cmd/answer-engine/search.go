package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/pkg/types"
)

func searchOptions(cmd *cobra.Command) types.QueryOptions {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	noAnalysis, _ := cmd.Flags().GetBool("no-analysis")
	noSynthesis, _ := cmd.Flags().GetBool("no-synthesis")
	sources, _ := cmd.Flags().GetStringSlice("sources")
	return types.QueryOptions{
		MaxResults:      maxResults,
		EnableAnalysis:  !noAnalysis,
		EnableSynthesis: !noSynthesis,
		Sources:         sources,
	}
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one query through the search pipeline",
	Long: `Search interprets a natural-language query, retrieves results from all
configured sources in parallel, ranks them by relevance, and optionally
synthesizes a combined summary. Results can be saved to a YAML answer file
and reloaded later without re-querying.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		load, _ := cmd.Flags().GetString("load")
		asJSON, _ := cmd.Flags().GetBool("json")

		if load != "" {
			af, err := pipeline.ReadAnswerFile(load)
			if err != nil {
				return err
			}
			if asJSON {
				return pipeline.FormatJSON(&af.Response, os.Stdout)
			}
			pipeline.FormatTable(&af.Response, os.Stdout)
			return nil
		}

		query := strings.Join(args, " ")
		if query == "" {
			return fmt.Errorf("query is required (pass it as arguments or use --load)")
		}

		opts := searchOptions(cmd)
		cfg := buildConfig()
		log := newLogger()
		orch := newOrchestrator(cfg, log)

		resp, err := orch.Search(cmd.Context(), query, opts)
		if err != nil {
			return err
		}

		if save, _ := cmd.Flags().GetString("save"); save != "" {
			if err := pipeline.WriteAnswerFile(save, query, resp); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Saved answer to %s\n", save)
		}

		if path := cfg.History.Path; path != "" {
			recordHistory(cmd.Context(), cfg, resp, log)
		}

		if asJSON {
			return pipeline.FormatJSON(resp, os.Stdout)
		}
		pipeline.FormatTable(resp, os.Stdout)
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("max-results", 10, "maximum number of results to return")
	searchCmd.Flags().Bool("no-analysis", false, "skip relevance ranking")
	searchCmd.Flags().Bool("no-synthesis", false, "skip answer synthesis")
	searchCmd.Flags().StringSlice("sources", nil, "restrict to the named sources (comma-separated)")
	searchCmd.Flags().Bool("json", false, "output the response as JSON")
	searchCmd.Flags().String("save", "", "save the answer to a YAML file")
	searchCmd.Flags().String("load", "", "display a previously saved answer file instead of searching")

	rootCmd.AddCommand(searchCmd)
}
