package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pdiddy/answer-engine/internal/history"
	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/internal/server"
	"github.com/pdiddy/answer-engine/internal/task"
	"github.com/pdiddy/answer-engine/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve exposes the search pipeline over HTTP: POST /search runs a query
synchronously, POST /search/async submits it to the bounded worker pool and
returns a task ID for polling, and GET /metrics reports pipeline counters.
The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := buildConfig()
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Server.Port = port
		}
		log := newLogger()

		orch := newOrchestrator(cfg, log)
		searcher := &recordedPipeline{Orchestrator: orch, log: log}

		var hist server.HistoryReader
		if cfg.History.Path != "" {
			store, err := history.NewStore(cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()
			searcher.store = store
			hist = store
		}

		manager, err := task.NewManager(searcher, cfg.Tasks, log)
		if err != nil {
			return err
		}
		defer manager.Close()

		handler := server.NewHandler(searcher, manager, hist, version)
		return server.New(cfg.Server, handler, log).Start()
	},
}

func init() {
	serveCmd.Flags().String("port", "", "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// recordedPipeline wraps the orchestrator so every completed search, sync or
// async, lands in the history store. Recording is best effort.
type recordedPipeline struct {
	*pipeline.Orchestrator
	store *history.Store
	log   zerolog.Logger
}

func (p *recordedPipeline) Search(ctx context.Context, query string, opts types.QueryOptions) (*types.SearchResponse, error) {
	resp, err := p.Orchestrator.Search(ctx, query, opts)
	p.record(ctx, resp, err)
	return resp, err
}

func (p *recordedPipeline) SearchObserved(ctx context.Context, query string, opts types.QueryOptions, observe pipeline.Observer) (*types.SearchResponse, error) {
	resp, err := p.Orchestrator.SearchObserved(ctx, query, opts, observe)
	p.record(ctx, resp, err)
	return resp, err
}

func (p *recordedPipeline) record(ctx context.Context, resp *types.SearchResponse, searchErr error) {
	if p.store == nil || searchErr != nil || resp == nil {
		return
	}
	// Survive caller cancellation that lands after the search finished.
	ctx = context.WithoutCancel(ctx)

	if err := p.store.Record(ctx, resp); err != nil {
		p.log.Warn().Err(err).Msg("recording search history")
	}
}
