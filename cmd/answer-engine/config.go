package main

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/internal/agent"
	"github.com/pdiddy/answer-engine/internal/cache"
	"github.com/pdiddy/answer-engine/internal/metrics"
	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/internal/retrieval"
	"github.com/pdiddy/answer-engine/internal/source"
	"github.com/pdiddy/answer-engine/pkg/types"
)

func setConfigDefaults() {
	viper.SetDefault("http.timeout", "10s")
	viper.SetDefault("http.user_agent", "answer-engine/"+version)

	viper.SetDefault("interpret.timeout", "2s")
	viper.SetDefault("interpret.max_attempts", 1)

	viper.SetDefault("retrieval.timeout", "10s")
	viper.SetDefault("retrieval.max_attempts", 3)
	viper.SetDefault("retrieval.backoff_base", "200ms")
	viper.SetDefault("retrieval.backoff_cap", "5s")
	viper.SetDefault("retrieval.max_results", 10)
	viper.SetDefault("retrieval.wikipedia", true)
	viper.SetDefault("retrieval.duckduckgo", true)
	viper.SetDefault("retrieval.brave", true)

	viper.SetDefault("rank.timeout", "5s")
	viper.SetDefault("rank.max_attempts", 1)
	viper.SetDefault("rank.min_score", 0.0)

	viper.SetDefault("synthesize.timeout", "5s")
	viper.SetDefault("synthesize.max_attempts", 1)

	viper.SetDefault("cache.ttl", "1h")
	viper.SetDefault("cache.max_entries", 1000)

	viper.SetDefault("tasks.max_concurrent", 4)
	viper.SetDefault("tasks.queue_depth", 16)
	viper.SetDefault("tasks.max_history", 100)

	viper.SetDefault("server.port", "8080")

	viper.SetDefault("history.path", "")
}

func stageConfig(prefix string) types.StageConfig {
	return types.StageConfig{
		Timeout:     viper.GetDuration(prefix + ".timeout"),
		MaxAttempts: viper.GetInt(prefix + ".max_attempts"),
		BackoffBase: viper.GetDuration(prefix + ".backoff_base"),
		BackoffCap:  viper.GetDuration(prefix + ".backoff_cap"),
	}
}

// buildConfig assembles the pipeline configuration from viper (config file,
// environment, defaults) plus the loaded secrets.
func buildConfig() types.PipelineConfig {
	setConfigDefaults()

	return types.PipelineConfig{
		Interpret: stageConfig("interpret"),
		Retrieval: types.RetrievalConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("http.timeout"),
				UserAgent: viper.GetString("http.user_agent"),
			},
			Stage:            stageConfig("retrieval"),
			MaxResults:       viper.GetInt("retrieval.max_results"),
			EnableWikipedia:  viper.GetBool("retrieval.wikipedia"),
			EnableDuckDuckGo: viper.GetBool("retrieval.duckduckgo"),
			EnableBrave:      viper.GetBool("retrieval.brave"),
			BraveAPIKey:      secretDefault("brave-api-key", viper.GetString("retrieval.brave_api_key")),
		},
		Rank: types.RankConfig{
			Stage:    stageConfig("rank"),
			MinScore: viper.GetFloat64("rank.min_score"),
		},
		Synthesize: stageConfig("synthesize"),
		Cache: types.CacheConfig{
			TTL:        viper.GetDuration("cache.ttl"),
			MaxEntries: viper.GetInt("cache.max_entries"),
		},
		Tasks: types.TaskConfig{
			MaxConcurrent: viper.GetInt("tasks.max_concurrent"),
			QueueDepth:    viper.GetInt("tasks.queue_depth"),
			MaxHistory:    viper.GetInt("tasks.max_history"),
		},
		Server: types.ServerConfig{
			Port:        viper.GetString("server.port"),
			CORSOrigins: viper.GetStringSlice("server.cors_origins"),
		},
		History: types.HistoryConfig{
			Path: viper.GetString("history.path"),
		},
	}
}

// newLogger builds the process logger. Console output on a TTY-oriented
// command; debug level behind --verbose.
func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if v, _ := rootCmd.PersistentFlags().GetBool("verbose"); v {
		level = zerolog.DebugLevel
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// newOrchestrator assembles the full pipeline from the configuration.
func newOrchestrator(cfg types.PipelineConfig, log zerolog.Logger) *pipeline.Orchestrator {
	httpTimeout := cfg.Retrieval.Timeout
	if httpTimeout <= 0 {
		httpTimeout = 10 * time.Second
	}
	client := &http.Client{Timeout: httpTimeout}

	coord := retrieval.NewCoordinator(source.Registry(cfg.Retrieval, client), cfg.Retrieval, log)
	return pipeline.New(
		agent.NewHeuristicInterpreter(),
		coord,
		agent.NewRelevanceRanker(),
		agent.NewExtractiveSynthesizer(),
		cache.New(cfg.Cache),
		metrics.New(),
		cfg,
		log,
	)
}
