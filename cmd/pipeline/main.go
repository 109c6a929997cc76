// Package main runs the fraud detection batch pipeline: load the three
// sources, enrich and cross-reference them, and commit the result set to the
// analytical sink. With -daily it keeps running on the configured schedule.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fraud-pipeline/internal/config"
	"fraud-pipeline/internal/crossref"
	"fraud-pipeline/internal/enrich"
	"fraud-pipeline/internal/logger"
	"fraud-pipeline/internal/orchestrator"
	"fraud-pipeline/internal/schedule"
	"fraud-pipeline/internal/storage"
	"fraud-pipeline/internal/storage/clickhouse"
	"fraud-pipeline/internal/storage/duckdb"
	"fraud-pipeline/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (defaults apply when empty)")
	basePath := flag.String("base-path", "", "Override the source base path")
	daily := flag.Bool("daily", false, "Run on the configured daily schedule instead of once")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *basePath != "" {
		cfg.Sources.BasePath = *basePath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if *verbose {
		level = "debug"
	}
	log := logger.New(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	// Handle shutdown signals: a cancelled run never commits.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Warn().Str("signal", sig.String()).Msg("cancelling pipeline")
		cancel()
	}()

	analytics, closeSink, err := openSink(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("open sink")
		os.Exit(1)
	}
	defer closeSink()

	var runs storage.RunStore
	if cfg.Ledger.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.Ledger.PostgresDSN)
		if err != nil {
			log.Error().Err(err).Msg("connect run ledger")
			os.Exit(1)
		}
		defer pool.Close()
		runs = postgres.NewRunStore(pool)
	}

	p := orchestrator.NewPipeline(orchestrator.PipelineOptions{
		Analytics:    analytics,
		Runs:         runs,
		PaySimPath:   cfg.SourcePath(cfg.Sources.PaySimPath),
		AMLPath:      cfg.SourcePath(cfg.Sources.AMLPath),
		CurrencyPath: cfg.SourcePath(cfg.Sources.CurrencyPath),
		Enrich: enrich.Options{
			HighAmountLimit: cfg.Flags.HighAmountLimit,
			NightStartHour:  cfg.Flags.NightStartHour,
			NightEndHour:    cfg.Flags.NightEndHour,
		},
		CrossRef: crossref.Options{
			Quantile: cfg.Flags.Quantile,
			Epsilon:  cfg.Flags.QuantileEpsilon,
		},
		Workers:        cfg.Orchestrator.Workers,
		LoadPolicy:     policy(cfg, cfg.Orchestrator.LoadRetries, cfg.Orchestrator.CacheTTL),
		EnrichPolicy:   policy(cfg, cfg.Orchestrator.EnrichRetries, 0),
		CrossRefPolicy: policy(cfg, cfg.Orchestrator.CrossRefRetries, 0),
		CommitPolicy:   policy(cfg, cfg.Orchestrator.CommitRetries, 0),
	})

	if *daily {
		at := schedule.TimeOfDay{Hour: cfg.Schedule.Hour, Minute: cfg.Schedule.Minute}
		err := schedule.Run(ctx, at, func(ctx context.Context) error {
			return runOnce(ctx, p)
		})
		log.Info().Err(err).Msg("schedule stopped")
		return
	}

	if err := runOnce(ctx, p); err != nil {
		os.Exit(1)
	}
}

func runOnce(ctx context.Context, p *orchestrator.Pipeline) error {
	result, err := p.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Run %s committed %d transactions (%d high-risk alerts)\n",
		result.RunID, result.Total, result.Alerts)
	return nil
}

// openSink selects the analytical backend: a ClickHouse DSN wins over the
// embedded DuckDB file.
func openSink(ctx context.Context, cfg *config.Config) (storage.AnalyticsStore, func(), error) {
	if cfg.Sink.ClickHouseDSN != "" {
		conn, err := clickhouse.NewConn(ctx, cfg.Sink.ClickHouseDSN)
		if err != nil {
			return nil, nil, err
		}
		return clickhouse.NewAnalyticsStore(conn), func() { conn.Close() }, nil
	}

	db, err := duckdb.Open(ctx, cfg.Sink.DuckDBPath)
	if err != nil {
		return nil, nil, err
	}
	return duckdb.NewAnalyticsStore(db), func() { db.Close() }, nil
}

func policy(cfg *config.Config, retries int, cacheTTL time.Duration) orchestrator.Policy {
	return orchestrator.Policy{
		MaxRetries:   retries,
		InitialDelay: cfg.Orchestrator.RetryDelay,
		Exponential:  cfg.Orchestrator.ExponentialBackoff,
		Timeout:      cfg.Orchestrator.TaskTimeout,
		CacheTTL:     cacheTTL,
	}
}
