package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/credence/internal/api"
	"github.com/MikeSquared-Agency/credence/internal/cache"
	"github.com/MikeSquared-Agency/credence/internal/config"
	"github.com/MikeSquared-Agency/credence/internal/hermes"
	"github.com/MikeSquared-Agency/credence/internal/metrics"
	"github.com/MikeSquared-Agency/credence/internal/processor"
	"github.com/MikeSquared-Agency/credence/internal/scenario"
	"github.com/MikeSquared-Agency/credence/internal/store"
	"github.com/MikeSquared-Agency/credence/internal/telemetry"
)

func serveCmd(cfg config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve simulations and comparisons over HTTP",
		Long: `Starts the HTTP API. Postgres (DATABASE_URL), NATS (NATS_URL), Redis
(CACHE_BACKEND=redis) and OTLP tracing (OTEL_EXPORTER_OTLP_ENDPOINT) are
each optional; without them runs live only in the process cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "HTTP port")
	return cmd
}

func serve(parent context.Context, cfg config.Config) error {
	slog.Info("credence starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, telemetry.DefaultConfig(cfg.OTLPEndpoint))
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	m := metrics.New(prometheus.DefaultRegisterer)

	resultCache, err := cache.New(cfg.CacheBackend, cfg.CacheSize, cfg.CacheTTL, cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer resultCache.Close()
	slog.Info("result cache ready", "backend", cfg.CacheBackend)

	var checks []api.HealthCheck
	opts := []processor.Option{
		processor.WithCache(resultCache),
		processor.WithMetrics(m),
		processor.WithMaxObservations(cfg.MaxObservations),
	}

	if cfg.ScenarioFile != "" {
		set, err := scenario.LoadFile(cfg.ScenarioFile)
		if err != nil {
			return fmt.Errorf("load scenario file: %w", err)
		}
		opts = append(opts, processor.WithDefaultScenarios(set))
		slog.Info("default scenarios loaded", "file", cfg.ScenarioFile, "scenarios", set.Len())
	}

	// Database (optional; without it runs are served from the cache only)
	if cfg.DatabaseURL != "" {
		db, err := store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		opts = append(opts, processor.WithStore(db))
		checks = append(checks, api.HealthCheck{Name: "database", Probe: db.Ping})
		slog.Info("database connected")
	} else {
		slog.Warn("DATABASE_URL not set, runs will not be persisted")
	}

	// NATS/Hermes (optional)
	var hermesClient *hermes.Client
	if cfg.NatsURL != "" {
		hermesClient, err = hermes.NewClient(ctx, hermes.ConnConfig{
			URL:   cfg.NatsURL,
			Token: cfg.NatsToken,
			Name:  cfg.NatsName,
		}, slog.Default())
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		defer hermesClient.Close()
		opts = append(opts, processor.WithPublisher(hermesClient))
		checks = append(checks, api.HealthCheck{Name: "nats", Probe: hermesClient.Ping})
		slog.Info("NATS connected", "url", cfg.NatsURL)
	}

	proc := processor.New(slog.Default(), opts...)

	if hermesClient != nil {
		if err := hermesClient.Subscribe(hermes.SubjectSimulationRequested, proc.HandleSimulationRequested); err != nil {
			return err
		}
		if err := hermesClient.Subscribe(hermes.SubjectComparisonRequested, proc.HandleComparisonRequested); err != nil {
			return err
		}
	}

	srv := api.NewServer(cfg.Port, proc, api.Options{
		RateLimit:   cfg.RateLimit,
		CORSOrigins: splitOrigins(cfg.CORSOrigins),
		Gatherer:    prometheus.DefaultGatherer,
		Checks:      checks,
	})
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.Info("credence ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	}
	slog.Info("shutting down")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown failed", "error", err)
	}
	cancel()
	slog.Info("credence stopped")
	return nil
}

func splitOrigins(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
