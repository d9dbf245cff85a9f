package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/slysik/piam-dashboard/internal/config"
	"github.com/slysik/piam-dashboard/internal/generator"
	"github.com/slysik/piam-dashboard/internal/observability"
	"github.com/slysik/piam-dashboard/internal/opstore"
	"github.com/slysik/piam-dashboard/internal/warehouse"
)

const (
	startupRetries = 10
	startupDelay   = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger("piam-generator", observability.ParseLogLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())

	health := observability.NewHealth()

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	health.Register(mux)

	httpServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		logger.Info("metrics server starting", "addr", cfg.MetricsAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	writer, err := openWriter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = writer.Close()
	}()

	fleet, err := generator.NewFleet(cfg.ConnectorsFile, logger)
	if err != nil {
		return err
	}

	// Hot-reload the fleet file while running.
	watchDone := make(chan struct{})
	go func() {
		if err := fleet.Watch(watchDone); err != nil {
			logger.Error("fleet watcher error", "error", err)
		}
	}()

	synth := generator.NewSynthesizer(0, cfg.Tenants)
	runner := generator.NewRunner(generator.Config{
		EventsPerSecond: cfg.EventRatePerSecond,
		HealthInterval:  cfg.HealthInterval,
	}, fleet, synth, writer, logger)

	health.SetReady(true)
	runErr := runner.Run(ctx)
	health.SetReady(false)
	close(watchDone)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}

// openWriter connects to the configured destination: MySQL when events flow
// through CDC, ClickHouse when they are written directly.
func openWriter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (generator.Writer, error) {
	switch cfg.IngestMode {
	case config.ModeDirect:
		var store *warehouse.Client
		err := withRetry(ctx, logger, "clickhouse", func() error {
			var err error
			store, err = warehouse.Open(ctx, cfg.ClickHouse)
			return err
		})
		if err != nil {
			return nil, err
		}
		logger.Info("writing directly to analytical store")
		return &generator.DirectWriter{Warehouse: store}, nil

	default:
		var store *opstore.Store
		err := withRetry(ctx, logger, "mysql", func() error {
			var err error
			store, err = opstore.Open(cfg.MySQL)
			return err
		})
		if err != nil {
			return nil, err
		}
		logger.Info("writing to operational store for CDC replication")
		return store, nil
	}
}

func withRetry(ctx context.Context, logger *slog.Logger, target string, connect func() error) error {
	var err error
	for attempt := 1; attempt <= startupRetries; attempt++ {
		if err = connect(); err == nil {
			logger.Info("connected", "target", target)
			return nil
		}
		logger.Warn("connection failed, retrying",
			"target", target, "attempt", attempt, "max_attempts", startupRetries, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(startupDelay):
		}
	}
	return fmt.Errorf("connect %s after %d attempts: %w", target, startupRetries, err)
}
