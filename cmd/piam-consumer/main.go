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
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/slysik/piam-dashboard/internal/config"
	"github.com/slysik/piam-dashboard/internal/consumer"
	"github.com/slysik/piam-dashboard/internal/kafka"
	"github.com/slysik/piam-dashboard/internal/observability"
	"github.com/slysik/piam-dashboard/internal/warehouse"
)

// Services in the demo compose stack come up in arbitrary order, so startup
// retries for a while before giving up.
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

	logger := observability.NewLogger("piam-consumer", observability.ParseLogLevel(cfg.LogLevel))
	slog.SetDefault(logger)

	// Setup metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	metrics := observability.NewMetrics(reg)

	health := observability.NewHealth()

	// Start metrics + health HTTP server
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

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var store *warehouse.Client
	err = withRetry(ctx, logger, "clickhouse", func() error {
		store, err = warehouse.Open(ctx, cfg.ClickHouse)
		return err
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = store.Close()
	}()

	var client *kgo.Client
	err = withRetry(ctx, logger, "kafka", func() error {
		client, err = kafka.NewConsumer(cfg.Kafka, config.TopicAccessEvents, config.TopicConnectorHealth)
		if err != nil {
			return err
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	cons := consumer.New(consumer.Config{
		TopicAccessEvents:    config.TopicAccessEvents,
		TopicConnectorHealth: config.TopicConnectorHealth,
		FlushInterval:        cfg.FlushInterval,
		MaxBatchEvents:       cfg.MaxBatchEvents,
		MaxBatchHealth:       cfg.MaxBatchHealth,
	}, client, store, logger, metrics)

	health.SetReady(true)

	// Run until shutdown; the consumer flushes and commits before returning.
	runErr := cons.Run(ctx)

	health.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return runErr
}

// withRetry attempts connect up to startupRetries times, waiting startupDelay
// between attempts.
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
