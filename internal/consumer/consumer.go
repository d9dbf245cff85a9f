// Package consumer implements the CDC batching consumer: it drains change
// records from Kafka into per-table buffers and flushes them to the
// analytical store, committing offsets only after a successful flush.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/slysik/piam-dashboard/internal/cdc"
	"github.com/slysik/piam-dashboard/internal/model"
	"github.com/slysik/piam-dashboard/internal/observability"
	"github.com/slysik/piam-dashboard/internal/warehouse"
)

const (
	// DefaultBufferCeiling caps the combined buffer size; reaching it
	// forces a flush regardless of the configured batch sizes.
	DefaultBufferCeiling = 5000

	// DefaultPollTimeout bounds each poll so the time-based flush trigger
	// fires even when no records arrive.
	DefaultPollTimeout = time.Second

	shutdownTimeout = 10 * time.Second
)

// Client abstracts the franz-go consumer methods used by the loop.
type Client interface {
	PollFetches(ctx context.Context) kgo.Fetches
	MarkCommitRecords(rs ...*kgo.Record)
	CommitMarkedOffsets(ctx context.Context) error
	Close()
}

// Config holds batching and topic settings.
type Config struct {
	TopicAccessEvents    string
	TopicConnectorHealth string

	FlushInterval  time.Duration
	MaxBatchEvents int
	MaxBatchHealth int
	BufferCeiling  int
	PollTimeout    time.Duration
}

// Consumer owns the two row buffers and the poll/flush/commit loop. It is
// single-goroutine: Run is the only method that may be called concurrently
// with nothing.
type Consumer struct {
	cfg     Config
	client  Client
	store   warehouse.Warehouse
	logger  *slog.Logger
	metrics *observability.Metrics

	events    []model.AccessEventRow
	health    []model.ConnectorHealthRow
	lastFlush time.Time

	now func() time.Time

	totalEvents int64
	totalHealth int64
}

// New creates a Consumer. Zero-valued ceiling and poll timeout take the
// package defaults.
func New(cfg Config, client Client, store warehouse.Warehouse, logger *slog.Logger, metrics *observability.Metrics) *Consumer {
	if cfg.BufferCeiling <= 0 {
		cfg.BufferCeiling = DefaultBufferCeiling
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:     cfg,
		client:  client,
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Process classifies a change record by topic, filters by CDC operation,
// strips metadata, maps it, and appends it to the matching buffer. Records
// missing a required field are logged and dropped; the rest of the batch is
// unaffected.
func (c *Consumer) Process(topic string, value []byte) {
	c.metrics.RecordsConsumed.WithLabelValues(topic).Inc()

	rec, err := cdc.Decode(value)
	if err != nil {
		c.logger.Warn("dropping undecodable record", "topic", topic, "error", err)
		c.metrics.RecordsDropped.WithLabelValues(topic, "decode").Inc()
		return
	}
	if rec == nil {
		// Tombstone.
		return
	}
	if op := rec.Op(); !cdc.OpAccepted(op) {
		c.logger.Debug("skipping operation", "topic", topic, "op", op)
		c.metrics.RecordsDropped.WithLabelValues(topic, "op").Inc()
		return
	}
	rec = rec.StripMetadata()

	switch topic {
	case c.cfg.TopicAccessEvents:
		row, err := cdc.MapAccessEvent(rec)
		if err != nil {
			c.logger.Warn("dropping access event", "error", err)
			c.metrics.RecordsDropped.WithLabelValues(topic, "mapping").Inc()
			return
		}
		c.events = append(c.events, row)
		c.metrics.BufferRows.WithLabelValues("events").Set(float64(len(c.events)))

	case c.cfg.TopicConnectorHealth:
		row, err := cdc.MapConnectorHealth(rec)
		if err != nil {
			c.logger.Warn("dropping health record", "error", err)
			c.metrics.RecordsDropped.WithLabelValues(topic, "mapping").Inc()
			return
		}
		c.health = append(c.health, row)
		c.metrics.BufferRows.WithLabelValues("health").Set(float64(len(c.health)))

	default:
		c.logger.Warn("record from unexpected topic", "topic", topic)
		c.metrics.RecordsDropped.WithLabelValues(topic, "topic").Inc()
	}
}

// ShouldFlush reports whether the buffers are due for a flush: the flush
// interval elapsed, either buffer reached its batch size, or the combined
// size hit the emergency ceiling.
func (c *Consumer) ShouldFlush() bool {
	if c.now().Sub(c.lastFlush) >= c.cfg.FlushInterval {
		return true
	}
	if len(c.events) >= c.cfg.MaxBatchEvents {
		return true
	}
	if len(c.health) >= c.cfg.MaxBatchHealth {
		return true
	}
	if total := len(c.events) + len(c.health); total >= c.cfg.BufferCeiling {
		c.logger.Warn("combined buffer at ceiling, forcing flush",
			"buffered", total, "ceiling", c.cfg.BufferCeiling)
		return true
	}
	return false
}

// Flush bulk-inserts each non-empty buffer, clearing a buffer only after
// its own insert succeeds, then resets the flush timer. On failure the
// unwritten rows stay buffered and the error is returned so the caller
// does not commit offsets.
func (c *Consumer) Flush(ctx context.Context) error {
	if len(c.events) == 0 && len(c.health) == 0 {
		c.lastFlush = c.now()
		return nil
	}

	start := time.Now()
	defer func() {
		c.metrics.FlushDuration.Observe(time.Since(start).Seconds())
	}()

	if len(c.events) > 0 {
		if err := c.store.InsertAccessEvents(ctx, c.events); err != nil {
			c.metrics.FlushesTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("flush access events: %w", err)
		}
		c.totalEvents += int64(len(c.events))
		c.metrics.RowsFlushed.WithLabelValues(model.TableAccessEvents).Add(float64(len(c.events)))
		c.logger.Info("flushed access events",
			"rows", len(c.events), "total", c.totalEvents)
		c.events = nil
		c.metrics.BufferRows.WithLabelValues("events").Set(0)
	}

	if len(c.health) > 0 {
		if err := c.store.InsertConnectorHealth(ctx, c.health); err != nil {
			c.metrics.FlushesTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("flush connector health: %w", err)
		}
		c.totalHealth += int64(len(c.health))
		c.metrics.RowsFlushed.WithLabelValues(model.TableConnectorHealth).Add(float64(len(c.health)))
		c.logger.Info("flushed health records",
			"rows", len(c.health), "total", c.totalHealth)
		c.health = nil
		c.metrics.BufferRows.WithLabelValues("health").Set(0)
	}

	c.lastFlush = c.now()
	c.metrics.FlushesTotal.WithLabelValues("ok").Inc()
	return nil
}

// Run drives the poll loop until ctx is cancelled, then performs one final
// flush-then-commit before closing the client. Delivery is at-least-once:
// a crash loses no data and re-delivers at most one unflushed batch.
func (c *Consumer) Run(ctx context.Context) error {
	c.lastFlush = c.now()
	c.logger.Info("consumer started",
		"topics", []string{c.cfg.TopicAccessEvents, c.cfg.TopicConnectorHealth},
		"flush_interval", c.cfg.FlushInterval,
		"max_batch_events", c.cfg.MaxBatchEvents,
		"max_batch_health", c.cfg.MaxBatchHealth,
	)

	for {
		// Bounded poll so the time trigger fires without new input.
		pollCtx, cancel := context.WithTimeout(ctx, c.cfg.PollTimeout)
		fetches := c.client.PollFetches(pollCtx)
		cancel()

		if fetches.IsClientClosed() {
			return errors.New("kafka client closed")
		}
		for _, ferr := range fetches.Errors() {
			if errors.Is(ferr.Err, context.DeadlineExceeded) || errors.Is(ferr.Err, context.Canceled) {
				continue
			}
			c.logger.Error("fetch error",
				"topic", ferr.Topic, "partition", ferr.Partition, "error", ferr.Err)
		}

		fetches.EachRecord(func(rec *kgo.Record) {
			c.Process(rec.Topic, rec.Value)
			c.client.MarkCommitRecords(rec)
			if c.ShouldFlush() {
				c.flushAndCommit(ctx)
			}
		})

		// Periodic flush even when the fetch was empty.
		if c.ShouldFlush() {
			c.flushAndCommit(ctx)
		}

		if ctx.Err() != nil {
			c.shutdown()
			return nil
		}
	}
}

// flushAndCommit advances the offset cursor only when the flush succeeded.
// A failed flush keeps the buffers for the next cycle.
func (c *Consumer) flushAndCommit(ctx context.Context) {
	if err := c.Flush(ctx); err != nil {
		c.logger.Error("flush failed, batch retained for retry", "error", err)
		return
	}
	c.commit(ctx)
}

func (c *Consumer) commit(ctx context.Context) {
	if err := c.client.CommitMarkedOffsets(ctx); err != nil {
		c.metrics.OffsetCommits.WithLabelValues("error").Inc()
		c.logger.Error("offset commit failed", "error", err)
		return
	}
	c.metrics.OffsetCommits.WithLabelValues("ok").Inc()
}

func (c *Consumer) shutdown() {
	c.logger.Info("shutting down, flushing remaining buffers",
		"buffered_events", len(c.events), "buffered_health", len(c.health))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if len(c.events) > 0 || len(c.health) > 0 {
		if err := c.Flush(ctx); err != nil {
			c.logger.Error("final flush failed, unflushed batch will be re-delivered on restart", "error", err)
			c.client.Close()
			return
		}
	}
	c.commit(ctx)
	c.client.Close()

	c.logger.Info("consumer stopped",
		"events_total", c.totalEvents, "health_total", c.totalHealth)
}
