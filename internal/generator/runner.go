package generator

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/slysik/piam-dashboard/internal/model"
	"github.com/slysik/piam-dashboard/internal/warehouse"
)

// Writer is the destination for generated rows: the MySQL operational store
// in cdc mode, or the warehouse directly in direct mode.
type Writer interface {
	WriteAccessEvent(ctx context.Context, row model.AccessEventRow) error
	WriteConnectorHealth(ctx context.Context, row model.ConnectorHealthRow) error
	Close() error
}

// DirectWriter adapts the warehouse's bulk interface to single-row writes
// for direct mode.
type DirectWriter struct {
	Warehouse warehouse.Warehouse
}

func (w *DirectWriter) WriteAccessEvent(ctx context.Context, row model.AccessEventRow) error {
	return w.Warehouse.InsertAccessEvents(ctx, []model.AccessEventRow{row})
}

func (w *DirectWriter) WriteConnectorHealth(ctx context.Context, row model.ConnectorHealthRow) error {
	return w.Warehouse.InsertConnectorHealth(ctx, []model.ConnectorHealthRow{row})
}

func (w *DirectWriter) Close() error {
	return w.Warehouse.Close()
}

// Config holds run-loop settings.
type Config struct {
	// EventsPerSecond paces access-event generation.
	EventsPerSecond float64

	// HealthInterval is how often a health snapshot is emitted for every
	// connector in the fleet.
	HealthInterval time.Duration
}

// Runner drives the generation loop: one access event per limiter token
// from a randomly chosen connector, plus periodic health snapshots for the
// whole fleet.
type Runner struct {
	cfg    Config
	fleet  *Fleet
	synth  *Synthesizer
	writer Writer
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, fleet *Fleet, synth *Synthesizer, writer Writer, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		cfg:    cfg,
		fleet:  fleet,
		synth:  synth,
		writer: writer,
		logger: logger,
		now:    time.Now,
	}
}

// Run generates events until ctx is cancelled. Write failures are logged
// and the loop continues; only cancellation stops it.
func (r *Runner) Run(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Limit(r.cfg.EventsPerSecond), 1)

	start := r.now()
	lastHealth := start
	totalEvents := 0
	eventsSinceHealth := 0

	r.logger.Info("generator started",
		"rate_per_second", r.cfg.EventsPerSecond,
		"health_interval", r.cfg.HealthInterval,
		"connectors", len(r.fleet.Connectors()),
	)

	for {
		if err := limiter.Wait(ctx); err != nil {
			break
		}

		connectors := r.fleet.Connectors()
		if len(connectors) == 0 {
			r.logger.Warn("fleet is empty, nothing to generate")
			continue
		}
		connector := r.synth.PickConnector(connectors)

		event := r.synth.AccessEvent(connector)
		if err := r.writer.WriteAccessEvent(ctx, event); err != nil {
			r.logger.Error("failed to write access event", "error", err)
		} else {
			totalEvents++
			eventsSinceHealth++
			if totalEvents%100 == 0 {
				elapsed := r.now().Sub(start).Seconds()
				observedRate := 0.0
				if elapsed > 0 {
					observedRate = float64(totalEvents) / elapsed
				}
				r.logger.Info("generation progress",
					"events", totalEvents, "rate_per_second", observedRate)
			}
		}

		if sinceHealth := r.now().Sub(lastHealth); sinceHealth >= r.cfg.HealthInterval {
			perConnector := eventsSinceHealth
			if len(connectors) > 0 {
				perConnector = eventsSinceHealth / len(connectors)
			}
			for _, c := range connectors {
				health := r.synth.ConnectorHealth(c, perConnector, sinceHealth)
				if err := r.writer.WriteConnectorHealth(ctx, health); err != nil {
					r.logger.Error("failed to write connector health",
						"connector", c.ID, "error", err)
				}
			}
			r.logger.Info("health snapshots emitted",
				"connectors", len(connectors), "events_since_last", eventsSinceHealth)
			eventsSinceHealth = 0
			lastHealth = r.now()
		}
	}

	elapsed := r.now().Sub(start)
	r.logger.Info("generator stopped",
		"events_total", totalEvents, "runtime", elapsed.Round(time.Second))
	return nil
}
