package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/maltedev/price-tracker/internal/config"
)

// Scheduler runs tracking cycles at a fixed interval. One cycle runs
// immediately on start.
type Scheduler struct {
	tracker  *Tracker
	products []config.Product
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(t *Tracker, products []config.Product, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		tracker:  t,
		products: products,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}
}

func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started",
		"interval", s.interval,
		"products", len(s.products))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runCycle(ctx)
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	start := time.Now()
	results := s.tracker.TrackAll(ctx, s.products)

	alerts := 0
	for _, result := range results {
		alerts += len(result.Alerts)
	}
	s.logger.Info("cycle finished",
		"duration", time.Since(start),
		"products", len(results),
		"alerts", alerts)
}
