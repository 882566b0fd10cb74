// Package retention periodically purges spread history past the configured
// window so the history table stays bounded.
package retention

import (
	"context"
	"log/slog"
	"time"

	"github.com/alanyoungcy/arbradar/internal/domain"
)

const (
	defaultWindow   = 24 * time.Hour
	defaultInterval = time.Hour
)

// Config configures the purge job.
type Config struct {
	// Window is how long records are kept. Zero means 24h.
	Window time.Duration
	// Interval between purge sweeps. Zero means 1h.
	Interval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = defaultWindow
	}
	if c.Interval <= 0 {
		c.Interval = defaultInterval
	}
	return c
}

// Job runs the purge loop against a SpreadStore.
type Job struct {
	cfg    Config
	store  domain.SpreadStore
	logger *slog.Logger
}

// NewJob creates a purge job.
func NewJob(cfg Config, store domain.SpreadStore, logger *slog.Logger) *Job {
	return &Job{
		cfg:    cfg.withDefaults(),
		store:  store,
		logger: logger.With(slog.String("component", "retention")),
	}
}

// Run purges once immediately, then on every interval until ctx is
// cancelled. Purge failures are logged and retried on the next sweep.
func (j *Job) Run(ctx context.Context) error {
	j.logger.Info("retention job started",
		slog.Duration("window", j.cfg.Window),
		slog.Duration("interval", j.cfg.Interval),
	)
	defer j.logger.Info("retention job stopped")

	j.purge(ctx)

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			j.purge(ctx)
		}
	}
}

func (j *Job) purge(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-j.cfg.Window)
	removed, err := j.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Warn("spread history purge failed", slog.String("error", err.Error()))
		return
	}
	if removed > 0 {
		j.logger.Info("purged spread history",
			slog.Int64("rows", removed),
			slog.Time("cutoff", cutoff),
		)
	}
}
