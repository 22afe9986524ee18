// Package collector runs the timer-driven ingestion pipeline: an aligned
// scheduler fires a cycle, the cycle walks the configured assets in order,
// and each asset runs a bounded-retry fetch-and-store task.
package collector

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"klinehub/internal/assets"
)

// Config tunes the collection cycle.
type Config struct {
	// Period is the aligned polling cadence.
	Period time.Duration

	// AssetPause is the pause between consecutive assets in one cycle,
	// smoothing the outbound request rate.
	AssetPause time.Duration
}

// DefaultConfig polls hourly with a 3s pause between assets.
func DefaultConfig() Config {
	return Config{
		Period:     time.Hour,
		AssetPause: 3 * time.Second,
	}
}

// Collector owns the scheduler and the per-asset sequencing. It holds no
// persistent state; the store is the sole system of record.
type Collector struct {
	assets []assets.Asset
	task   *Task
	cfg    Config
	clock  Clock
	logger *logrus.Logger
}

// New builds a collector over a static asset list.
func New(list []assets.Asset, task *Task, cfg Config, clock Clock, logger *logrus.Logger) *Collector {
	if clock == nil {
		clock = SystemClock()
	}
	return &Collector{
		assets: list,
		task:   task,
		cfg:    cfg,
		clock:  clock,
		logger: logger,
	}
}

// Run blocks until ctx is cancelled, firing one cycle at every aligned
// period boundary.
func (c *Collector) Run(ctx context.Context) {
	c.logger.WithFields(logrus.Fields{
		"assets": len(c.assets),
		"period": c.cfg.Period,
	}).Info("Starting aligned collection loop")

	RunAligned(ctx, c.clock, c.cfg.Period, func() {
		c.RunCycle(ctx)
	})

	c.logger.Info("Collection loop stopped")
}

// RunCycle walks the assets strictly sequentially. One asset's failure
// never blocks the rest of the cycle; everything is logged locally.
func (c *Collector) RunCycle(ctx context.Context) {
	for i, a := range c.assets {
		if ctx.Err() != nil {
			return
		}
		if i > 0 && !wait(ctx, c.cfg.AssetPause) {
			return
		}
		c.runOne(ctx, a)
	}
}

func (c *Collector) runOne(ctx context.Context, a assets.Asset) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.WithField("asset", a.ID).Errorf("Task panicked: %v", r)
		}
	}()
	c.task.Run(ctx, a)
}
