package collector

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"klinehub/internal/assets"
	"klinehub/internal/drivers/coingecko"
	"klinehub/internal/storage/models"
)

// Fetcher obtains a candidate kline for one asset.
type Fetcher interface {
	FetchLatest(ctx context.Context, asset assets.Asset) (*models.Kline, error)
}

// Store is the subset of storage the collector writes through.
type Store interface {
	Exists(ctx context.Context, table, pair string, ts time.Time) (bool, error)
	Insert(ctx context.Context, table string, k *models.Kline) (bool, error)
}

// Publisher fans out freshly inserted klines to a stream. May be nil.
type Publisher interface {
	Publish(ctx context.Context, symbol string, k *models.Kline) error
}

// TaskConfig tunes the per-asset fetch-and-store attempt loop.
type TaskConfig struct {
	// MaxAttempts bounds fetch attempts per invocation.
	MaxAttempts int

	// RateLimitBackoff is the wait after an upstream 429.
	RateLimitBackoff time.Duration

	// TimeoutBackoff is the wait after a timed-out call.
	TimeoutBackoff time.Duration
}

// DefaultTaskConfig matches the provider's free-tier behavior.
func DefaultTaskConfig() TaskConfig {
	return TaskConfig{
		MaxAttempts:      3,
		RateLimitBackoff: 10 * time.Second,
		TimeoutBackoff:   15 * time.Second,
	}
}

// Task fetches one asset's newest sample and persists it at most once.
// All failures are contained here: they are logged, never raised, and the
// next scheduled cycle is the macro-level retry.
type Task struct {
	fetcher   Fetcher
	store     Store
	publisher Publisher
	cfg       TaskConfig
	logger    *logrus.Logger
}

// NewTask wires a fetch-and-store task. publisher may be nil when stream
// fan-out is disabled.
func NewTask(fetcher Fetcher, store Store, publisher Publisher, cfg TaskConfig, logger *logrus.Logger) *Task {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Task{
		fetcher:   fetcher,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run executes up to MaxAttempts fetches for the asset. Rate limits and
// timeouts consume an attempt after a backoff; anything else stops the
// invocation immediately. A stored duplicate counts as success.
func (t *Task) Run(ctx context.Context, asset assets.Asset) {
	log := t.logger.WithField("asset", asset.ID)

	for attempt := 1; attempt <= t.cfg.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}

		kline, err := t.fetcher.FetchLatest(ctx, asset)
		if err != nil {
			if !t.handleFetchError(ctx, log, err, attempt) {
				return
			}
			continue
		}

		t.persist(ctx, log, asset, kline)
		return
	}

	log.Warnf("Giving up after %d attempts; next cycle retries with a fresh window", t.cfg.MaxAttempts)
}

// handleFetchError applies the retry policy. It reports whether the
// attempt loop should continue.
func (t *Task) handleFetchError(ctx context.Context, log *logrus.Entry, err error, attempt int) bool {
	last := attempt == t.cfg.MaxAttempts

	switch {
	case errors.Is(err, coingecko.ErrRateLimited):
		log.Warnf("Rate limited (attempt %d/%d): %v", attempt, t.cfg.MaxAttempts, err)
		return last || wait(ctx, t.cfg.RateLimitBackoff)

	case errors.Is(err, coingecko.ErrTimeout):
		log.Warnf("Upstream timeout (attempt %d/%d): %v", attempt, t.cfg.MaxAttempts, err)
		return last || wait(ctx, t.cfg.TimeoutBackoff)

	default:
		// NoData and upstream failures are non-transient within one
		// invocation; retrying the same window cannot help.
		log.Errorf("Fetch failed: %v", err)
		return false
	}
}

// persist runs the duplicate check followed by the conditional insert.
func (t *Task) persist(ctx context.Context, log *logrus.Entry, asset assets.Asset, kline *models.Kline) {
	exists, err := t.store.Exists(ctx, asset.Table, kline.Pair, kline.Timestamp)
	if err != nil {
		log.Errorf("Duplicate check failed: %v", err)
		return
	}
	if exists {
		log.WithField("timestamp", kline.Timestamp).Info("Duplicate skipped")
		return
	}

	inserted, err := t.store.Insert(ctx, asset.Table, kline)
	if err != nil {
		log.Errorf("Insert failed: %v", err)
		return
	}
	if !inserted {
		// An overlapping cycle won the race between our check and write.
		log.WithField("timestamp", kline.Timestamp).Info("Duplicate skipped on insert")
		return
	}

	log.WithFields(logrus.Fields{
		"timestamp": kline.Timestamp,
		"close":     kline.Close,
		"volume":    kline.Volume,
	}).Info("Inserted kline")

	if t.publisher != nil {
		if err := t.publisher.Publish(ctx, asset.Symbol, kline); err != nil {
			log.Errorf("Stream publish failed: %v", err)
		}
	}
}
