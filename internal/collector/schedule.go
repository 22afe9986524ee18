package collector

import (
	"context"
	"time"
)

// Clock abstracts time so the scheduler can be driven by a fake in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
	Tick(d time.Duration) (<-chan time.Time, func())
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (systemClock) Tick(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// NextBoundary returns the delay from now until the next wall-clock
// boundary of period. A now that sits exactly on a boundary yields 0.
func NextBoundary(now time.Time, period time.Duration) time.Duration {
	aligned := now.Truncate(period)
	if aligned.Equal(now) {
		return 0
	}
	return aligned.Add(period).Sub(now)
}

// RunAligned fires task at every boundary of period until ctx is cancelled.
// Each firing starts on the fixed cadence regardless of how long the
// previous run takes; overlapping runs are allowed and left to the task,
// which stays idempotent through its duplicate check.
func RunAligned(ctx context.Context, clock Clock, period time.Duration, task func()) {
	delay := NextBoundary(clock.Now(), period)

	select {
	case <-ctx.Done():
		return
	case <-clock.After(delay):
	}
	go task()

	tick, stop := clock.Tick(period)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			go task()
		}
	}
}

// wait sleeps for d unless ctx ends first, reporting whether the caller
// should keep going.
func wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
