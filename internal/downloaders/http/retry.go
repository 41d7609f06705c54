package fraghttp

import (
	"context"
	"time"
)

// DefaultBackoffUnit is the wait before the first retry; it doubles after that.
const DefaultBackoffUnit = time.Second

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Backoff computes retry delays and waits through an injectable Sleeper.
type Backoff struct {
	Unit  time.Duration
	Sleep Sleeper
}

func NewBackoff(unit time.Duration, sleep Sleeper) Backoff {
	if unit <= 0 {
		unit = DefaultBackoffUnit
	}
	if sleep == nil {
		sleep = contextSleep
	}
	return Backoff{Unit: unit, Sleep: sleep}
}

// Delay is the wait before attempt k. Attempt 0 never waits.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return b.Unit * time.Duration(1<<(attempt-1))
}

// Wait blocks for Delay(attempt).
func (b Backoff) Wait(ctx context.Context, attempt int) error {
	d := b.Delay(attempt)
	if d == 0 {
		return ctx.Err()
	}
	sleep := b.Sleep
	if sleep == nil {
		sleep = contextSleep
	}
	return sleep(ctx, d)
}

func contextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
