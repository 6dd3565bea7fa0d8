package fetcher

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryPolicy describes how many attempts a fetch gets and how long to pause
// around them. Delays are drawn uniformly from the configured ranges: the
// request delay runs before every attempt (politeness jitter), the retry
// delay runs between failed attempts.
type RetryPolicy struct {
	MaxAttempts     int
	RequestDelayMin time.Duration
	RequestDelayMax time.Duration
	RetryDelayMin   time.Duration
	RetryDelayMax   time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		RequestDelayMin: 1 * time.Second,
		RequestDelayMax: 3 * time.Second,
		RetryDelayMin:   2 * time.Second,
		RetryDelayMax:   5 * time.Second,
	}
}

func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.RequestDelayMin < 0 || p.RetryDelayMin < 0 {
		return fmt.Errorf("delays cannot be negative")
	}
	if p.RequestDelayMin > p.RequestDelayMax {
		return fmt.Errorf("request delay min cannot exceed max")
	}
	if p.RetryDelayMin > p.RetryDelayMax {
		return fmt.Errorf("retry delay min cannot exceed max")
	}
	return nil
}

func (p RetryPolicy) requestDelay() time.Duration {
	return jitter(p.RequestDelayMin, p.RequestDelayMax)
}

func (p RetryPolicy) retryDelay() time.Duration {
	return jitter(p.RetryDelayMin, p.RetryDelayMax)
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// SleepFunc pauses for d or returns early when ctx is cancelled. Tests
// substitute a no-op implementation.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
