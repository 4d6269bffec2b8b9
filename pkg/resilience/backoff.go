// Package resilience holds the retry and deadline helpers shared by the
// transport and the gateway.
package resilience

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BackoffStrategy yields the wait before retry number attempt (0-indexed)
type BackoffStrategy interface {
	NextDelay(attempt int) time.Duration
}

// ExponentialBackoff grows the delay by Multiplier per attempt up to MaxDelay,
// randomized by ±Jitter. Delays come from cenkalti/backoff.
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     float64 // 0.0-1.0
}

// DialRetryBackoff returns the delays used between failed processor dials.
// Dials are retried at most a few times, so the ceiling stays low:
//
//	attempt 0: ~50ms, 1: ~100ms, 2: ~200ms, ... capped at 2s
func DialRetryBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:  50 * time.Millisecond,
		MaxDelay:   2 * time.Second,
		Multiplier: 2.0,
		Jitter:     0.2,
	}
}

// NextDelay replays the exponential schedule up to attempt. Negative attempts
// are treated as the first.
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	b := eb.schedule()
	if attempt < 0 {
		attempt = 0
	}
	delay := b.NextBackOff()
	for i := 0; i < attempt; i++ {
		delay = b.NextBackOff()
	}
	if delay == backoff.Stop || delay < 0 {
		return eb.BaseDelay
	}
	return delay
}

func (eb *ExponentialBackoff) schedule() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = eb.BaseDelay
	b.MaxInterval = eb.MaxDelay
	b.Multiplier = eb.Multiplier
	b.RandomizationFactor = eb.Jitter
	b.MaxElapsedTime = 0 // attempts are bounded by the caller
	b.Reset()
	return b
}

// FixedBackoff waits the same Delay before every retry
type FixedBackoff struct {
	Delay time.Duration
}

func (fb *FixedBackoff) NextDelay(int) time.Duration {
	return fb.Delay
}
