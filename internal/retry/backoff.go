// Package retry holds the reopen policy send mode applies after a failed
// send.  The target itself never retries; this is caller-side policy.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	nserr "netsend/internal/errors"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError wraps an error to signal that another attempt will not
// help.  Return [Permanent](err) from the attempt function to stop.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not worth another attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return nserr.As(err, &pe)
}

// Classify marks socket and resolver failures that another open cannot
// fix (unknown host, bad descriptor, unsupported family) as permanent.
func Classify(err error) error {
	if err == nil || nserr.IsRetryable(err) {
		return err
	}
	return Permanent(err)
}

// ── Backoff ──────────────────────────────────────────────────────────

// Backoff spaces out reopen attempts exponentially.
type Backoff struct {
	// InitialDelay is the wait before the second attempt (default 200ms).
	InitialDelay time.Duration
	// MaxDelay caps the wait (default 5s).
	MaxDelay time.Duration
	// Multiplier grows the wait after each attempt (default 2.0).
	Multiplier float64
	// MaxAttempts is the total number of tries; 0 means until ctx is
	// cancelled.
	MaxAttempts int
	// Jitter spreads each wait by ±25% so workers sharing a target do
	// not reconnect in lockstep.
	Jitter bool
}

// DefaultBackoff returns the policy used by --reopen.
func DefaultBackoff() *Backoff {
	return &Backoff{
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		MaxAttempts:  3,
		Jitter:       true,
	}
}

// Delay returns the unjittered wait after the given 1-based attempt.
func (b *Backoff) Delay(attempt int) time.Duration {
	delay := b.InitialDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	multiplier := b.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	maxDelay := b.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 5 * time.Second
	}
	d := float64(delay) * math.Pow(multiplier, float64(attempt-1))
	if d > float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, returns a permanent error, runs out of
// attempts, or ctx is cancelled.  attempt is 1-based.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return nserr.Unwrap(err)
		}
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return fmt.Errorf("gave up after %d attempt(s): %w", attempt, err)
		}

		wait := b.Delay(attempt)
		if b.Jitter {
			wait = addJitter(wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-t.C:
		}
	}
}

// addJitter adds ±25% randomisation to a duration.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	return time.Duration(math.Max(float64(d)+delta, float64(time.Millisecond)))
}
