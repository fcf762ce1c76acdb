// Package retry runs fallible calls with exponential backoff.
package retry

import (
	"context"
	"time"
)

// Policy bounds the number of retries and the initial delay between them.
type Policy struct {
	MaxRetries int
	Backoff    time.Duration
}

// Do calls fn until it succeeds, the retries are exhausted or ctx is done.
// The delay doubles after every failed attempt.
func Do(ctx context.Context, policy Policy, fn func(context.Context) error) error {
	maxRetries := policy.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := policy.Backoff
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
