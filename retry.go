package main

import (
	"context"
	"time"
)

// retryPolicy is a bounded retry loop shared by the name generator and the
// judge. Errors passing the retryable predicate are retried until the
// attempt budget runs out; the delay is only applied before retrying errors
// the delayable predicate accepts, so invalid-output retries fire
// immediately while transport retries back off.
type retryPolicy struct {
	attempts  int
	delay     time.Duration
	retryable func(error) bool // nil means retry everything
	delayable func(error) bool // nil means never wait
}

// run calls fn until it succeeds or attempts are exhausted, returning the
// last error. Waiting respects ctx cancellation.
func (p retryPolicy) run(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < p.attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if p.retryable != nil && !p.retryable(lastErr) {
			return lastErr
		}
		if attempt == p.attempts-1 {
			break
		}
		if p.delay > 0 && p.delayable != nil && p.delayable(lastErr) {
			if err := sleepCtx(ctx, p.delay); err != nil {
				return err
			}
		}
	}
	return lastErr
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
