package main

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrySucceedsFirstTry(t *testing.T) {
	p := retryPolicy{attempts: 3}
	calls := 0
	err := p.run(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("Got err=%v calls=%d, want nil and 1", err, calls)
	}
}

func TestRetryExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	p := retryPolicy{attempts: 3}
	errLast := errors.New("attempt 3")
	calls := 0
	err := p.run(context.Background(), func() error {
		calls++
		if calls == 3 {
			return errLast
		}
		return errors.New("earlier")
	})
	if !errors.Is(err, errLast) {
		t.Errorf("Error = %v, want the last attempt's error", err)
	}
	if calls != 3 {
		t.Errorf("Calls = %d, want 3", calls)
	}
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	fatal := errors.New("fatal")
	p := retryPolicy{
		attempts:  5,
		retryable: func(err error) bool { return !errors.Is(err, fatal) },
	}
	calls := 0
	err := p.run(context.Background(), func() error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) || calls != 1 {
		t.Errorf("Got err=%v calls=%d, want fatal after 1 call", err, calls)
	}
}

func TestRetryDelaysOnlyDelayableErrors(t *testing.T) {
	slow := errors.New("transport")
	fast := errors.New("bad output")
	p := retryPolicy{
		attempts:  3,
		delay:     30 * time.Millisecond,
		delayable: func(err error) bool { return errors.Is(err, slow) },
	}

	calls := 0
	start := time.Now()
	_ = p.run(context.Background(), func() error {
		calls++
		return fast
	})
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("Non-delayable retries took %v, want immediate", elapsed)
	}
	if calls != 3 {
		t.Errorf("Calls = %d, want 3", calls)
	}

	start = time.Now()
	_ = p.run(context.Background(), func() error { return slow })
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Delayable retries took %v, want at least two delays", elapsed)
	}
}

func TestRetryRespectsContextCancellation(t *testing.T) {
	p := retryPolicy{
		attempts:  10,
		delay:     time.Second,
		delayable: func(error) bool { return true },
	}
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	err := p.run(ctx, func() error {
		calls++
		return errors.New("keep going")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("Calls = %d, want 1 (cancelled during the first delay)", calls)
	}
}

func TestRetryChecksContextBeforeFirstCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := retryPolicy{attempts: 3}
	calls := 0
	err := p.run(ctx, func() error {
		calls++
		return nil
	})
	if !errors.Is(err, context.Canceled) || calls != 0 {
		t.Errorf("Got err=%v calls=%d, want Canceled and 0", err, calls)
	}
}
