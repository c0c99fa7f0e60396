// Package retry provides the explicit retry policy used around every I/O
// boundary in the pipeline: model calls, ledger appends, categorization.
package retry

import (
	"context"
	"time"
)

// Policy describes how a caller retries one I/O boundary.
// The zero value retries nothing; use the constructors for the
// pipeline's standard policies.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Retryable reports whether err is worth another attempt.
	// A nil predicate treats every error as retryable.
	Retryable func(error) bool
}

// Extraction is the model-call policy: 3 attempts, backoff 2s doubling, cap 10s.
func Extraction(retryable func(error) bool) Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second, Retryable: retryable}
}

// Categorization is the fallback-tier policy: 2 attempts, backoff 1s, cap 5s.
func Categorization(retryable func(error) bool) Policy {
	return Policy{MaxAttempts: 2, BaseDelay: time.Second, MaxDelay: 5 * time.Second, Retryable: retryable}
}

// Ledger is the ledger I/O policy: 3 attempts, backoff 2s doubling, cap 10s.
func Ledger(retryable func(error) bool) Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second, Retryable: retryable}
}

// Do runs fn until it succeeds, the policy is exhausted, a non-retryable
// error occurs, or ctx is done. The last error is returned unwrapped so
// errors.Is classification still works for the caller.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := p.BaseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}

		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
	return lastErr
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
