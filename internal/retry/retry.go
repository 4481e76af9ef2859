// Package retry executes asynchronous operations with bounded
// retry and backoff under a caller-supplied policy.
package retry

import (
	"context"
	"time"
)

// StatusCoder is implemented by errors that carry an HTTP status.
// The default policy refuses to retry them: a response from the
// server is a decision, not a transient fault.
type StatusCoder interface {
	StatusCode() int
}

// Policy configures a single Do call. It is a value, never persisted,
// and safe to share between concurrent calls.
type Policy struct {
	// MaxAttempts is the total number of invocations, at least 1.
	MaxAttempts int
	// ShouldRetry decides whether the error from a failed attempt is
	// worth another try. When it returns false the error propagates
	// immediately.
	ShouldRetry func(err error) bool
	// Backoff returns the delay before the attempt following attempt
	// (1-based number of the attempt that just failed).
	Backoff func(attempt int) time.Duration

	// OnAttempt, when set, is called synchronously before each attempt.
	OnAttempt func(attempt int)
	// OnError, when set, is called synchronously after each failed
	// attempt. Neither hook may alter control flow.
	OnError func(attempt int, err error)
}

// Default returns the policy used for network calls: three attempts,
// linear one-second backoff, transport errors retried, any error
// carrying an HTTP status failed fast.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		ShouldRetry: func(err error) bool {
			_, hasStatus := err.(StatusCoder)
			return !hasStatus
		},
		Backoff: func(attempt int) time.Duration {
			return time.Duration(attempt) * time.Second
		},
	}
}

// Do invokes op up to policy.MaxAttempts times, sleeping
// policy.Backoff(n) after failed attempt n. The backoff wait aborts
// when ctx is canceled, returning ctx.Err. The last error is returned
// unwrapped so callers can still inspect status fields.
func Do[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if policy.OnAttempt != nil {
			policy.OnAttempt(attempt)
		}

		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if policy.OnError != nil {
			policy.OnError(attempt, err)
		}

		if attempt == policy.MaxAttempts {
			break
		}
		if policy.ShouldRetry != nil && !policy.ShouldRetry(err) {
			break
		}

		var delay time.Duration
		if policy.Backoff != nil {
			delay = policy.Backoff(attempt)
		}
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return zero, lastErr
}
