// Package retry implements the bounded retry/backoff policy shared by every
// outbound dependency (order system, language model).
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy configures one caller. Retryable classifies a failure as worth
// another attempt; anything else is terminal and surfaces immediately.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
	Retryable      func(error) bool
}

// ExhaustedError reports that the retry budget ran out. It wraps the last
// retryable failure observed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry budget exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Caller runs operations under a fixed policy.
type Caller struct {
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
}

// New builds a caller, normalizing degenerate policy values.
func New(policy Policy) *Caller {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Multiplier <= 0 {
		policy.Multiplier = 2
	}
	if policy.Retryable == nil {
		policy.Retryable = func(error) bool { return true }
	}
	return &Caller{policy: policy, sleep: sleepWithContext}
}

// Do runs op until it succeeds, fails terminally, or the attempt budget is
// spent. Context cancellation during a backoff sleep aborts the loop.
func (c *Caller) Do(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := c.policy.InitialBackoff
	var last error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !c.policy.Retryable(err) {
			return err
		}
		last = err
		if attempt == c.policy.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff = time.Duration(float64(backoff) * c.policy.Multiplier)
	}
	return &ExhaustedError{Attempts: c.policy.MaxAttempts, Last: last}
}

// sleepWithContext sleeps for d, returning early if ctx is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// IsExhausted reports whether err is (or wraps) an ExhaustedError.
func IsExhausted(err error) bool {
	var exhausted *ExhaustedError
	return errors.As(err, &exhausted)
}
