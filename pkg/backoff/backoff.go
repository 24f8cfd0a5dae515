// Package backoff provides a bounded exponential backoff retry helper.
package backoff

import (
	"context"
	"fmt"
	"time"
)

// Policy describes a bounded exponential backoff schedule. The delay before
// attempt n (1-based) is Initial * Factor^(n-1), capped at Max.
type Policy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	Factor      float64
}

// DefaultPolicy matches the recovery defaults: 3 attempts starting at 500ms.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		Initial:     500 * time.Millisecond,
		Max:         10 * time.Second,
		Factor:      2,
	}
}

// Delay returns the wait before the given 1-based attempt. The first attempt
// has no delay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := float64(p.Initial)
	for i := 2; i < attempt; i++ {
		d *= p.Factor
	}
	if max := float64(p.Max); p.Max > 0 && d > max {
		d = max
	}
	return time.Duration(d)
}

// ExhaustedError is the terminal failure returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Retry runs fn until it succeeds, the policy is exhausted, or the context is
// cancelled. On exhaustion it returns an *ExhaustedError wrapping the last
// failure.
func Retry(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}

	var last error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if delay := p.Delay(attempt); delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := fn(ctx); err != nil {
			last = err
			continue
		}
		return nil
	}

	return &ExhaustedError{Attempts: p.MaxAttempts, Last: last}
}
