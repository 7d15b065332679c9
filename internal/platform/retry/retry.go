// Package retry provides a small explicit retry policy with exponential
// backoff, shared by the remote clients (embeddings, LLM, enrichment).
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	defaultMaxAttempts  = 3
	defaultInitialDelay = 500 * time.Millisecond
	delayMultiplier     = 2
)

// Permanent marks an error as not worth retrying. Do returns the wrapped
// error immediately when an attempt fails with one.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }

func (p *Permanent) Unwrap() error { return p.Err }

// Abort wraps err so Do stops retrying.
func Abort(err error) error {
	if err == nil {
		return nil
	}

	return &Permanent{Err: err}
}

// Policy configures attempts and backoff. The zero value gets defaults.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
}

// DefaultPolicy returns the policy used when callers have no opinion.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  defaultMaxAttempts,
		InitialDelay: defaultInitialDelay,
	}
}

// Do runs op up to MaxAttempts times with exponential backoff between
// attempts. It returns the last error on exhaustion, the wrapped error
// immediately for Permanent failures, and the context error when the
// backoff wait is cancelled.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}

	if p.InitialDelay <= 0 {
		p.InitialDelay = defaultInitialDelay
	}

	var lastErr error

	delay := p.InitialDelay

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("retry interrupted: %w", ctx.Err())
			case <-time.After(delay):
				delay *= delayMultiplier
			}
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *Permanent
		if errors.As(lastErr, &perm) {
			return perm.Err
		}
	}

	return lastErr
}
