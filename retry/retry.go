// Package retry wraps cenkalti/backoff into the fixed-interval retry policy
// used by the link and broker connectors. Field stations retry forever; tests
// inject a bounded policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrExhausted = errors.New("retry attempts exhausted")

// Policy is a constant backoff. MaxAttempts of zero means retry forever.
type Policy struct {
	MaxAttempts uint64        `yaml:"max_attempts"`
	Interval    time.Duration `yaml:"interval"`
}

// Forever returns the unbounded policy used on deployed stations.
func Forever(interval time.Duration) Policy {
	return Policy{Interval: interval}
}

// Bounded returns a policy that gives up after attempts tries.
func Bounded(attempts uint64, interval time.Duration) Policy {
	return Policy{MaxAttempts: attempts, Interval: interval}
}

func (p Policy) BackOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Interval)
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, p.MaxAttempts-1)
	}
	return backoff.WithContext(b, ctx)
}

// WaitFunc spends the backoff interval between two attempts. The connectors
// use it to blink their indicator instead of sleeping.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Do calls op until it returns nil, the policy runs out, or ctx is done.
// Returning backoff.Permanent(err) from op stops immediately with err.
func Do(ctx context.Context, p Policy, op func() error, wait WaitFunc) error {
	b := p.BackOff(ctx)
	b.Reset()
	for {
		err := op()
		if err == nil {
			return nil
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return permanent.Err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		next := b.NextBackOff()
		if next == backoff.Stop {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %w", ErrExhausted, err)
		}
		if wait != nil {
			if err := wait(ctx, next); err != nil {
				return err
			}
		}
	}
}
