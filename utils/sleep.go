package utils

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Sleep waits for d on the given clock, returning early with the context
// error if ctx is cancelled first.
func Sleep(ctx context.Context, clock clockwork.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clock.After(d):
		return nil
	}
}
