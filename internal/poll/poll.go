// Package poll repeats a condition check at a fixed interval until it holds
// or a deadline passes.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultInterval is the delay between two condition checks.
const DefaultInterval = 100 * time.Millisecond

// ErrTimeout is returned when the condition did not hold before the deadline.
var ErrTimeout = errors.New("timeout exceeded")

// Condition reports whether the awaited state has been reached. A non-nil
// error stops polling immediately and is returned to the caller.
type Condition func(ctx context.Context) (bool, error)

var errPending = errors.New("condition not met")

// Until checks cond every interval until it returns true, returns an error,
// or timeout elapses. Cancellation of ctx itself is reported as ctx.Err();
// only the local deadline produces ErrTimeout.
func Until(ctx context.Context, timeout, interval time.Duration, cond Condition) error {
	if interval <= 0 {
		interval = DefaultInterval
	}

	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	op := func() error {
		ok, err := cond(pollCtx)
		if err != nil {
			if pollCtx.Err() != nil {
				// the check itself was cut short by the deadline
				return errPending
			}
			return backoff.Permanent(err)
		}
		if !ok {
			return errPending
		}
		return nil
	}

	b := backoff.WithContext(backoff.NewConstantBackOff(interval), pollCtx)
	err := backoff.Retry(op, b)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, errPending) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %v", ErrTimeout, timeout)
	}
	return err
}
