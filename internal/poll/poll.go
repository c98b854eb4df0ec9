// Package poll waits for a status predicate to turn true before a deadline.
package poll

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ErrDeadline is returned when the context deadline passes before the
// condition reports ready.
var ErrDeadline = errors.New("poll: deadline exceeded")

// Condition reports whether the awaited state has been reached. A non-nil
// error counts as "not yet"; polling continues.
type Condition func() (bool, error)

// Until evaluates cond immediately and then every interval until it returns
// true or ctx ends. An interval <= 0 yields the processor between attempts
// instead of sleeping.
func Until(ctx context.Context, interval time.Duration, cond Condition) error {
	_, err := UntilCount(ctx, interval, cond)
	return err
}

// UntilCount is Until, also returning how many times cond was evaluated.
func UntilCount(ctx context.Context, interval time.Duration, cond Condition) (int, error) {
	var (
		attempts int
		lastErr  error
		timer    *time.Timer
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return attempts, done(err, lastErr)
		}

		attempts++
		ok, err := cond()
		if err == nil && ok {
			return attempts, nil
		}
		if err != nil {
			lastErr = err
		}

		if interval <= 0 {
			runtime.Gosched()
			continue
		}

		if timer == nil {
			timer = time.NewTimer(interval)
		} else {
			timer.Reset(interval)
		}
		select {
		case <-ctx.Done():
			return attempts, done(ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
}

func done(ctxErr, lastErr error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		if lastErr != nil {
			return fmt.Errorf("%w (last error: %v)", ErrDeadline, lastErr)
		}
		return ErrDeadline
	}
	return ctxErr
}
