// file: internals/features/school/assignments/service/cleanup.go
package service

import (
	"context"
	"time"
)

// RetryPolicy bounds how hard object cleanup tries before giving up.
type RetryPolicy struct {
	MaxAttempts int
	// Backoff is the wait after the given failed attempt (1-based).
	Backoff func(attempt int) time.Duration
	// Sleep waits d or until ctx is done; nil means a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: LinearBackoff(time.Second)}
}

// LinearBackoff waits attempt × step.
func LinearBackoff(step time.Duration) func(int) time.Duration {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// Run calls op until it succeeds or the attempts are used up.
// It returns the number of attempts made and the last error.
func (p RetryPolicy) Run(ctx context.Context, op func(ctx context.Context) error) (int, error) {
	limit := p.MaxAttempts
	if limit < 1 {
		limit = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var err error
	for attempt := 1; attempt <= limit; attempt++ {
		if err = op(ctx); err == nil {
			return attempt, nil
		}
		if attempt == limit {
			return attempt, err
		}
		var wait time.Duration
		if p.Backoff != nil {
			wait = p.Backoff(attempt)
		}
		if serr := sleep(ctx, wait); serr != nil {
			return attempt, err
		}
	}
	return limit, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
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
