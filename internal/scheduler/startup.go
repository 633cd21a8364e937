package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Startup probe defaults.
const (
	DefaultStartupAttempts = 30
	DefaultStartupDelay    = 2 * time.Second
)

// Pinger checks that the remote answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// WaitForRemote pings until the remote answers, at most attempts times with
// delay between tries. Exhaustion returns an error wrapping
// ErrRemoteUnreachable and the last ping error.
func WaitForRemote(ctx context.Context, p Pinger, attempts int, delay time.Duration, logger Logger) error {
	if attempts <= 0 {
		attempts = DefaultStartupAttempts
	}
	if delay <= 0 {
		delay = DefaultStartupDelay
	}
	if logger == nil {
		logger = noopLogger{}
	}

	try := 0
	_, err := backoff.Retry(ctx,
		func() (struct{}, error) {
			try++
			return struct{}{}, p.Ping(ctx)
		},
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("remote not reachable, retrying",
				"attempt", try, "max_attempts", attempts, "retry_in", next, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("%w after %d attempts: %w", ErrRemoteUnreachable, try, err)
	}
	logger.Info("remote reachable", "attempts", try)
	return nil
}
