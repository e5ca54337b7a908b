package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Policy describes an exponential backoff loop shared by every component
// that retries transient failures (summary generation, video downloads).
type Policy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
	Factor      float64
}

// Do runs op under the policy. Transient errors are retried with
// exponential backoff up to MaxAttempts; errors wrapped with Permanent
// abort immediately. The context bounds the whole loop.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = p.Factor

	return backoff.Retry(ctx, backoff.Operation[T](op),
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.MaxAttempts),
	)
}

// Permanent marks err as not retryable so Do stops immediately.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
