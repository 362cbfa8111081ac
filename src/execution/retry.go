package execution

import (
	"context"
	"errors"
	"time"

	logger "github.com/sirupsen/logrus"

	"tradeexecutor/src/model"
)

// RetryPolicy makes retryability a data-level decision per call site: each
// external-call wrapper receives its own policy instead of a blanket retry
// decorator.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
	Retryable   func(error) bool
}

// Do runs fn until it succeeds, exhausts MaxAttempts, hits a non-retryable
// error, or ctx is cancelled. Backoff doubles per attempt starting from
// BackoffBase.
func (p RetryPolicy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	backoff := p.BackoffBase
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}
		if attempt == attempts {
			break
		}

		logger.WithError(err).WithFields(map[string]interface{}{
			"op":      op,
			"attempt": attempt,
			"backoff": backoff,
		}).Warn("retrying after transient error")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

// IsTransient reports whether an error is a transient network/provider
// failure worth retrying.
func IsTransient(err error) bool {
	var provErr *model.ProviderError
	if errors.As(err, &provErr) {
		return provErr.Transient
	}
	return errors.Is(err, context.DeadlineExceeded)
}
