package judge

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Retrier runs named jobs with a bounded number of attempts
type Retrier struct {
	logger      *zap.Logger
	maxAttempts int
	backoff     time.Duration
	pending     atomic.Int64
}

// NewRetrier creates a Retrier. maxAttempts below one is treated as one.
func NewRetrier(logger *zap.Logger, maxAttempts int, backoff time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{
		logger:      logger,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks an error as not worth retrying
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Pending returns the number of jobs currently running
func (r *Retrier) Pending() int {
	return int(r.pending.Load())
}

// Do runs fn until it succeeds, returns a Permanent error, the context is
// done, or maxAttempts is reached. Exhaustion returns an error wrapping both
// ErrGaveUp and the last failure.
func (r *Retrier) Do(ctx context.Context, job string, fn func(context.Context) error) error {
	r.pending.Add(1)
	defer r.pending.Add(-1)

	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			r.logger.Info("job succeeded", zap.String("job", job), zap.Int("attempts", attempt))
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			r.logger.Warn("job failed permanently", zap.String("job", job), zap.Int("attempt", attempt), zap.Error(perm.err))
			return perm.err
		}

		lastErr = err
		if attempt == r.maxAttempts {
			break
		}

		r.logger.Warn("job attempt failed, retrying",
			zap.String("job", job),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.maxAttempts),
			zap.Error(err))

		if waitErr := sleep(ctx, r.backoff); waitErr != nil {
			return fmt.Errorf("job %s interrupted: %w", job, waitErr)
		}
	}

	r.logger.Error("job gave up", zap.String("job", job), zap.Int("attempts", r.maxAttempts), zap.Error(lastErr))
	return fmt.Errorf("%w: %s after %d attempts: %w", ErrGaveUp, job, r.maxAttempts, lastErr)
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
