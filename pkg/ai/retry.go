package ai

import (
	"context"
	"errors"
	"time"
)

// RetryConfig controls how transient judge failures are retried.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// RetryJudge decorates a Judge with bounded exponential backoff.
type RetryJudge struct {
	inner  Judge
	config RetryConfig
}

// WithRetry wraps a Judge with retry logic. MaxAttempts below 2 disables retrying.
func WithRetry(inner Judge, cfg RetryConfig) Judge {
	if cfg.MaxAttempts < 2 {
		return inner
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 200 * time.Millisecond
	}
	return &RetryJudge{inner: inner, config: cfg}
}

// Provider reports the wrapped provider name.
func (r *RetryJudge) Provider() string { return r.inner.Provider() }

// Judge calls the wrapped judge until it succeeds, the error is permanent, or attempts run out.
func (r *RetryJudge) Judge(ctx context.Context, req JudgeRequest) (Judgment, error) {
	var lastErr error
	invalidRetried := false

	for attempt := 0; attempt < r.config.MaxAttempts; attempt++ {
		judgment, err := r.inner.Judge(ctx, req)
		if err == nil {
			return judgment, nil
		}
		lastErr = err

		if !shouldRetry(err, &invalidRetried) || attempt == r.config.MaxAttempts-1 {
			break
		}

		wait := r.config.BaseDelay << attempt
		select {
		case <-ctx.Done():
			return Judgment{}, ctx.Err()
		case <-time.After(wait):
		}
	}

	return Judgment{}, lastErr
}

func shouldRetry(err error, invalidRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// A malformed response gets one more chance.
	var invalid *ErrInvalidResponse
	if errors.As(err, &invalid) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	}

	var unavailable *ErrJudgeUnavailable
	return errors.As(err, &unavailable)
}
