package media

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mediaxfer/internal/common"
	"github.com/sethvargo/go-retry"
)

// RetryPolicy bounds how often a whole processing attempt is repeated.
type RetryPolicy struct {
	// MaxAttempts counts the first attempt. Values below 1 mean 1.
	MaxAttempts int
	// Backoff is the fixed pause between attempts.
	Backoff time.Duration
	// Retryable decides whether a failed attempt is repeated. nil retries
	// every failure.
	Retryable func(err error) bool
}

// DefaultRetryPolicy makes two attempts 600ms apart and skips deterministic
// client errors.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: common.DefaultMaxAttempts,
		Backoff:     common.DefaultRetryBackoff,
		Retryable:   IsRetryable,
	}
}

// UniformRetryPolicy retries every failure, whatever its class.
func UniformRetryPolicy() RetryPolicy {
	p := DefaultRetryPolicy()
	p.Retryable = nil
	return p
}

// IsRetryable reports whether err may succeed when the attempt is repeated.
// 4xx answers are final except 401, 403 (auth session may not be ready yet),
// 408 and 429. Empty 2xx results and cancellation by the caller are final too.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNoResult) {
		return false
	}

	var se *ServerError
	if errors.As(err, &se) {
		if se.Status < 400 || se.Status > 499 {
			return true
		}
		switch se.Status {
		case http.StatusUnauthorized, http.StatusForbidden,
			http.StatusRequestTimeout, http.StatusTooManyRequests:
			return true
		}
		return false
	}
	return true
}

// Do runs fn until it succeeds, the attempts are used up or the error is not
// retryable. onRetry is called with the failed attempt number and its error
// before each pause. The error of the last attempt is returned.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error, onRetry func(attempt int, err error)) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := p.Backoff
	if backoff <= 0 {
		// NewConstant panics on a non-positive base
		backoff = time.Nanosecond
	}

	b := retry.WithMaxRetries(uint64(maxAttempts-1), retry.NewConstant(backoff))

	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return err
		}
		if attempt < maxAttempts && onRetry != nil {
			onRetry(attempt, err)
		}
		return retry.RetryableError(err)
	})
}
