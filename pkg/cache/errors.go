package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by helpers that treat a miss as an error.
var ErrCacheMiss = errors.New("cache miss")

// Retry policy for the network-backed caches (Redis, MongoDB). The file
// cache never retries.
const (
	retryAttempts  = 3
	retryBaseDelay = 200 * time.Millisecond
)

// RetryableError marks an error as transient so RetryWithBackoff will try
// the operation again.
type RetryableError struct{ Err error }

// Retryable wraps err as transient. A nil err stays nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err carries a RetryableError anywhere in its
// chain.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryWithBackoff runs fn, retrying transient failures with a doubling
// delay. Errors not marked Retryable abort immediately, as does context
// cancellation while waiting.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt, delay := 0, retryBaseDelay; attempt < retryAttempts; attempt, delay = attempt+1, delay*2 {
		lastErr = fn()
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		if attempt == retryAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}
