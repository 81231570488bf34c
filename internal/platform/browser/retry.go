package browser

import (
	"context"
	"time"
)

const (
	// DefaultRetryAttempts bounds retries of transient browser failures
	DefaultRetryAttempts = 3

	defaultRetryBase = 500 * time.Millisecond
)

// Retry runs fn up to attempts times with exponential backoff between
// tries. The context cancels the wait, not an in-flight attempt.
func Retry(ctx context.Context, attempts int, fn func() error) error {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}

	var err error
	delay := defaultRetryBase
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
