package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// withRetry calls fn up to maxRetries+1 times with exponential backoff
// starting at base.
func withRetry[T any](ctx context.Context, log *logrus.Entry, op string, maxRetries int, base time.Duration, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if i == maxRetries {
			break
		}
		backoff := base * time.Duration(1<<uint(i))
		log.WithError(err).Warnf("%s failed (attempt %d/%d), retrying in %v", op, i+1, maxRetries+1, backoff)
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return zero, fmt.Errorf("%s: all %d attempts failed: %w", op, maxRetries+1, lastErr)
}
