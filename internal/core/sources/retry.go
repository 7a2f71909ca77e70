package sources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig configures exponential-backoff retry for a single adapter
// fetch, adapted from the teacher's order-retry helper.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64
}

// DefaultRetryConfig is tuned for sub-second adapter round-trips within the
// default 3s per-adapter timeout.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     2,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

// IsRetryable classifies Timeout/HttpError-family failures as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "connection refused", "connection reset", "too many requests", "rate limit", "temporary failure"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// Operation is a retryable unit of work.
type Operation func(ctx context.Context) error

// WithRetry executes op with exponential backoff, aborting early on a
// non-retryable error or context cancellation.
func WithRetry(ctx context.Context, cfg RetryConfig, log zerolog.Logger, op Operation) error {
	var lastErr error
	backoff := cfg.InitialBackoff

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("adapter fetch cancelled: %w", ctx.Err())
		default:
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return err
		}
		if attempt == cfg.MaxRetries {
			break
		}

		log.Debug().Err(err).Int("attempt", attempt+1).Dur("backoff", backoff).Msg("adapter fetch failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("adapter fetch cancelled during backoff: %w", ctx.Err())
		case <-time.After(backoff):
		}

		backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}

	return fmt.Errorf("adapter fetch failed after %d attempts: %w", cfg.MaxRetries+1, lastErr)
}
