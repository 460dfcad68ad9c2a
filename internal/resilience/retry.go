// Package resilience provides backoff retry for one-shot calls to external
// backends. Only transient transport failures are retried; application-level
// failures (bad request, model missing) surface immediately.
package resilience

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Config controls the retry schedule.
type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	Jitter         bool
}

// DefaultConfig retries twice more after the first failure, backing off
// 100ms then 200ms.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		Jitter:         true,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, exhausts
// cfg.MaxAttempts, or ctx is cancelled. retryable decides which errors are
// worth another attempt; nil means retry everything.
func Do(ctx context.Context, cfg Config, retryable func(error) bool, fn func(context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}

	backoff := cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		sleep := backoff
		if cfg.Jitter {
			sleep += time.Duration(rand.Int63n(int64(backoff)/4 + 1))
		}
		if sleep > cfg.MaxBackoff {
			sleep = cfg.MaxBackoff
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}
	}
	return lastErr
}

var transientMarkers = []string{
	"connection refused",
	"connection reset",
	"connection closed",
	"no such host",
	"network is unreachable",
	"no route to host",
	"i/o timeout",
	"timeout",
	"deadline exceeded",
	"rate limit",
	"too many connections",
}

// IsTransient reports whether an error looks like a temporary transport
// failure worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
