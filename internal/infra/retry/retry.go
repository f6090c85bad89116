package retry

import (
	"context"
	"log/slog"
	"math"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/vietddude/buswatch/internal/core/apperr"
	"github.com/vietddude/buswatch/internal/metrics"
)

// Policy defines retry behavior.
type Policy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultPolicy provides sensible defaults for bus operations.
var DefaultPolicy = Policy{
	MaxAttempts:   5,
	InitialDelay:  500 * time.Millisecond,
	MaxDelay:      5 * time.Second,
	BackoffFactor: 1.5,
}

// Delay returns the pause before the given attempt (0-based).
// The first attempt runs immediately.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(p.InitialDelay) * math.Pow(p.BackoffFactor, float64(attempt))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Do runs op until it succeeds, fails permanently or the policy's attempt
// cap is reached. Failures are returned classified; after the cap the last
// transient failure is returned.
func Do[T any](
	ctx context.Context,
	name string,
	policy Policy,
	op func(ctx context.Context) (T, error),
) (T, error) {
	var result T
	maxAttempts := max(policy.MaxAttempts, 1)
	attempt := 0

	backoff := goretry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		if attempt >= maxAttempts {
			return 0, true
		}
		delay := policy.Delay(attempt)
		slog.Debug("Retrying operation",
			"operation", name,
			"attempt", attempt+1,
			"max_attempts", maxAttempts,
			"delay", delay,
		)
		return delay, false
	})

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		value, err := op(ctx)
		if err == nil {
			recordAttempt(name, attempt+1, maxAttempts, "success", nil)
			result = value
			return nil
		}

		classified := apperr.Classify(err)
		if apperr.IsPermanent(classified) {
			recordAttempt(name, attempt+1, maxAttempts, "permanent", classified)
			slog.Debug("Permanent error detected, stopping retries", "operation", name)
			return classified
		}

		recordAttempt(name, attempt+1, maxAttempts, "transient", classified)
		return goretry.RetryableError(classified)
	})

	return result, err
}

// recordAttempt emits the log record and counter for one attempt.
func recordAttempt(name string, attempt, maxAttempts int, outcome string, err error) {
	metrics.RetryAttempts.WithLabelValues(name, outcome).Inc()

	attrs := []any{
		"operation", name,
		"attempt", attempt,
		"max_attempts", maxAttempts,
		"outcome", outcome,
	}
	if err != nil {
		slog.Debug("Operation failed", append(attrs, "error", err)...)
		return
	}
	slog.Debug("Operation succeeded", attrs...)
}
