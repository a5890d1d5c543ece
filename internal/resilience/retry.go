// Package resilience wraps detector and fetch calls with retry and
// circuit breaking so one flaky service degrades a verdict instead of
// failing the analysis.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls retry behavior. The zero value gets interactive-call
// defaults: three attempts with short exponential backoff.
type Policy struct {
	// Attempts is the total number of tries including the first.
	Attempts int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the backoff.
	MaxDelay time.Duration

	// Growth scales the delay after each attempt.
	Growth float64

	// Jitter randomizes each delay by up to this fraction either way.
	Jitter float64
}

func (p Policy) withDefaults() Policy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 250 * time.Millisecond
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = 5 * time.Second
	}
	if p.Growth <= 0 {
		p.Growth = 2
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	return p
}

func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.BaseDelay) * math.Pow(p.Growth, float64(attempt))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Retry runs fn until it succeeds, fails permanently, or runs out of
// attempts. Only errors that Retryable accepts are retried; context
// cancellation stops immediately. op names the call in retry logs.
func Retry(ctx context.Context, p Policy, op string, fn func(context.Context) error) error {
	_, err := RetryVal(ctx, p, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RetryVal is Retry for calls that return a value.
func RetryVal[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	p = p.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !Retryable(err) || attempt == p.Attempts-1 {
			break
		}

		zap.L().Warn("resilience: retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}

	return zero, lastErr
}
