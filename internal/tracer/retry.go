package tracer

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/agenttrace-labs/agenttrace/pkg/agenttrace/v1/model"
)

// RetryConfig bounds a retried operation. Zero values mean one attempt with
// no delay.
type RetryConfig struct {
	// Attempts is the maximum number of tries, including the first.
	Attempts int
	// Delay is the base wait between attempts.
	Delay time.Duration
	// MaxDelay caps the backed-off wait. Zero means uncapped.
	MaxDelay time.Duration
	// BackoffFactor multiplies the delay after each failed attempt. Values
	// below 1 are treated as 1 (constant delay).
	BackoffFactor float64
	// Jitter randomizes each wait by up to +/- this fraction (0..1).
	Jitter float64
}

func (cfg *RetryConfig) normalize() {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if cfg.BackoffFactor < 1.0 {
		cfg.BackoffFactor = 1.0
	}
	if cfg.Jitter < 0.0 {
		cfg.Jitter = 0.0
	} else if cfg.Jitter > 1.0 {
		cfg.Jitter = 1.0
	}
	if cfg.Delay < 0 {
		cfg.Delay = 0
	}
	if cfg.MaxDelay < 0 {
		cfg.MaxDelay = 0
	}
}

// Retry runs op under a span per attempt. Each attempt after the first is
// linked to its predecessor with a retry_of edge, so the recorded graph keeps
// the full retry chain. The final attempt's error (or nil) is returned; every
// failed attempt stays in the graph as a failed node.
func Retry(t *Tracer, cfg RetryConfig, name, nodeType string, op func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		cfg.normalize()

		var lastErr error
		var previous *Span
		for attempt := 1; attempt <= cfg.Attempts; attempt++ {
			select {
			case <-ctx.Done():
				if lastErr != nil {
					return lastErr
				}
				return ctx.Err()
			default:
			}

			spanCtx, span := t.StartSpan(ctx, name, nodeType)
			span.Meta(map[string]any{"attempt": attempt, "max_attempts": cfg.Attempts})
			if previous != nil {
				if err := span.Link(previous, model.EdgeRetryOf, ""); err != nil {
					t.diag("failed to link retry attempt %d for '%s': %v", attempt, name, err)
				}
			}

			err := op(spanCtx)
			span.End(err)
			if err == nil {
				if attempt > 1 {
					t.log.Infof("operation '%s' succeeded on attempt %d/%d", name, attempt, cfg.Attempts)
				}
				return nil
			}
			lastErr = err
			previous = span

			if attempt == cfg.Attempts {
				break
			}

			wait := backoffDelay(cfg, attempt)
			t.log.Warnf("operation '%s' failed on attempt %d/%d (retrying in %v): %v",
				name, attempt, cfg.Attempts, wait.Truncate(time.Millisecond), err)

			select {
			case <-t.clock.After(wait):
			case <-ctx.Done():
				return lastErr
			}
		}
		return lastErr
	}
}

// backoffDelay computes the wait before the next attempt: exponential
// backoff, optional jitter, optional cap.
func backoffDelay(cfg RetryConfig, attempt int) time.Duration {
	delay := float64(cfg.Delay)
	if cfg.BackoffFactor > 1.0 {
		delay *= math.Pow(cfg.BackoffFactor, float64(attempt-1))
	}
	if delay > float64(math.MaxInt64) {
		delay = float64(math.MaxInt64)
	}
	wait := time.Duration(delay)

	if cfg.Jitter > 0.0 {
		jitterFactor := cfg.Jitter * (rand.Float64()*2.0 - 1.0)
		wait += time.Duration(float64(wait) * jitterFactor)
		if wait < 0 {
			wait = 0
		}
	}
	if cfg.MaxDelay > 0 && wait > cfg.MaxDelay {
		wait = cfg.MaxDelay
	}
	return wait
}
