package lease

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/justapithecus/pharos/types"
)

// RetryConfig bounds repeated acquisition attempts against an exhausted
// pool. Retries only cover exhaustion: validation and storage errors abort
// immediately.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Must be at least 1.
	MaxAttempts int

	// Backoff is the delay before the second attempt. Zero disables
	// sleeping entirely.
	Backoff time.Duration

	// Multiplier scales the backoff after each failed attempt. Values
	// below 1 are treated as 1 (constant backoff).
	Multiplier float64

	// MaxBackoff caps the per-attempt delay. Zero means uncapped.
	MaxBackoff time.Duration

	// Sleep is the wait function between attempts. Defaults to time.Sleep;
	// tests inject a recorder here.
	Sleep func(time.Duration)
}

// DefaultRetryConfig mirrors the conventional 3-attempt doubling schedule.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		Backoff:     time.Second,
		Multiplier:  2,
		MaxBackoff:  30 * time.Second,
	}
}

func (c *RetryConfig) normalize() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: retry attempts must be at least 1, got %d", ErrInvalidRequest, c.MaxAttempts)
	}
	if c.Backoff < 0 {
		return fmt.Errorf("%w: retry backoff must not be negative, got %s", ErrInvalidRequest, c.Backoff)
	}
	if c.Multiplier < 1 {
		c.Multiplier = 1
	}
	if c.Sleep == nil {
		c.Sleep = time.Sleep
	}
	return nil
}

// AcquireWithRetry attempts Acquire up to cfg.MaxAttempts times, sleeping
// between attempts while the pool stays exhausted. The backoff grows by
// cfg.Multiplier per attempt and is clamped to cfg.MaxBackoff. No sleep
// follows the final attempt.
//
// Returns (nil, nil) when every attempt found the pool exhausted.
func (m *Manager) AcquireWithRetry(ctx context.Context, req AcquireRequest, cfg RetryConfig) (*types.Lease, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	backoff := cfg.Backoff
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lease, err := m.Acquire(ctx, req)
		if err != nil {
			return nil, err
		}
		if lease != nil {
			return lease, nil
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		m.logger.Debug("pool exhausted, backing off",
			zap.String("pool", req.Pool),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff))

		if backoff > 0 {
			cfg.Sleep(backoff)
		}
		backoff = time.Duration(float64(backoff) * cfg.Multiplier)
		if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
			backoff = cfg.MaxBackoff
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// WithRetryingLease is WithLease with retry-on-exhaustion acquisition.
// Like WithLease, exhaustion after every attempt hands fn a nil lease.
func (m *Manager) WithRetryingLease(ctx context.Context, req AcquireRequest, cfg RetryConfig, fn func(ctx context.Context, lease *types.Lease) error) (err error) {
	lease, err := m.AcquireWithRetry(ctx, req, cfg)
	if err != nil {
		return err
	}

	if lease != nil {
		defer func() {
			if releaseErr := m.Release(ctx, lease); releaseErr != nil && err == nil {
				err = releaseErr
			}
		}()
	}

	return fn(ctx, lease)
}
