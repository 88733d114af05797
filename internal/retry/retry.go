// Package retry runs an operation with bounded exponential backoff.
// Irrecoverable errors (4xx-class, auth failures) fail fast; only transient
// failures are retried.
package retry

import (
	"context"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/glodinasflexwork/sessionkit/internal/apierrors"
)

// Config bounds the retry loop. Zero values pick the defaults below.
type Config struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = 100 * time.Millisecond
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 5 * time.Second
	}
	return c
}

// Do invokes op up to cfg.MaxAttempts times, sleeping with exponential
// backoff between attempts. It returns nil on the first success, the error
// immediately when it is not recoverable, and the last error once attempts
// are exhausted or ctx is done.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = cfg.InitialInterval
	exp.Multiplier = 2
	exp.MaxInterval = cfg.MaxInterval
	exp.Reset()

	var err error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			if err != nil {
				return err
			}
			return cerr
		}

		if err = op(ctx); err == nil {
			return nil
		}
		if !apierrors.IsRecoverable(err) {
			return err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		select {
		case <-time.After(exp.NextBackOff()):
		case <-ctx.Done():
			return err
		}
	}
	return err
}
