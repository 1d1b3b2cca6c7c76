package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/ritmm/internal/domain"
)

// sleeper espera d o hasta que ctx termine.
type sleeper func(ctx context.Context, d time.Duration) error

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// withRetry ejecuta fn y, si el exchange responde rate limit, espera el
// backoff indicado por el servidor y reintenta exactamente una vez.
func withRetry[T any](ctx context.Context, sleep sleeper, op string, fn func() (T, error)) (T, error) {
	v, err := fn()
	rl, ok := domain.IsRateLimited(err)
	if !ok {
		return v, err
	}

	slog.Warn("rate limited, backing off", "op", op, "wait", rl.Wait)
	if err := sleep(ctx, rl.Wait); err != nil {
		var zero T
		return zero, fmt.Errorf("%s: backoff: %w", op, err)
	}

	v, err = fn()
	if err != nil {
		return v, fmt.Errorf("%s: after retry: %w", op, err)
	}
	return v, nil
}
