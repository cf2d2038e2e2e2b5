package collector

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"FuturesSentinel/internal/model"
)

// RateLimited admits Fetch calls to the wrapped source through a token
// bucket shared by all callers.
type RateLimited struct {
	src     BarSource
	limiter *rate.Limiter
}

// NewRateLimited allows rps fetches per second with the given burst. A
// non-positive rps disables limiting.
func NewRateLimited(src BarSource, rps float64, burst int) *RateLimited {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{src: src, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) Name() string { return r.src.Name() }

// Fetch waits for a token, giving up when ctx ends first.
func (r *RateLimited) Fetch(ctx context.Context, symbol string, freq model.Frequency, asOf time.Time) ([]model.Bar, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// the limiter refuses waits that would outlive the deadline
		return nil, fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return r.src.Fetch(ctx, symbol, freq, asOf)
}

// Ping forwards to the wrapped source when it supports it.
func (r *RateLimited) Ping(ctx context.Context) error {
	if p, ok := r.src.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
