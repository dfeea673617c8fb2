package papersources

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Scheduler gates outbound requests to one external API. Adapters call Wait
// before each request instead of sleeping inline.
type Scheduler interface {
	Wait(ctx context.Context) error
}

// RateLimiter is a token bucket Scheduler. It is safe for concurrent use
// because the underlying rate.Limiter is goroutine-safe for all operations.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a token bucket admitting ratePerSecond requests per
// second with the given burst. A non-positive rate disables limiting.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	if ratePerSecond <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

// NewIntervalScheduler returns a RateLimiter that admits one request per
// interval, with no burst beyond the first request.
//
// PubMed spaces its summary requests with NewIntervalScheduler(300 * time.Millisecond).
func NewIntervalScheduler(interval time.Duration) *RateLimiter {
	if interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until a request is allowed or the context is canceled.
// It returns an error if the context is canceled or the deadline is exceeded.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// immediate is a Scheduler that never waits.
type immediate struct{}

// Immediate returns a Scheduler that only checks for context cancellation.
// Tests use it to exercise adapters without real delays.
func Immediate() Scheduler {
	return immediate{}
}

func (immediate) Wait(ctx context.Context) error {
	return ctx.Err()
}
