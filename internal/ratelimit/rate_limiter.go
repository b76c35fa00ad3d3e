// rate_limiter.go - Rate limiting to keep completion calls under provider limits

package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket shared by every outgoing completion call
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter allowing perMinute requests per minute.
// burst caps how many captures may go out back to back after an idle period.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst <= 0 {
		burst = 1
	}
	interval := time.Minute / time.Duration(perMinute)
	return &RateLimiter{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

// Wait blocks until a token is available or ctx is done
func (rl *RateLimiter) Wait(ctx context.Context) error {
	return rl.limiter.Wait(ctx)
}

// Allow reports whether a request may go out right now without waiting
func (rl *RateLimiter) Allow() bool {
	return rl.limiter.Allow()
}

var (
	globalMu          sync.RWMutex
	globalRateLimiter = NewRateLimiter(30, 5)
)

// Configure replaces the process-wide limiter. Called once at startup.
func Configure(perMinute int) {
	burst := perMinute / 6
	if burst < 1 {
		burst = 1
	}
	globalMu.Lock()
	globalRateLimiter = NewRateLimiter(perMinute, burst)
	globalMu.Unlock()
}

// WaitForRateLimit waits on the process-wide limiter
func WaitForRateLimit(ctx context.Context) error {
	globalMu.RLock()
	rl := globalRateLimiter
	globalMu.RUnlock()
	return rl.Wait(ctx)
}

// Global returns the process-wide limiter
func Global() *RateLimiter {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalRateLimiter
}
