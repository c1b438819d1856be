package handlers

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter provides thread-safe rate limiting shared by the inbound
// webhook endpoints
type RateLimiter struct {
	limiter *rate.Limiter
	mu      sync.Mutex
}

// NewRateLimiter creates a token bucket refilled at requestsPerSecond
func NewRateLimiter(requestsPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Allow reports whether a request may proceed now
func (rl *RateLimiter) Allow() bool {
	if rl == nil {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.limiter.Allow()
}
