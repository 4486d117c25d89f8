package ipc

import (
	"sync"
	"time"
)

// RateLimiter caps requests across all clients with a sliding window. The
// endpoint only admits the owning user, so there is no peer identity worth
// keying on.
type RateLimiter struct {
	maxAttempts int
	window      time.Duration
	now         func() time.Time

	mu       sync.Mutex
	attempts []time.Time
}

// NewRateLimiter creates a limiter allowing maxAttempts per window.
func NewRateLimiter(maxAttempts int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// Allow records an attempt and reports whether it fits in the window.
// Rejected attempts are not recorded.
func (r *RateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)

	i := 0
	for i < len(r.attempts) && !r.attempts[i].After(cutoff) {
		i++
	}
	r.attempts = r.attempts[i:]

	if len(r.attempts) >= r.maxAttempts {
		return false
	}
	r.attempts = append(r.attempts, now)
	return true
}

// Reset clears all rate limit state.
func (r *RateLimiter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = nil
}
