// Package ratelimit throttles per-connection command throughput. Grounded
// on ws/internal/single/limits/rate_limiter.go's RateLimiter (one bucket per
// client, sync.Map keyed by client id, LoadOrStore to create lazily, cleanup
// on disconnect) but built on golang.org/x/time/rate.Limiter instead of the
// teacher's hand-rolled TokenBucket, since the pack's own module graph
// already depends on golang.org/x/time and a command-rate limiter is the
// same token-bucket concern the teacher solved for WebSocket messages.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter manages one token bucket per connection id.
type Limiter struct {
	burst float64
	rps   float64

	mu      sync.Mutex
	buckets map[string]*rate.Limiter
}

// New creates a limiter allowing an instantaneous burst of burst commands
// and a sustained rate of rps commands/second thereafter per connection.
func New(rps float64, burst int) *Limiter {
	return &Limiter{
		burst:   float64(burst),
		rps:     rps,
		buckets: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether connID may execute one more command right now.
func (l *Limiter) Allow(connID string) bool {
	l.mu.Lock()
	b, ok := l.buckets[connID]
	if !ok {
		b = rate.NewLimiter(rate.Limit(l.rps), int(l.burst))
		l.buckets[connID] = b
	}
	l.mu.Unlock()
	return b.Allow()
}

// Remove drops connID's bucket on disconnect, matching the teacher's
// RemoveClient cleanup called from readPump's defer.
func (l *Limiter) Remove(connID string) {
	l.mu.Lock()
	delete(l.buckets, connID)
	l.mu.Unlock()
}
