package ratelimit

import (
	"sync"
	"time"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow checks if a request is allowed under the current rate limit
	Allow() bool
	// Wait blocks until the rate limit allows another request
	Wait()
	// Reset resets the rate limiter state
	Reset()
}

// FixedInterval enforces a minimum spacing between consecutive calls. It is
// the outbound politeness delay applied before each profile request.
type FixedInterval struct {
	interval time.Duration
	lastCall time.Time
	sleep    func(time.Duration)
	now      func() time.Time
	mu       sync.Mutex
}

// NewFixedInterval creates a limiter spacing calls at least interval apart
func NewFixedInterval(interval time.Duration) *FixedInterval {
	return &FixedInterval{
		interval: interval,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// Allow reports whether enough time has passed since the last call, and
// records the call when it has.
func (f *FixedInterval) Allow() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	if f.lastCall.IsZero() || now.Sub(f.lastCall) >= f.interval {
		f.lastCall = now
		return true
	}
	return false
}

// Wait sleeps for the full interval and records the call. Every outbound
// request pays the delay, matching the fixed pre-call pause the upstream
// expects from polite clients.
func (f *FixedInterval) Wait() {
	if f.interval > 0 {
		f.sleep(f.interval)
	}

	f.mu.Lock()
	f.lastCall = f.now()
	f.mu.Unlock()
}

// Reset clears the last-call marker
func (f *FixedInterval) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastCall = time.Time{}
}

// TokenBucket implements a token bucket rate limiter used to cap overall
// requests per refill period against the profile source.
type TokenBucket struct {
	capacity     int           // Maximum number of tokens
	tokens       int           // Current number of tokens
	refillPeriod time.Duration // Period after which bucket is refilled
	lastRefill   time.Time     // Last time the bucket was refilled
	mu           sync.Mutex
}

// NewTokenBucket creates a new token bucket rate limiter
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait() {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill > 0 {
			time.Sleep(timeUntilRefill)
		} else {
			// Small sleep to prevent busy waiting
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refill adds tokens based on elapsed time
func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}
