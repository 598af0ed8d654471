package notion

import (
	"context"
	"sync"
	"time"
)

// ReservoirLimiter implements the reservoir rate-limit discipline the
// upstream expects: a fixed pool of tokens shared by every caller, refilled
// back to capacity as a whole once per interval. This differs from a
// per-token drip: a burst of `capacity` calls is fine at the start of each
// interval, and nothing is allowed after the pool drains until the next
// refill tick.
type ReservoirLimiter struct {
	mu         sync.Mutex
	tokens     int
	capacity   int
	interval   time.Duration
	lastRefill time.Time
	disabled   bool
}

// NewReservoirLimiter creates a limiter with a full reservoir.
func NewReservoirLimiter(capacity int, interval time.Duration) *ReservoirLimiter {
	if capacity < 1 {
		capacity = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &ReservoirLimiter{
		tokens:     capacity,
		capacity:   capacity,
		interval:   interval,
		lastRefill: time.Now(),
	}
}

// NewDisabledLimiter returns a limiter whose Acquire never blocks. Used in
// tests and when the rate-limit feature flag is off.
func NewDisabledLimiter() *ReservoirLimiter {
	l := NewReservoirLimiter(1, time.Second)
	l.disabled = true
	return l
}

// Acquire consumes one token, blocking until a refill or until ctx is done.
func (l *ReservoirLimiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.disabled {
			l.mu.Unlock()
			return nil
		}
		now := time.Now()
		l.refillLocked(now)
		if l.tokens > 0 {
			l.tokens--
			l.mu.Unlock()
			return nil
		}
		wait := l.lastRefill.Add(l.interval).Sub(now)
		l.mu.Unlock()

		if wait <= 0 {
			// Refill is due; loop to re-check rather than sleeping.
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Available reports the current token count after any due refill.
func (l *ReservoirLimiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refillLocked(time.Now())
	return l.tokens
}

// refillLocked tops the reservoir back up if at least one interval has
// elapsed. Multiple missed intervals still yield a single full reservoir;
// tokens do not accumulate beyond capacity.
func (l *ReservoirLimiter) refillLocked(now time.Time) {
	elapsed := now.Sub(l.lastRefill)
	if elapsed < l.interval {
		return
	}
	l.tokens = l.capacity
	l.lastRefill = l.lastRefill.Add(elapsed - elapsed%l.interval)
}
