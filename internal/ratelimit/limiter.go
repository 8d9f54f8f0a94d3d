// Package ratelimit implements the L1 token bucket rate limiter (§4.3):
// one bucket per key (host or caller-supplied), admission-gating
// outbound requests. Buckets are backed by golang.org/x/time/rate, and
// held in a bounded map with idle eviction, following the per-source
// bounded-map-with-eviction shape used for mDNS source rate limiting in
// the retrieval pack (onoffswitchrespiratorycenter178-beacon/internal/security/rate_limiter.go).
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultIdleEviction = 5 * time.Minute

// Error is returned when a key's bucket has no tokens available.
type Error struct {
	Key        string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return "rate limit exceeded for " + e.Key
}

type bucketEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter grants tokens per key from independent token buckets.
type Limiter struct {
	max           int
	window        time.Duration
	idleEviction  time.Duration
	mu            sync.Mutex
	buckets       map[string]*bucketEntry
	stopEvictor   chan struct{}
	evictorClosed bool
}

// New creates a Limiter with capacity max tokens refilled over window.
// A window/max of zero disables limiting (Acquire always succeeds).
func New(max int, window time.Duration) *Limiter {
	l := &Limiter{
		max:          max,
		window:       window,
		idleEviction: defaultIdleEviction,
		buckets:      make(map[string]*bucketEntry),
		stopEvictor:  make(chan struct{}),
	}

	if max > 0 && window > 0 {
		go l.runEvictor()
	}

	return l
}

// Acquire takes a token for key if one is available; otherwise it
// returns an *Error immediately, carrying the delay until the next
// token in RetryAfter. It never blocks; Wait is the blocking variant.
func (l *Limiter) Acquire(key string) error {
	if l.max <= 0 || l.window <= 0 {
		return nil
	}

	b := l.bucketFor(key)

	if !b.limiter.Allow() {
		reservation := b.limiter.Reserve()
		delay := reservation.Delay()
		reservation.Cancel()
		return &Error{Key: key, RetryAfter: delay}
	}

	return nil
}

// Wait blocks cooperatively (observing ctx cancellation) until a token
// for key becomes available. A pending wait that is cancelled before a
// token is granted does not consume one (§5).
func (l *Limiter) Wait(ctx context.Context, key string) error {
	if l.max <= 0 || l.window <= 0 {
		return nil
	}
	b := l.bucketFor(key)
	return b.limiter.Wait(ctx)
}

func (l *Limiter) bucketFor(key string) *bucketEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		refillPerSecond := float64(l.max) / l.window.Seconds()
		b = &bucketEntry{limiter: rate.NewLimiter(rate.Limit(refillPerSecond), l.max)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()

	return b
}

func (l *Limiter) runEvictor() {
	ticker := time.NewTicker(l.idleEviction / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.evictIdle()
		case <-l.stopEvictor:
			return
		}
	}
}

func (l *Limiter) evictIdle() {
	cutoff := time.Now().Add(-l.idleEviction)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Close stops the idle-eviction background goroutine.
func (l *Limiter) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.evictorClosed {
		close(l.stopEvictor)
		l.evictorClosed = true
	}
}
