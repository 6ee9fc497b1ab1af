// Package ratelimit implements a fixed-window attempt counter keyed by an
// arbitrary identifier (normally the client IP). State lives in process
// memory and resets on restart; it is advisory throttling, not a security
// boundary.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts attempts per key within a rolling fixed window.
type Limiter struct {
	mu          sync.Mutex
	maxAttempts int
	window      time.Duration
	attempts    map[string][]time.Time
	lastSweep   time.Time
	now         func() time.Time
}

func New(maxAttempts int, window time.Duration) *Limiter {
	return &Limiter{
		maxAttempts: maxAttempts,
		window:      window,
		attempts:    make(map[string][]time.Time),
		now:         time.Now,
	}
}

// Allow records an attempt for key and reports whether it is within the
// limit. Attempts older than the window are discarded first.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	// once per window, drop keys whose attempts have all aged out, so
	// idle clients don't accumulate map entries until restart
	if now.Sub(l.lastSweep) > l.window {
		for k, ats := range l.attempts {
			if len(ats) == 0 || !ats[len(ats)-1].After(cutoff) {
				delete(l.attempts, k)
			}
		}
		l.lastSweep = now
	}

	kept := l.attempts[key][:0]
	for _, at := range l.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) >= l.maxAttempts {
		l.attempts[key] = kept
		return false
	}
	l.attempts[key] = append(kept, now)
	return true
}

// Reset clears recorded attempts for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.attempts, key)
}
