// Package ratelimit throttles repeated attempts per key over a sliding
// window, used to slow down password guessing.
package ratelimit

import (
	"sync"
	"time"
)

type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Attempts keeps the timestamps of recent attempts per key.
type Attempts struct {
	limit  int
	window time.Duration

	mu   sync.Mutex
	seen map[string][]time.Time
}

// NewAttempts allows limit attempts per key within window. A limit of zero
// or less disables throttling.
func NewAttempts(limit int, window time.Duration) *Attempts {
	return &Attempts{limit: limit, window: window, seen: map[string][]time.Time{}}
}

// Hit records an attempt for key unless the key is already over its limit.
func (a *Attempts) Hit(key string, now time.Time) Result {
	if a.limit <= 0 {
		return Result{Allowed: true}
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	recent := a.recent(key, now)
	if len(recent) >= a.limit {
		a.seen[key] = recent
		return Result{Limit: a.limit, ResetAt: recent[0].Add(a.window)}
	}
	recent = append(recent, now)
	a.seen[key] = recent
	return Result{
		Allowed:   true,
		Limit:     a.limit,
		Remaining: a.limit - len(recent),
		ResetAt:   recent[0].Add(a.window),
	}
}

// Reset forgets key, typically after a successful login.
func (a *Attempts) Reset(key string) {
	a.mu.Lock()
	delete(a.seen, key)
	a.mu.Unlock()
}

func (a *Attempts) recent(key string, now time.Time) []time.Time {
	cutoff := now.Add(-a.window)
	history := a.seen[key]
	kept := history[:0]
	for _, ts := range history {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) == 0 {
		delete(a.seen, key)
		return nil
	}
	return kept
}
