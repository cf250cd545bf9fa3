// Package ratelimit bounds inbound request rates per client and route.
package ratelimit

import (
	"sync"
	"time"
)

// Result reports the outcome of one admission decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter admits or rejects a request identified by key. Implementations
// backed by a shared counter store make the limit exact across processes;
// the in-process default is approximate under multi-process deployment.
type Limiter interface {
	Allow(key string) Result
}

type window struct {
	count   int
	resetAt time.Time
}

// FixedWindow is a mutex-guarded in-process fixed-window limiter.
type FixedWindow struct {
	mu       sync.Mutex
	windows  map[string]*window
	max      int
	interval time.Duration
	now      func() time.Time
}

// NewFixedWindow creates a limiter admitting max requests per key per
// interval.
func NewFixedWindow(max int, interval time.Duration) *FixedWindow {
	return &FixedWindow{
		windows:  make(map[string]*window),
		max:      max,
		interval: interval,
		now:      time.Now,
	}
}

// Allow counts a request against the key's current window, opening a new
// window when the previous one has elapsed.
func (l *FixedWindow) Allow(key string) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	w, ok := l.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &window{count: 1, resetAt: now.Add(l.interval)}
		l.windows[key] = w
		return Result{Allowed: true, Limit: l.max, Remaining: l.max - 1, ResetAt: w.resetAt}
	}

	if w.count >= l.max {
		return Result{Allowed: false, Limit: l.max, Remaining: 0, ResetAt: w.resetAt}
	}

	w.count++
	return Result{Allowed: true, Limit: l.max, Remaining: l.max - w.count, ResetAt: w.resetAt}
}
