// Package ratelimit provides a fixed-window per-device request limiter.
// Counters reset at fixed window boundaries rather than sliding continuously.
// State is instance-local; there is no coordination across gateway instances.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultLimit is the number of requests admitted per device per window.
	DefaultLimit = 60

	// DefaultWindow is the fixed window length.
	DefaultWindow = 60 * time.Second
)

// windowState tracks one device's current window.
type windowState struct {
	count   int
	resetAt time.Time
}

// Limiter admits up to limit requests per device within a fixed window.
// The read-modify-write of a device's window is atomic under the mutex, so
// two concurrent requests for the same device can never both be admitted
// past the limit boundary.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*windowState
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewLimiter creates a limiter with the given per-window limit and window
// length. Non-positive values fall back to the defaults.
func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		windows: make(map[string]*windowState),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Allow records a request for the device and reports whether it is admitted.
// A missing or elapsed window starts a new one with count 1.
func (l *Limiter) Allow(deviceID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state, ok := l.windows[deviceID]
	if !ok || now.After(state.resetAt) {
		l.windows[deviceID] = &windowState{count: 1, resetAt: now.Add(l.window)}
		return true
	}

	if state.count < l.limit {
		state.count++
		return true
	}

	return false
}

// Remaining reports how many requests the device may still issue in the
// current window. A device without a live window has the full limit left.
func (l *Limiter) Remaining(deviceID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.windows[deviceID]
	if !ok || l.now().After(state.resetAt) {
		return l.limit
	}

	remaining := l.limit - state.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ResetAt reports when the device's current window ends. A device without a
// live window resets now.
func (l *Limiter) ResetAt(deviceID string) time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	if state, ok := l.windows[deviceID]; ok {
		return state.resetAt
	}
	return l.now()
}

// CleanupStale periodically drops entries whose window elapsed, preventing
// unbounded growth from device churn. Blocks until ctx is cancelled; run it
// on its own goroutine.
func (l *Limiter) CleanupStale(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for deviceID, state := range l.windows {
				if now.After(state.resetAt) {
					delete(l.windows, deviceID)
				}
			}
			l.mu.Unlock()
		}
	}
}
