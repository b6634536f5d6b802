package ratelimit

import (
	"sync"
	"time"
)

// entry is the per-key window state: how many requests have been counted
// since windowStart. At most one entry exists per key.
type entry struct {
	count       int
	windowStart time.Time
}

// MemoryLimiter is an in-memory fixed-window rate limiter. The first request
// for a key opens a window; requests within the window increment the counter
// and are denied once it reaches the limit; the first request after the
// window has elapsed resets the entry in place.
//
// When sweepInterval is positive a background goroutine periodically deletes
// entries whose window has fully elapsed. With sweepInterval zero entries
// are never removed, only reset in place, so the map grows with the number
// of distinct keys seen.
type MemoryLimiter struct {
	limit         int
	window        time.Duration
	sweepInterval time.Duration

	mu      sync.Mutex
	entries map[string]*entry
	done    chan struct{}
	closed  bool
}

// NewMemoryLimiter creates a fixed-window limiter allowing limit requests per
// window. A positive sweepInterval starts the background eviction goroutine.
func NewMemoryLimiter(limit int, window, sweepInterval time.Duration) *MemoryLimiter {
	m := &MemoryLimiter{
		limit:         limit,
		window:        window,
		sweepInterval: sweepInterval,
		entries:       make(map[string]*entry),
		done:          make(chan struct{}),
	}
	if sweepInterval > 0 {
		go m.sweep()
	}
	return m
}

// Allow checks whether a request from the given key should be allowed.
// Map access is serialized so concurrent requests cannot both pass the
// boundary check.
func (m *MemoryLimiter) Allow(key string) (bool, Info) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.entries[key]
	if !exists || now.Sub(e.windowStart) >= m.window {
		m.entries[key] = &entry{count: 1, windowStart: now}
		return true, Info{
			Limit:     m.limit,
			Remaining: m.limit - 1,
			ResetAt:   now.Add(m.window),
		}
	}

	resetAt := e.windowStart.Add(m.window)

	if e.count >= m.limit {
		return false, Info{
			Limit:      m.limit,
			Remaining:  0,
			ResetAt:    resetAt,
			RetryAfter: resetAt.Sub(now),
		}
	}

	e.count++
	return true, Info{
		Limit:     m.limit,
		Remaining: m.limit - e.count,
		ResetAt:   resetAt,
	}
}

// Close stops the background sweep goroutine.
func (m *MemoryLimiter) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.done)
	}
}

// sweep periodically evicts entries whose window has fully elapsed.
func (m *MemoryLimiter) sweep() {
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictStale()
		}
	}
}

// evictStale removes entries whose window ended before now.
func (m *MemoryLimiter) evictStale() {
	now := time.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, e := range m.entries {
		if now.Sub(e.windowStart) >= m.window {
			delete(m.entries, key)
		}
	}
}
