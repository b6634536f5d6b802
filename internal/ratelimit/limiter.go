// Package ratelimit provides per-license request rate limiting using a
// fixed-window counter. Each license key gets a rolling (count, window start)
// entry; the HTTP middleware enforces the ceiling and sets standard rate
// limit response headers. A Redis-backed implementation is available for
// multi-instance deployments.
package ratelimit

import "time"

// Limiter defines the rate limiting contract. Implementations must be safe
// for concurrent use.
type Limiter interface {
	// Allow checks whether a request identified by key should be allowed.
	// Returns whether the request is allowed and rate information for
	// populating response headers.
	Allow(key string) (allowed bool, info Info)

	// Close stops background goroutines and releases resources.
	Close()
}

// Info contains rate limit state for populating response headers.
type Info struct {
	Limit      int           // Maximum requests per window
	Remaining  int           // Requests left in the current window
	ResetAt    time.Time     // When the current window ends
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}
