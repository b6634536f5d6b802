// Package license implements the license gate: validation of caller-supplied
// license keys against a fixed allow-list, plus the HTTP middleware that
// enforces it. Keys have no expiry, scopes, or revocation beyond process
// restart.
package license

import (
	"context"
	"strings"
)

// Header is the request header carrying the caller's license key.
const Header = "X-License-Key"

// Validator checks license keys against a fixed allow-list.
// It is immutable after construction and safe for concurrent use.
type Validator struct {
	keys map[string]struct{}
}

// NewValidator builds a validator from the configured allow-list.
// Keys are trimmed; empty entries are ignored.
func NewValidator(keys []string) *Validator {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return &Validator{keys: set}
}

// Validate reports whether the key is non-empty and present in the allow-list.
// Pure check, no side effects.
func (v *Validator) Validate(key string) bool {
	if key == "" {
		return false
	}
	_, ok := v.keys[key]
	return ok
}

type contextKey struct{}

// NewContext returns a context carrying the validated license key.
func NewContext(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, contextKey{}, key)
}

// FromContext extracts the validated license key set by the middleware.
func FromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(contextKey{}).(string)
	return key, ok
}
