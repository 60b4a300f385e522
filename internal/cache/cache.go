// Package cache defines the advisory key-value cache in front of the product
// store. Callers treat every error from it, including ErrMiss, as a miss:
// the store stays the source of truth and a broken cache only costs latency.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is the expiry applied to every entry the catalog writes.
const DefaultTTL = 300 * time.Second

// ErrMiss is returned when a key does not exist or has expired.
var ErrMiss = errors.New("cache: miss")

// Cache abstracts a string-keyed byte cache with TTLs and pattern deletes.
// All operations are safe for concurrent use.
type Cache interface {
	// Get returns ErrMiss if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero TTL means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// DeleteMatching removes every key matching a glob pattern
	// (`*` any run, `?` one byte, `\` escapes). A pattern without
	// metacharacters removes exactly that key.
	DeleteMatching(ctx context.Context, pattern string) error

	// Ping verifies connectivity to the backend.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// IsMiss reports whether err means the key was simply absent.
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}

// hasMeta reports whether pattern contains glob metacharacters.
func hasMeta(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?', '\\':
			return true
		}
	}
	return false
}

// Match reports whether key matches the glob pattern, using the same
// `*`, `?` and `\` rules as Redis SCAN MATCH.
func Match(pattern, key string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if pattern == "" {
				return true
			}
			for i := 0; i <= len(key); i++ {
				if Match(pattern, key[i:]) {
					return true
				}
			}
			return false
		case '?':
			if key == "" {
				return false
			}
			pattern, key = pattern[1:], key[1:]
		case '\\':
			if len(pattern) > 1 {
				pattern = pattern[1:]
			}
			fallthrough
		default:
			if key == "" || pattern[0] != key[0] {
				return false
			}
			pattern, key = pattern[1:], key[1:]
		}
	}
	return key == ""
}
