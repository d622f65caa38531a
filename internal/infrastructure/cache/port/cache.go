package port

import (
	"context"
	"time"
)

// Cache is the key-value contract used for read-through caching of
// immutable data such as conversation participant sets.
// Implementations must be concurrency-safe and honour ctx deadlines.
//
// Values are strings so that serialization stays with the caller.
type Cache interface {
	// Get returns ("", ErrMiss) when the key does not exist; other errors are
	// transport or server failures.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key. A non-positive ttl means no expiration.
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	Ping(ctx context.Context) error
	Close() error
}

// ErrMiss signals a cache miss, distinct from transport errors.
var ErrMiss = errMiss{}

type errMiss struct{}

func (e errMiss) Error() string { return "cache: miss" }
