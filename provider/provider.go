// Package provider defines the byte store behind the resource cache.
//
// Implementations must be byte-for-byte transparent: Get returns exactly the
// bytes passed to Set for a key. The keyspace "entry:<ns>:" belongs to
// fincache; foreign writes under it are treated as corruption and deleted.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. It must be safe for concurrent
// use. A Set that returns ok=true must be visible to the next Get.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. ttl <= 0 means no expiry; freshness is tracked by the
	// cache itself, so fincache always passes 0.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	Close(ctx context.Context) error
}
