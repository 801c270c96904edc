// Package genstore tracks per-key generations for the resource cache.
//
// A key's generation moves on every invalidation or reset. A fetch records the
// generation when it starts and may write its result back only while the
// generation is unchanged, so a response that raced an invalidation or a
// logout is dropped instead of resurrecting stale data.
package genstore

// GenStore abstracts where generations live.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(key string) uint64
	// Bump increments and returns the new generation.
	Bump(key string) uint64
}
