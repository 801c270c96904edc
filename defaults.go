package fincache

import "time"

const (
	// DefaultStaleTime is how long a transaction list stays fresh.
	DefaultStaleTime = 60 * time.Second
	DefaultNamespace = "fincache"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
