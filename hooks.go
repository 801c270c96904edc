package fincache

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The client calls them while holding per-resource locks.
type Hooks interface {
	// A fetch was not started.
	// reason ∈ {"in_flight", "fresh"}
	FetchSkipped(key Key, reason string)

	// A fetch result was discarded because the entry was invalidated or
	// reset while the request was in flight.
	StaleWriteDropped(key Key)

	// An operation failed; kind is the classified failure.
	Failed(op string, key Key, kind ErrorKind)

	// The store deleted an entry it could not read.
	// reason ∈ {"corrupt", "gen_mismatch", "value_decode"}
	SelfHeal(key Key, reason string)

	// Provider returned ok=false on Set (backpressure/eviction).
	ProviderSetRejected(key Key)

	// A record was removed from a cached list ahead of the delete request.
	OptimisticRemoved(key Key, id int64)

	// A failed delete put the optimistically removed record back.
	DeleteRolledBack(key Key, id int64)

	// An auth failure cleared the credential and every cache entry.
	SessionInvalidated(op string, key Key)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) FetchSkipped(Key, string)       {}
func (NopHooks) StaleWriteDropped(Key)          {}
func (NopHooks) Failed(string, Key, ErrorKind)  {}
func (NopHooks) SelfHeal(Key, string)           {}
func (NopHooks) ProviderSetRejected(Key)        {}
func (NopHooks) OptimisticRemoved(Key, int64)   {}
func (NopHooks) DeleteRolledBack(Key, int64)    {}
func (NopHooks) SessionInvalidated(string, Key) {}
