// Package fincache is the client-side data layer of a personal-finance app.
// It caches four backend resources (dashboard, categories, incomes, expenses)
// with stale-while-revalidate freshness, at most one fetch in flight per
// resource, optimistic deletes and cross-resource invalidation after writes.
//
// Components:
//   - Store[V]: one resource's entry. Bytes live in a Provider (Ristretto or
//     BigCache), framed with a generation and serialized by a Codec[V].
//   - Fetcher[V]: fetch-if-needed with TTL and in-flight de-duplication.
//   - Client: wires the four resources to a Backend and runs mutations.
//   - series: pure per-day aggregation for charts.
//
// Keys:
//
//	entry:<ns>:<resource>  - one frame per resource
//
// Write guard:
//
//	obs := store.SnapshotGen()    // before the request
//	v, _ := backend.List(ctx)
//	store.SetWithGen(ctx, v, obs) // dropped if invalidated or reset meanwhile
//
// Every failure is an *Error classified as transient, validation or
// auth-invalid. Auth failures clear the credential and reset the cache.
package fincache
