package fincache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// LoadFunc reads one resource from the backend.
type LoadFunc[V any] func(ctx context.Context) (V, error)

// FetchOption tunes a single FetchIfNeeded call.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	force bool
}

// Force fetches even when the entry is fresh. If a fetch is already in
// flight, one more fetch runs after it completes.
func Force() FetchOption {
	return func(o *fetchOptions) { o.force = true }
}

// Fetcher decides when a resource is read from the backend and owns its
// in-flight flag.
type Fetcher[V any] struct {
	store *Store[V]
	load  LoadFunc[V]
	clock clockwork.Clock
	hooks Hooks
	log   Logger

	// 0 means fresh until invalidated
	staleTime time.Duration

	// called with every classified failure, after the in-flight flag is cleared
	onFail func(context.Context, *Error) error

	mu       sync.Mutex
	inflight bool
	// a forced call arrived during the in-flight fetch
	rerun bool
}

func newFetcher[V any](s *Store[V], load LoadFunc[V], staleTime time.Duration, clock clockwork.Clock, log Logger, hooks Hooks) *Fetcher[V] {
	f := &Fetcher[V]{
		store:     s,
		load:      load,
		staleTime: staleTime,
		clock:     clock,
		log:       log,
		hooks:     hooks,
	}
	f.onFail = func(_ context.Context, e *Error) error {
		logFailure(f.log, e)
		f.hooks.Failed(e.Op, e.Key, e.Kind)
		return e
	}
	return f
}

func (f *Fetcher[V]) Store() *Store[V] { return f.store }

// Entry returns the cached entry with Loading reflecting an in-flight fetch.
func (f *Fetcher[V]) Entry(ctx context.Context) Entry[V] {
	e := f.store.Get(ctx)
	f.mu.Lock()
	e.Loading = f.inflight
	f.mu.Unlock()
	return e
}

// Loading reports whether a fetch is in flight.
func (f *Fetcher[V]) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inflight
}

// FetchIfNeeded reads the resource when it is missing, stale, invalidated or
// forced. While a fetch is in flight further calls return the current entry
// without a second request; a forced call instead queues one more fetch that
// the in-flight caller runs before returning. The returned entry reflects the
// cache after the call.
func (f *Fetcher[V]) FetchIfNeeded(ctx context.Context, opts ...FetchOption) (Entry[V], error) {
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}
	key := f.store.Key()

	f.mu.Lock()
	if f.inflight {
		if o.force {
			f.rerun = true
		}
		f.mu.Unlock()
		f.hooks.FetchSkipped(key, "in_flight")
		return f.Entry(ctx), nil
	}
	cur := f.store.Get(ctx)
	if !o.force && f.fresh(cur) {
		f.mu.Unlock()
		f.hooks.FetchSkipped(key, "fresh")
		return cur, nil
	}
	f.inflight = true
	obs := f.store.SnapshotGen()
	f.mu.Unlock()

	for {
		v, err := f.run(ctx)

		f.mu.Lock()
		if err == nil {
			var applied bool
			applied, err = f.store.SetWithGen(ctx, v, obs)
			if err == nil && !applied {
				f.hooks.StaleWriteDropped(key)
			}
		}
		again := f.rerun && err == nil && ctx.Err() == nil
		f.rerun = false
		if !again {
			f.inflight = false
			f.mu.Unlock()
			if err != nil {
				return f.store.Get(ctx), f.onFail(ctx, wrapErr(OpFetch, key, err))
			}
			f.log.Debug("fetched", Fields{"key": key})
			return f.store.Get(ctx), nil
		}
		obs = f.store.SnapshotGen()
		f.mu.Unlock()
		f.log.Debug("refetching after forced request", Fields{"key": key})
	}
}

// run calls load and turns a panic into a transient error so the in-flight
// flag is always cleared.
func (f *Fetcher[V]) run(ctx context.Context) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Op: OpFetch, Key: f.store.Key(), Kind: KindTransient, Message: "load panicked"}
			f.log.Error("load panicked", Fields{"key": f.store.Key(), "panic": r})
		}
	}()
	return f.load(ctx)
}

func (f *Fetcher[V]) fresh(e Entry[V]) bool {
	if !e.Loaded {
		return false
	}
	if f.staleTime <= 0 {
		return true
	}
	if e.FetchedAt.IsZero() {
		return false
	}
	return f.clock.Since(e.FetchedAt) <= f.staleTime
}
