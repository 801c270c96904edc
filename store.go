package fincache

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	c "github.com/unkn0wn-root/fincache/codec"
	gen "github.com/unkn0wn-root/fincache/genstore"
	"github.com/unkn0wn-root/fincache/internal/wire"
	pr "github.com/unkn0wn-root/fincache/provider"
)

// Entry is a snapshot of one resource's cache state. Data is a private copy
// decoded from the provider; mutating it does not touch the cache.
type Entry[V any] struct {
	Data      V
	HasData   bool      // false until the first successful fetch (or after Reset)
	FetchedAt time.Time // zero when never fetched or invalidated
	Loading   bool
	Loaded    bool
}

// Store holds the cache entry for a single resource key. Payload and
// metadata live in the provider; the generation lives in the GenStore.
type Store[V any] struct {
	key        Key
	storageKey string
	provider   pr.Provider
	codec      c.Codec[V]
	gens       gen.GenStore
	clock      clockwork.Clock
	log        Logger
	hooks      Hooks

	// serializes read-modify-write sequences on this entry
	mu sync.Mutex
}

type storeDeps struct {
	ns       string
	provider pr.Provider
	gens     gen.GenStore
	clock    clockwork.Clock
	log      Logger
	hooks    Hooks
}

func newStore[V any](key Key, codec c.Codec[V], d storeDeps) *Store[V] {
	return &Store[V]{
		key:        key,
		storageKey: storageKey(d.ns, key),
		provider:   d.provider,
		codec:      codec,
		gens:       d.gens,
		clock:      d.clock,
		log:        d.log,
		hooks:      d.hooks,
	}
}

func storageKey(ns string, key Key) string {
	return "entry:" + ns + ":" + string(key)
}

func (s *Store[V]) Key() Key { return s.key }

// Get never fails: a missing, corrupt or undecodable entry reads as empty.
func (s *Store[V]) Get(ctx context.Context) Entry[V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, _ := s.read(ctx)
	return e
}

// SnapshotGen returns the generation a fetch must observe to write back.
func (s *Store[V]) SnapshotGen() uint64 {
	return s.gens.Snapshot(s.storageKey)
}

// Set replaces the data and marks the entry loaded and fetched now.
func (s *Store[V]) Set(ctx context.Context, v V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, v, true, true, s.clock.Now(), s.gens.Snapshot(s.storageKey))
}

// SetWithGen is Set guarded by a generation observed before the fetch began.
// If the entry was invalidated or reset since, the write is skipped and
// applied is false.
func (s *Store[V]) SetWithGen(ctx context.Context, v V, observedGen uint64) (applied bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.gens.Snapshot(s.storageKey)
	if cur != observedGen {
		s.log.Debug("fetch write skipped (gen mismatch)", Fields{"key": s.key, "obs": observedGen, "gen": cur})
		return false, nil
	}
	if err := s.write(ctx, v, true, true, s.clock.Now(), cur); err != nil {
		return false, err
	}
	return true, nil
}

// Invalidate marks the entry not loaded and forgets when it was fetched, but
// keeps the data so consumers can keep rendering it until a refetch lands.
func (s *Store[V]) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.read(ctx)
	newGen := s.gens.Bump(s.storageKey)
	s.log.Debug("invalidated entry", Fields{"key": s.key, "newGen": newGen})
	if !ok || !old.HasData {
		return s.del(ctx)
	}
	return s.write(ctx, old.Data, true, false, time.Time{}, newGen)
}

// OptimisticUpdate replaces the data with fn(data) without touching
// FetchedAt or Loaded. It is a no-op when the entry holds no data.
func (s *Store[V]) OptimisticUpdate(ctx context.Context, fn func(V) V) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(ctx, fn)
}

// Reset drops the entry entirely. Fetches that started before Reset can no
// longer write back.
func (s *Store[V]) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens.Bump(s.storageKey)
	return s.del(ctx)
}

// update must be called with s.mu held.
func (s *Store[V]) update(ctx context.Context, fn func(V) V) (bool, error) {
	old, ok := s.read(ctx)
	if !ok || !old.HasData {
		return false, nil
	}
	return true, s.write(ctx, fn(old.Data), true, old.Loaded, old.FetchedAt, s.gens.Snapshot(s.storageKey))
}

// read must be called with s.mu held. ok is false on a miss.
func (s *Store[V]) read(ctx context.Context) (Entry[V], bool) {
	var zero Entry[V]
	raw, ok, err := s.provider.Get(ctx, s.storageKey)
	if err != nil {
		s.log.Warn("provider get failed", Fields{"key": s.key, "err": err})
		return zero, false
	}
	if !ok {
		return zero, false
	}
	fr, err := wire.Decode(raw)
	if err != nil {
		s.heal(ctx, "corrupt")
		return zero, false
	}
	if fr.Gen != s.gens.Snapshot(s.storageKey) {
		s.heal(ctx, "gen_mismatch")
		return zero, false
	}
	e := Entry[V]{HasData: fr.HasData, Loaded: fr.Loaded}
	if fr.FetchedAt != 0 {
		e.FetchedAt = time.Unix(0, fr.FetchedAt)
	}
	if fr.HasData {
		v, err := s.codec.Decode(fr.Payload)
		if err != nil {
			s.heal(ctx, "value_decode")
			return zero, false
		}
		e.Data = v
	}
	return e, true
}

func (s *Store[V]) write(ctx context.Context, v V, hasData, loaded bool, fetchedAt time.Time, g uint64) error {
	fr := wire.Entry{Gen: g, Loaded: loaded, HasData: hasData}
	if !fetchedAt.IsZero() {
		fr.FetchedAt = fetchedAt.UnixNano()
	}
	if hasData {
		payload, err := s.codec.Encode(v)
		if err != nil {
			return err
		}
		fr.Payload = payload
	}
	b := wire.Encode(fr)
	ok, err := s.provider.Set(ctx, s.storageKey, b, int64(len(b)), 0)
	if err != nil {
		return err
	}
	if !ok {
		// the entry is now a miss and will be refetched
		s.log.Debug("entry write rejected by provider", Fields{"key": s.key, "bytes": len(b)})
		s.hooks.ProviderSetRejected(s.key)
		_ = s.provider.Del(ctx, s.storageKey)
	}
	return nil
}

func (s *Store[V]) del(ctx context.Context) error {
	return s.provider.Del(ctx, s.storageKey)
}

func (s *Store[V]) heal(ctx context.Context, reason string) {
	_ = s.provider.Del(ctx, s.storageKey)
	s.hooks.SelfHeal(s.key, reason)
}

type removedItem[E any] struct {
	index int
	item  E
}

// OptimisticRemove deletes every list item matching pred and reports how many
// were removed. FetchedAt and Loaded are left as they were.
func OptimisticRemove[E any](ctx context.Context, s *Store[[]E], pred func(E) bool) (int, error) {
	removed, _, err := optimisticRemove(ctx, s, pred)
	return len(removed), err
}

// optimisticRemove also reports whether the entry held a list to search.
func optimisticRemove[E any](ctx context.Context, s *Store[[]E], pred func(E) bool) ([]removedItem[E], bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.read(ctx)
	if !ok || !old.HasData {
		return nil, false, nil
	}
	var removed []removedItem[E]
	kept := make([]E, 0, len(old.Data))
	for i, it := range old.Data {
		if pred(it) {
			removed = append(removed, removedItem[E]{index: i, item: it})
			continue
		}
		kept = append(kept, it)
	}
	if len(removed) == 0 {
		return nil, true, nil
	}
	err := s.write(ctx, kept, true, old.Loaded, old.FetchedAt, s.gens.Snapshot(s.storageKey))
	return removed, true, err
}

// optimisticRestore puts removed items back at their old positions unless an
// equal item is already present (a refetch landed in between).
func optimisticRestore[E any](ctx context.Context, s *Store[[]E], items []removedItem[E], same func(a, b E) bool) error {
	if len(items) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.update(ctx, func(cur []E) []E {
		for _, r := range items {
			present := false
			for _, it := range cur {
				if same(it, r.item) {
					present = true
					break
				}
			}
			if present {
				continue
			}
			at := r.index
			if at > len(cur) {
				at = len(cur)
			}
			cur = append(cur, r.item)
			copy(cur[at+1:], cur[at:])
			cur[at] = r.item
		}
		return cur
	})
	return err
}
