package fincache

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	c "github.com/unkn0wn-root/fincache/codec"
	gen "github.com/unkn0wn-root/fincache/genstore"
	"github.com/unkn0wn-root/fincache/internal/wire"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

var t0 = time.Date(2024, time.January, 31, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store[[]item], *memProvider, clockwork.FakeClock, *hookRecorder) {
	t.Helper()
	mp := newMemProvider()
	clk := clockwork.NewFakeClockAt(t0)
	hr := &hookRecorder{}
	s := newStore[[]item](KeyIncomes, c.JSON[[]item]{}, storeDeps{
		ns:       "test",
		provider: mp,
		gens:     gen.NewLocal(),
		clock:    clk,
		log:      NopLogger{},
		hooks:    hr,
	})
	return s, mp, clk, hr
}

func ids(items []item) []int {
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestStoreLifecycle walks an entry through set, invalidate and reset.
func TestStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s, mp, clk, _ := newTestStore(t)

	if e := s.Get(ctx); e.Loaded || e.HasData || !e.FetchedAt.IsZero() || e.Data != nil {
		t.Fatalf("initial entry = %+v", e)
	}

	if err := s.Set(ctx, []item{{1, "a"}, {2, "b"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	e := s.Get(ctx)
	if !e.Loaded || !e.HasData || !e.FetchedAt.Equal(clk.Now()) {
		t.Fatalf("after Set = %+v", e)
	}
	if !sameInts(ids(e.Data), []int{1, 2}) {
		t.Fatalf("data = %v", ids(e.Data))
	}

	// Invalidate keeps data visible.
	if err := s.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	e = s.Get(ctx)
	if e.Loaded || !e.FetchedAt.IsZero() || !sameInts(ids(e.Data), []int{1, 2}) {
		t.Fatalf("after Invalidate = %+v", e)
	}

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if e := s.Get(ctx); e.HasData || e.Loaded {
		t.Fatalf("after Reset = %+v", e)
	}
	if _, ok, _ := mp.Get(ctx, storageKey("test", KeyIncomes)); ok {
		t.Fatalf("Reset left bytes in provider")
	}
}

func TestStoreSetWithGenSkipsAfterInvalidate(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestStore(t)

	obs := s.SnapshotGen()
	if err := s.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	applied, err := s.SetWithGen(ctx, []item{{1, "late"}}, obs)
	if err != nil || applied {
		t.Fatalf("stale SetWithGen applied=%v err=%v", applied, err)
	}
	if e := s.Get(ctx); e.HasData {
		t.Fatalf("stale write populated entry: %+v", e)
	}

	applied, err = s.SetWithGen(ctx, []item{{1, "fresh"}}, s.SnapshotGen())
	if err != nil || !applied {
		t.Fatalf("fresh SetWithGen applied=%v err=%v", applied, err)
	}
	if e := s.Get(ctx); !e.Loaded || e.Data[0].Name != "fresh" {
		t.Fatalf("entry = %+v", e)
	}
}

// TestOptimisticRemoveKeepsMetadata checks that only the data changes.
func TestOptimisticRemoveKeepsMetadata(t *testing.T) {
	ctx := context.Background()
	s, _, clk, _ := newTestStore(t)
	_ = s.Set(ctx, []item{{1, "a"}, {2, "b"}, {3, "c"}})
	fetched := clk.Now()
	clk.Advance(10 * time.Second)

	n, err := OptimisticRemove(ctx, s, func(it item) bool { return it.ID == 2 })
	if err != nil || n != 1 {
		t.Fatalf("OptimisticRemove = %d, %v", n, err)
	}
	e := s.Get(ctx)
	if !sameInts(ids(e.Data), []int{1, 3}) {
		t.Fatalf("data = %v", ids(e.Data))
	}
	if !e.Loaded || !e.FetchedAt.Equal(fetched) {
		t.Fatalf("metadata changed: %+v", e)
	}

	if n, _ := OptimisticRemove(ctx, s, func(it item) bool { return it.ID == 42 }); n != 0 {
		t.Fatalf("removing absent id removed %d", n)
	}
}

func TestOptimisticUpdateWithoutData(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestStore(t)
	called := false
	ok, err := s.OptimisticUpdate(ctx, func(v []item) []item { called = true; return v })
	if err != nil || ok || called {
		t.Fatalf("OptimisticUpdate on empty entry: ok=%v err=%v called=%v", ok, err, called)
	}
}

func TestOptimisticRestorePositions(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestStore(t)
	_ = s.Set(ctx, []item{{1, "a"}, {2, "b"}, {3, "c"}, {4, "d"}})

	removed, loaded, err := optimisticRemove(ctx, s, func(it item) bool { return it.ID == 2 || it.ID == 4 })
	if err != nil || !loaded || len(removed) != 2 {
		t.Fatalf("remove = %v, %v, %v", removed, loaded, err)
	}
	same := func(a, b item) bool { return a.ID == b.ID }
	if err := optimisticRestore(ctx, s, removed, same); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := ids(s.Get(ctx).Data); !sameInts(got, []int{1, 2, 3, 4}) {
		t.Fatalf("restored = %v", got)
	}
	// Items already present are not duplicated.
	if err := optimisticRestore(ctx, s, removed, same); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := ids(s.Get(ctx).Data); !sameInts(got, []int{1, 2, 3, 4}) {
		t.Fatalf("second restore = %v", got)
	}
}

func TestStoreGetReturnsPrivateCopy(t *testing.T) {
	ctx := context.Background()
	s, _, _, _ := newTestStore(t)
	_ = s.Set(ctx, []item{{1, "a"}})

	e := s.Get(ctx)
	e.Data[0].Name = "mutated"
	if got := s.Get(ctx).Data[0].Name; got != "a" {
		t.Fatalf("cache aliased caller data: %q", got)
	}
}

// TestStoreSelfHeal ensures unreadable provider bytes are deleted and missed.
func TestStoreSelfHeal(t *testing.T) {
	ctx := context.Background()
	s, mp, _, hr := newTestStore(t)
	sk := storageKey("test", KeyIncomes)

	_, _ = mp.Set(ctx, sk, []byte("not-wire-format"), 1, 0)
	if e := s.Get(ctx); e.HasData {
		t.Fatalf("corrupt entry read as data")
	}
	if _, ok, _ := mp.Get(ctx, sk); ok {
		t.Fatalf("corrupt entry was not deleted")
	}
	if !hr.has("heal:incomes:corrupt") {
		t.Fatalf("missing heal hook: %v", hr.events)
	}

	// Valid frame, undecodable payload.
	_, _ = mp.Set(ctx, sk, wire.Encode(wire.Entry{Loaded: true, HasData: true, Payload: []byte("{")}), 1, 0)
	if e := s.Get(ctx); e.HasData {
		t.Fatalf("undecodable payload read as data")
	}
	if !hr.has("heal:incomes:value_decode") {
		t.Fatalf("missing heal hook: %v", hr.events)
	}

	// Frame from an older generation.
	_, _ = mp.Set(ctx, sk, wire.Encode(wire.Entry{Gen: 7, Loaded: true, HasData: true, Payload: []byte("[]")}), 1, 0)
	if e := s.Get(ctx); e.HasData {
		t.Fatalf("foreign generation read as data")
	}
	if !hr.has("heal:incomes:gen_mismatch") {
		t.Fatalf("missing heal hook: %v", hr.events)
	}
}

func TestStoreProviderRejectReadsAsMiss(t *testing.T) {
	ctx := context.Background()
	s, mp, _, hr := newTestStore(t)
	mp.reject = true

	if err := s.Set(ctx, []item{{1, "a"}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if e := s.Get(ctx); e.Loaded || e.HasData {
		t.Fatalf("rejected write visible: %+v", e)
	}
	if !hr.has("rejected:incomes") {
		t.Fatalf("missing rejected hook: %v", hr.events)
	}
}
