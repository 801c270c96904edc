// Package asynchook moves hook delivery off the caller's goroutine. Events
// are queued and dropped when the queue is full.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{FetchSkippedEvery: 10})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	cl, _ := fincache.New(fincache.Options{Backend: backend, Hooks: hooks})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/fincache"
)

type Hooks struct {
	inner   fincache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ fincache.Hooks = (*Hooks)(nil)

func New(inner fincache.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped counts events lost to a full queue.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed queue
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) StaleWriteDropped(k fincache.Key)   { h.try(func() { h.inner.StaleWriteDropped(k) }) }
func (h *Hooks) ProviderSetRejected(k fincache.Key) { h.try(func() { h.inner.ProviderSetRejected(k) }) }
func (h *Hooks) FetchSkipped(k fincache.Key, reason string) {
	h.try(func() { h.inner.FetchSkipped(k, reason) })
}
func (h *Hooks) Failed(op string, k fincache.Key, kind fincache.ErrorKind) {
	h.try(func() { h.inner.Failed(op, k, kind) })
}
func (h *Hooks) SelfHeal(k fincache.Key, reason string) {
	h.try(func() { h.inner.SelfHeal(k, reason) })
}
func (h *Hooks) OptimisticRemoved(k fincache.Key, id int64) {
	h.try(func() { h.inner.OptimisticRemoved(k, id) })
}
func (h *Hooks) DeleteRolledBack(k fincache.Key, id int64) {
	h.try(func() { h.inner.DeleteRolledBack(k, id) })
}
func (h *Hooks) SessionInvalidated(op string, k fincache.Key) {
	h.try(func() { h.inner.SessionInvalidated(op, k) })
}
