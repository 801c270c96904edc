// Package sloghooks reports fincache hook events through log/slog.
package sloghooks

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/fincache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	FetchSkippedEvery uint64
	SelfHealEvery     uint64
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	skipCtr     atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ fincache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) FetchSkipped(key fincache.Key, reason string) {
	if h.l == nil || !sample(h.opts.FetchSkippedEvery, &h.skipCtr) {
		return
	}
	h.l.Debug("fincache.fetch_skipped",
		"key", key.String(),
		"reason", reason)
}

func (h *Hooks) StaleWriteDropped(key fincache.Key) {
	if h.l == nil {
		return
	}
	h.l.Info("fincache.stale_write_dropped", "key", key.String())
}

func (h *Hooks) Failed(op string, key fincache.Key, kind fincache.ErrorKind) {
	if h.l == nil {
		return
	}
	level := slog.LevelWarn
	if kind == fincache.KindValidation {
		level = slog.LevelInfo
	}
	h.l.Log(context.Background(), level, "fincache.failed",
		"op", op,
		"key", key.String(),
		"kind", kind.String())
}

func (h *Hooks) SelfHeal(key fincache.Key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("fincache.self_heal",
		"key", key.String(),
		"reason", reason)
}

func (h *Hooks) ProviderSetRejected(key fincache.Key) {
	if h.l == nil {
		return
	}
	h.l.Warn("fincache.provider_set_rejected", "key", key.String())
}

func (h *Hooks) OptimisticRemoved(key fincache.Key, id int64) {
	if h.l == nil {
		return
	}
	h.l.Debug("fincache.optimistic_removed",
		"key", key.String(),
		"id", id)
}

func (h *Hooks) DeleteRolledBack(key fincache.Key, id int64) {
	if h.l == nil {
		return
	}
	h.l.Info("fincache.delete_rolled_back",
		"key", key.String(),
		"id", id)
}

func (h *Hooks) SessionInvalidated(op string, key fincache.Key) {
	if h.l == nil {
		return
	}
	h.l.Warn("fincache.session_invalidated",
		"op", op,
		"key", key.String())
}
