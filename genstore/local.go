package genstore

import "sync"

// Local keeps generations in process memory. The cache owns a handful of
// keys for the lifetime of the process, so nothing is ever pruned.
type Local struct {
	mu   sync.RWMutex
	gens map[string]uint64
}

var _ GenStore = (*Local)(nil)

func NewLocal() *Local {
	return &Local{gens: make(map[string]uint64)}
}

func (s *Local) Snapshot(k string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gens[k]
}

func (s *Local) Bump(k string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[k]++
	return s.gens[k]
}
