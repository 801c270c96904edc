package credential

import "sync"

// Memory keeps the token for the life of the process.
type Memory struct {
	mu    sync.RWMutex
	token string
}

var _ Store = (*Memory)(nil)

func NewMemory(token string) *Memory { return &Memory{token: token} }

func (m *Memory) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, m.token != ""
}

func (m *Memory) SetToken(token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error { return m.SetToken("") }
