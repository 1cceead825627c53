package session

import (
	"sync"

	"github.com/medassist/prescription-analyzer/internal/common"
)

// Manager tracks live sessions by id.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*State
}

func NewManager() *Manager {
	return &Manager{states: make(map[string]*State)}
}

// NewSession creates a fresh session and returns its id.
func (m *Manager) NewSession() (string, *State, error) {
	id, err := common.NewULID()
	if err != nil {
		return "", nil, err
	}
	st := NewState()
	m.mu.Lock()
	m.states[id] = st
	m.mu.Unlock()
	return id, st, nil
}

// Ensure returns the state for id, creating one if the id is unknown
// (e.g. the server restarted while the cookie survived).
func (m *Manager) Ensure(id string) *State {
	m.mu.RLock()
	st, ok := m.states[id]
	m.mu.RUnlock()
	if ok {
		return st
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[id]; ok {
		return st
	}
	st = NewState()
	m.states[id] = st
	return st
}
