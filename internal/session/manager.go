package session

import (
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNotFound is returned for an unknown session ID.
var ErrNotFound = eris.New("session not found")

// Manager tracks the sessions served by one process. Nothing is persisted.
type Manager struct {
	mu       sync.Mutex
	dir      string
	sessions map[string]*Session
}

// NewManager creates a Manager that writes session logs under dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, sessions: make(map[string]*Session)}
}

// Create starts and registers a new session.
func (m *Manager) Create() (*Session, error) {
	s, err := New(m.dir)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	return s, nil
}

// Get looks up a session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Reset resets the session and re-registers it under its new ID.
func (m *Manager) Reset(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.sessions, id)
	err := s.Reset()
	m.sessions[s.ID()] = s
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Delete closes and forgets a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	return s.Close()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// CloseAll closes every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if err := s.Close(); err != nil {
			zap.L().Warn("session: close failed", zap.String("session_id", id), zap.Error(err))
		}
		delete(m.sessions, id)
	}
}
