package pipeline

import "sync"

// Manager tracks live sessions. The media handler registers a session when
// the stream starts and removes it on stop; the transfer tool looks calls
// up by call id.
type Manager struct {
	mu       sync.RWMutex
	byStream map[string]*Session
	byCall   map[string]*Session
}

func NewManager() *Manager {
	return &Manager{
		byStream: make(map[string]*Session),
		byCall:   make(map[string]*Session),
	}
}

func (m *Manager) Register(streamSID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byStream[streamSID] = s
	m.byCall[s.cfg.CallID] = s
}

func (m *Manager) ByStream(streamSID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byStream[streamSID]
	return s, ok
}

func (m *Manager) ByCall(callID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byCall[callID]
	return s, ok
}

func (m *Manager) Unregister(streamSID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.byStream[streamSID]; ok {
		delete(m.byCall, s.cfg.CallID)
		delete(m.byStream, streamSID)
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byStream)
}
