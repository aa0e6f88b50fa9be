package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/dygy/transcription-studio/internal/errors"
	"github.com/dygy/transcription-studio/internal/studio"
	"github.com/dygy/transcription-studio/internal/workspace"
)

// Session is one user's upload and the state built from it
type Session struct {
	ID        string
	CreatedAt time.Time

	mu    sync.Mutex
	state studio.State
	ws    *workspace.Workspace
}

// State returns a copy of the session state
func (s *Session) State() studio.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState replaces the session state
func (s *Session) SetState(st studio.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// Update changes the session state in place under the session lock
func (s *Session) Update(fn func(*studio.State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
}

// Workspace returns the directory holding the session's files
func (s *Session) Workspace() *workspace.Workspace {
	return s.ws
}

// SessionManager tracks live sessions and expires them after a TTL
type SessionManager struct {
	sessions map[string]*Session
	timers   map[string]*time.Timer
	mu       sync.RWMutex
	ttl      time.Duration
}

// NewSessionManager creates a session manager
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		timers:   make(map[string]*time.Timer),
		ttl:      ttl,
	}
}

// Create starts a session with its own workspace
func (m *SessionManager) Create() (*Session, error) {
	ws, err := workspace.Create()
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sess := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		ws:        ws,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	if m.ttl > 0 {
		id := sess.ID
		m.timers[id] = time.AfterFunc(m.ttl, func() { m.Remove(id) })
	}
	return sess, nil
}

// Get retrieves a session by ID
func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSessionNotFound, id)
	}
	return sess, nil
}

// Remove deletes a session and its files
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	if t, ok := m.timers[id]; ok {
		t.Stop()
		delete(m.timers, id)
	}
	m.mu.Unlock()

	if ok {
		sess.ws.Cleanup()
	}
}

// Len reports the number of live sessions
func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close removes every session
func (m *SessionManager) Close() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.Remove(id)
	}
}
