package memory

import (
	"sync"

	"line-quiz-bot/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(participantID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[participantID]; ok {
		return session
	}
	session := app.NewSession()
	s.sessions[participantID] = session
	return session
}

func (s *SessionStore) Get(participantID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[participantID]
	return session, ok
}

func (s *SessionStore) Clear(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, participantID)
}
