package app

import (
	"sync"

	"line-quiz-bot/internal/domain"
)

// SessionRepository abstracts how per-participant sessions are stored
// (in-memory, Redis-marked, etc). There is no expiry: an abandoned session
// lives until a fresh "start" or a process restart.
type SessionRepository interface {
	GetOrCreate(participantID string) *Session
	Get(participantID string) (*Session, bool)
	Clear(participantID string)
}

// Session holds one participant's in-flight state behind its own mutex. The
// dispatcher holds the lock across a full transition, including effect
// execution, so two webhook deliveries for the same participant cannot
// interleave.
type Session struct {
	mu    sync.Mutex
	state domain.SessionState
}

// NewSession starts a participant at idle.
func NewSession() *Session {
	return &Session{state: domain.SessionState{Stage: domain.Stage{Kind: domain.StageIdle}}}
}

// State returns a snapshot of the session state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) lock() domain.SessionState {
	s.mu.Lock()
	return s.state
}

func (s *Session) commit(state domain.SessionState) {
	s.state = state
	s.mu.Unlock()
}
