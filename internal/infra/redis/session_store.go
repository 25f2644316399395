package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"line-quiz-bot/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Sessions themselves stay in a local map; a restart drops in-flight
//     progress, which is the documented behavior.
//   - Redis marks session liveness so operators can see who is mid-quiz
//     across instances (and it could be extended to share state).
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(participantID), "1", s.ttl).Err()
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
	_ = s.client.Del(context.Background(), s.key(participantID)).Err()
}

func (s *SessionStore) key(participantID string) string {
	return "quiz:session:" + participantID
}
