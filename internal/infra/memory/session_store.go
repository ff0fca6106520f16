package memory

import (
	"context"
	"sync"
	"time"

	"quizrank/internal/app"
	"quizrank/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// Sessions idle for longer than ttl are treated as gone; ttl <= 0 keeps them forever.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]storedSession
}

type storedSession struct {
	session   app.Session
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return NewSessionStoreWithClock(ttl, time.Now)
}

// NewSessionStoreWithClock is test-only for deterministic expiry.
func NewSessionStoreWithClock(ttl time.Duration, clock func() time.Time) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    clock,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Save(_ context.Context, session app.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	s.sweepLocked(now)
	stored := storedSession{session: session}
	if s.ttl > 0 {
		stored.expiresAt = now.Add(s.ttl)
	}
	s.sessions[session.ID] = stored
	return nil
}

func (s *SessionStore) Load(_ context.Context, id string) (app.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.sessions[id]
	if !ok || s.expired(stored, s.clock()) {
		return app.Session{}, domain.ErrSessionNotFound
	}
	return stored.session, nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports how many sessions are held, expired ones included until the next sweep.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *SessionStore) sweepLocked(now time.Time) {
	for id, stored := range s.sessions {
		if s.expired(stored, now) {
			delete(s.sessions, id)
		}
	}
}

func (s *SessionStore) expired(stored storedSession, now time.Time) bool {
	return !stored.expiresAt.IsZero() && !stored.expiresAt.After(now)
}
