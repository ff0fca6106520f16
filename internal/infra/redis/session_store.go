package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizrank/internal/app"
	"quizrank/internal/domain"
)

// SessionStore is a Redis implementation of app.SessionRepository. Sessions are
// stored as JSON under quiz:session:{id} and expire ttl after their last save,
// so any instance behind a load balancer can continue a quiz.
// JSON drops the monotonic clock reading of QuestionStartedAt, so latency for a
// loaded session is measured on the wall clock and a clock step skews it.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Save(ctx context.Context, session app.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.Set(ctx, s.key(session.ID), data, s.ttl).Err()
}

func (s *SessionStore) Load(ctx context.Context, id string) (app.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return app.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return app.Session{}, fmt.Errorf("%w: load session: %v", domain.ErrPersistence, err)
	}
	var session app.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return app.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
