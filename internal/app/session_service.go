package app

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizrank/internal/domain"
)

// SessionRepository abstracts how server-held quiz sessions are stored (in-memory, Redis, etc).
// Load returns domain.ErrSessionNotFound for unknown or expired sessions.
type SessionRepository interface {
	Save(ctx context.Context, s Session) error
	Load(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
}

const sessionLockStripes = 64

// SessionService runs quizzes whose timer lives on the server: the question
// start time is recorded when the question is issued and latency is measured
// when the answer arrives, so clients cannot report their own timings.
type SessionService struct {
	store  SessionRepository
	engine *Engine
	logger *zap.Logger
	locks  [sessionLockStripes]sync.Mutex
}

func NewSessionService(store SessionRepository, engine *Engine, logger *zap.Logger) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{store: store, engine: engine, logger: logger}
}

// Start creates a session and loads its first question. A failed fetch still
// returns the stored session (loading, with LastError) alongside the error.
func (s *SessionService) Start(ctx context.Context) (Session, error) {
	session, err := s.engine.Begin(ctx, NewSession(uuid.NewString()))
	if saveErr := s.store.Save(ctx, session); saveErr != nil {
		return session, persistenceError(saveErr)
	}
	s.logger.Info("session started", zap.String("session", session.ID))
	return session, err
}

// Get returns the stored session.
func (s *SessionService) Get(ctx context.Context, id string) (Session, error) {
	return s.store.Load(ctx, id)
}

// Restart resets an existing session and loads a new first question.
func (s *SessionService) Restart(ctx context.Context, id string) (Session, error) {
	return s.update(ctx, id, func(cur Session) (Session, error) {
		return s.engine.Begin(ctx, cur)
	})
}

// Answer scores key against the session's current question.
func (s *SessionService) Answer(ctx context.Context, id string, key domain.AnswerKey) (Session, AnswerOutcome, error) {
	var outcome AnswerOutcome
	session, err := s.update(ctx, id, func(cur Session) (Session, error) {
		next, o, err := s.engine.Answer(cur, key)
		outcome = o
		return next, err
	})
	return session, outcome, err
}

// Next advances to (or retries) the next question.
func (s *SessionService) Next(ctx context.Context, id string) (Session, error) {
	return s.update(ctx, id, func(cur Session) (Session, error) {
		return s.engine.Next(ctx, cur)
	})
}

// Submit stores the finished run under name.
func (s *SessionService) Submit(ctx context.Context, id, name string) (Session, error) {
	return s.update(ctx, id, func(cur Session) (Session, error) {
		return s.engine.Submit(ctx, cur, name)
	})
}

// update serializes read-modify-write per session. The returned session is
// stored even when fn fails, since failed transitions only record LastError.
func (s *SessionService) update(ctx context.Context, id string, fn func(Session) (Session, error)) (Session, error) {
	mu := s.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	cur, err := s.store.Load(ctx, id)
	if err != nil {
		return Session{}, err
	}
	next, err := fn(cur)
	if saveErr := s.store.Save(ctx, next); saveErr != nil {
		s.logger.Error("save session", zap.String("session", id), zap.Error(saveErr))
		return cur, persistenceError(saveErr)
	}
	return next, err
}

func (s *SessionService) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &s.locks[h.Sum32()%sessionLockStripes]
}
