package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quizrank/internal/domain"
)

// MaxTopN caps how many entries a single read may return.
const MaxTopN = 100

// LeaderboardRepository abstracts how entries are stored (in-memory, Postgres, cached, etc).
// Append never modifies existing entries; Top returns entries in domain.Ranks order.
type LeaderboardRepository interface {
	Append(ctx context.Context, entry domain.LeaderboardEntry) error
	Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error)
}

// LeaderboardService validates submissions, persists them and serves the ranking.
type LeaderboardService struct {
	repo     LeaderboardRepository
	defaultN int
	now      func() time.Time
	newID    func() string
	logger   *zap.Logger

	mu          sync.Mutex
	subscribers map[chan []domain.LeaderboardEntry]struct{}
}

func NewLeaderboardService(repo LeaderboardRepository, defaultN int, logger *zap.Logger) *LeaderboardService {
	return NewLeaderboardServiceWithClock(repo, defaultN, logger, time.Now)
}

// NewLeaderboardServiceWithClock is test-only for deterministic timestamps.
func NewLeaderboardServiceWithClock(repo LeaderboardRepository, defaultN int, logger *zap.Logger, now func() time.Time) *LeaderboardService {
	if defaultN <= 0 {
		defaultN = DefaultTopN
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{
		repo:        repo,
		defaultN:    defaultN,
		now:         now,
		newID:       func() string { return uuid.NewString() },
		logger:      logger,
		subscribers: make(map[chan []domain.LeaderboardEntry]struct{}),
	}
}

// Submit appends a new entry for name. Names are trimmed and cut to domain.MaxNameLength.
func (s *LeaderboardService) Submit(ctx context.Context, name string, score int, timeMs int64) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if timeMs < 0 {
		return fmt.Errorf("%w: time must not be negative", domain.ErrValidation)
	}

	entry := domain.LeaderboardEntry{
		ID:        s.newID(),
		Name:      truncateName(name),
		Score:     score,
		Time:      timeMs,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Error("save leaderboard entry", zap.Error(err))
		return persistenceError(err)
	}
	s.logger.Info("score submitted",
		zap.String("id", entry.ID),
		zap.String("name", entry.Name),
		zap.Int("score", entry.Score),
		zap.Int64("timeMs", entry.Time))

	s.publish(ctx)
	return nil
}

// Top returns up to n entries, best first. n <= 0 uses the service default.
func (s *LeaderboardService) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	if n <= 0 {
		n = s.defaultN
	}
	if n > MaxTopN {
		n = MaxTopN
	}
	entries, err := s.repo.Top(ctx, n)
	if err != nil {
		s.logger.Error("load leaderboard", zap.Error(err))
		return nil, persistenceError(err)
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	return entries, nil
}

// Subscribe returns a channel that receives the default top-N after every submission,
// starting with the current one. The caller must invoke cancel to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context) (<-chan []domain.LeaderboardEntry, func(), error) {
	initial, err := s.Top(ctx, s.defaultN)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan []domain.LeaderboardEntry, 8)
	ch <- initial

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

// Subscribers reports how many live feeds are open.
func (s *LeaderboardService) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

func (s *LeaderboardService) publish(ctx context.Context) {
	s.mu.Lock()
	empty := len(s.subscribers) == 0
	s.mu.Unlock()
	if empty {
		return
	}

	top, err := s.Top(ctx, s.defaultN)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- top:
		default:
			// Drop the stale snapshot so a slow reader never blocks submitters.
			select {
			case <-ch:
			default:
			}
			ch <- top
		}
	}
}

func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= domain.MaxNameLength {
		return name
	}
	runes := []rune(name)
	return strings.TrimSpace(string(runes[:domain.MaxNameLength]))
}

func persistenceError(err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
}
