package memory

import (
	"context"
	"sort"
	"sync"

	"quizrank/internal/domain"
)

// LeaderboardStore is an in-memory implementation of app.LeaderboardRepository.
type LeaderboardStore struct {
	mu      sync.RWMutex
	entries []domain.LeaderboardEntry
}

func NewLeaderboardStore() *LeaderboardStore {
	return &LeaderboardStore{}
}

func (s *LeaderboardStore) Append(_ context.Context, entry domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *LeaderboardStore) Top(_ context.Context, n int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	snapshot := make([]domain.LeaderboardEntry, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.RUnlock()

	sort.SliceStable(snapshot, func(i, j int) bool {
		return domain.Ranks(snapshot[i], snapshot[j])
	})
	if n >= 0 && len(snapshot) > n {
		snapshot = snapshot[:n]
	}
	return snapshot, nil
}

// Len reports how many entries have been stored.
func (s *LeaderboardStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
