package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quizrank/internal/domain"
)

// LeaderboardStore persists leaderboard entries in Postgres. Rows are only
// ever inserted; ranking is done by the database.
type LeaderboardStore struct {
	pool *pgxpool.Pool
}

func NewLeaderboardStore(pool *pgxpool.Pool) *LeaderboardStore {
	return &LeaderboardStore{pool: pool}
}

func (s *LeaderboardStore) Append(ctx context.Context, entry domain.LeaderboardEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leaderboard (id, name, score, time_ms, created_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.Name, entry.Score, entry.Time, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert leaderboard entry: %w", err)
	}
	return nil
}

func (s *LeaderboardStore) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, name, score, time_ms, created_at
		FROM leaderboard
		ORDER BY score DESC, time_ms ASC, created_at ASC, id ASC
		LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0, n)
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Score, &e.Time, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read leaderboard: %w", err)
	}
	return entries, nil
}
