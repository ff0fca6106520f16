package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quizrank/internal/app"
	"quizrank/internal/domain"
)

const leaderboardKeyPrefix = "leaderboard:top:"

// LeaderboardCache caches top-N reads in Redis in front of a backing store.
// Each N is stored as a JSON string under leaderboard:top:{n}; every successful
// Append drops all cached reads so the next read sees the new entry.
type LeaderboardCache struct {
	client  *redis.Client
	backing app.LeaderboardRepository
	ttl     time.Duration
	sf      singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewLeaderboardCache(client *redis.Client, backing app.LeaderboardRepository, ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{
		client:  client,
		backing: backing,
		ttl:     ttl,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *LeaderboardCache) Append(ctx context.Context, entry domain.LeaderboardEntry) error {
	if err := c.backing.Append(ctx, entry); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *LeaderboardCache) Top(ctx context.Context, n int) ([]domain.LeaderboardEntry, error) {
	key := c.key(n)
	if entries, ok := c.cached(ctx, key); ok {
		return entries, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if entries, ok := c.cached(ctx, key); ok {
			return entries, nil
		}

		entries, err := c.backing.Top(ctx, n)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(entries); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.LeaderboardEntry), nil
}

func (c *LeaderboardCache) cached(ctx context.Context, key string) ([]domain.LeaderboardEntry, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// invalidate is best-effort: a stale read survives at most one TTL.
func (c *LeaderboardCache) invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, leaderboardKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = c.client.Del(ctx, keys...).Err()
	}
}

func (c *LeaderboardCache) key(n int) string {
	return leaderboardKeyPrefix + strconv.Itoa(n)
}

func (c *LeaderboardCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
