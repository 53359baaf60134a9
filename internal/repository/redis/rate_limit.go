package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/raetselonkel/labyrinth/internal/core/port"
)

// RateLimitStore tracks request timestamps per client in a Redis
// sorted set, scored by unix nanoseconds.
type RateLimitStore struct {
	client *goredis.Client
}

var _ port.RateLimitStore = (*RateLimitStore)(nil)

func NewRateLimitStore(client *goredis.Client) *RateLimitStore {
	return &RateLimitStore{client: client}
}

func rateLimitKey(identifier string) string {
	return "labyrinth:ratelimit:" + identifier
}

func (s *RateLimitStore) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := rateLimitKey(identifier)
	member := strconv.FormatInt(at.UnixNano(), 10)

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(at.UnixNano()), Member: member})
	pipe.Expire(ctx, key, time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record rate limit attempt: %w", err)
	}
	return nil
}

func (s *RateLimitStore) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	from := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	to := strconv.FormatInt(reference.UnixNano(), 10)

	count, err := s.client.ZCount(ctx, rateLimitKey(identifier), from, to).Result()
	if err != nil {
		return 0, fmt.Errorf("count rate limit attempts: %w", err)
	}
	return int(count), nil
}

func (s *RateLimitStore) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	max := strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
	if err := s.client.ZRemRangeByScore(ctx, rateLimitKey(identifier), "0", max).Err(); err != nil {
		return fmt.Errorf("trim rate limit window: %w", err)
	}
	return nil
}
