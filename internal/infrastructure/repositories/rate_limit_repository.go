package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RateLimitRedisRepository implements rate limiting counter storage with Redis.
type RateLimitRedisRepository struct {
	r   redis.Cmdable
	now func() time.Time
}

func NewRateLimitRedisRepository(r redis.Cmdable) *RateLimitRedisRepository {
	return &RateLimitRedisRepository{r: r, now: time.Now}
}

// IncrementWindow increments a per-client counter for a fixed window.
func (repo *RateLimitRedisRepository) IncrementWindow(ctx context.Context, clientKey string, window time.Duration, keyPrefix string, ttl time.Duration) (int, time.Time, error) {
	windowStart := repo.now().Truncate(window)
	key := windowKey(keyPrefix, clientKey, windowStart)
	pipe := repo.r.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, windowStart, err
	}
	return int(incr.Val()), windowStart, nil
}

func windowKey(prefix, clientKey string, windowStart time.Time) string {
	return fmt.Sprintf("%s:%s:%d", prefix, clientKey, windowStart.Unix())
}
