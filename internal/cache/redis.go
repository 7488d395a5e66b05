package cache

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/plothook/api/internal/joincode"
	"github.com/redis/go-redis/v9"
)

// joinCodeTTL bounds staleness of the code to world-id mapping. Codes are
// immutable for a world's lifetime, so the only invalidation needed is on
// world deactivation.
const joinCodeTTL = time.Hour

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("Connected to Redis at %s", redisURL)
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// LookupWorldByJoinCode returns the cached world id for a code, or 0 on miss.
func (c *RedisCache) LookupWorldByJoinCode(ctx context.Context, code string) int64 {
	val, err := c.client.Get(ctx, joinCodeKey(code)).Result()
	if err != nil {
		return 0
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// StoreJoinCode caches a code to world-id mapping.
func (c *RedisCache) StoreJoinCode(ctx context.Context, code string, worldID int64) error {
	return c.client.Set(ctx, joinCodeKey(code), strconv.FormatInt(worldID, 10), joinCodeTTL).Err()
}

// ForgetJoinCode drops a cached code, used when a world is deactivated.
func (c *RedisCache) ForgetJoinCode(ctx context.Context, code string) error {
	return c.client.Del(ctx, joinCodeKey(code)).Err()
}

func joinCodeKey(code string) string {
	return "joincode:" + joincode.Normalize(code)
}
