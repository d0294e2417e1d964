package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// hitScript increments the counter and starts its expiry on the first hit,
// returning the new count and the remaining TTL in milliseconds.
var hitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

// RedisWindowStore shares fixed-window counters between server instances.
type RedisWindowStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisWindowStore wraps an existing client. Keys are stored under
// "ncd:ratelimit:".
func NewRedisWindowStore(client redis.UniversalClient) *RedisWindowStore {
	return &RedisWindowStore{client: client, keyPrefix: "ncd:ratelimit:"}
}

// NewRedisClient parses a redis:// URL and verifies the server is reachable.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisWindowStore) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if window <= 0 {
		return 0, 0, fmt.Errorf("window must be positive, got %s", window)
	}
	res, err := hitScript.Run(ctx, s.client, []string{s.keyPrefix + key}, window.Milliseconds()).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("redis hit %s: %w", key, err)
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, 0, fmt.Errorf("redis hit %s: unexpected reply %v", key, res)
	}
	count, ok1 := vals[0].(int64)
	ttl, ok2 := vals[1].(int64)
	if !ok1 || !ok2 {
		return 0, 0, fmt.Errorf("redis hit %s: unexpected reply %v", key, res)
	}
	return count, time.Duration(ttl) * time.Millisecond, nil
}
