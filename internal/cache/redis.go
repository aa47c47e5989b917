package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zaheeruldin978/weather247/internal/logging"
)

// Redis is a cache backed by a Redis server. TTL expiry is handled natively
// by Redis, so there is no sweeper; Len and Clear operate only on keys under
// the configured prefix.
type Redis struct {
	client *redis.Client
	maxAge time.Duration
	prefix string
}

// NewRedis creates a Redis-backed cache. addr is host:port; maxAge <= 0 falls
// back to DefaultMaxAge. The connection is verified with a ping.
func NewRedis(ctx context.Context, addr, password string, db int, maxAge time.Duration) (*Redis, error) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &Redis{client: client, maxAge: maxAge, prefix: "weather247:"}, nil
}

// Get returns the cached value for key, or false if missing or expired.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logging.FromContext(ctx).Warn("redis cache get failed", "key", key, "error", err)
		}
		return nil, false
	}
	return val, true
}

// Set stores value under key with the configured TTL. Failures are logged and
// ignored: the cache is best-effort.
func (r *Redis) Set(ctx context.Context, key string, value []byte) {
	if err := r.client.Set(ctx, r.prefix+key, value, r.maxAge).Err(); err != nil {
		logging.FromContext(ctx).Warn("redis cache set failed", "key", key, "error", err)
	}
}

// Delete removes an entry from the cache.
func (r *Redis) Delete(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		logging.FromContext(ctx).Warn("redis cache delete failed", "key", key, "error", err)
	}
}

// Clear removes all entries under the cache prefix.
func (r *Redis) Clear(ctx context.Context) {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			logging.FromContext(ctx).Warn("redis cache clear failed", "key", iter.Val(), "error", err)
		}
	}
}

// Len returns the number of live keys under the cache prefix.
func (r *Redis) Len() int {
	ctx := context.Background()
	n := 0
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		n++
	}
	return n
}

// Close releases the underlying Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
