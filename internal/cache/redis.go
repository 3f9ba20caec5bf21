package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores entries in Redis under a key prefix. Any Redis error is
// logged and reported as a miss so the caller falls through to upstream.
type Redis struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

type redisEnvelope struct {
	Data []byte `json:"data"`
	ETag string `json:"etag"`
}

// NewRedis parses url (redis://host:port/db) and returns a store.
func NewRedis(url, prefix string, logger *slog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisClient(redis.NewClient(opts), prefix, logger), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(client *redis.Client, prefix string, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, prefix: prefix, logger: logger, now: time.Now}
}

// Ping verifies connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get reads the envelope and its remaining TTL.
func (r *Redis) Get(ctx context.Context, key string) (Entry, bool) {
	k := r.prefix + key

	raw, err := r.client.Get(ctx, k).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("redis get failed", "key", k, "error", err)
		}
		return Entry{}, false
	}

	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.logger.Warn("redis entry corrupt", "key", k, "error", err)
		return Entry{}, false
	}

	ttl, err := r.client.PTTL(ctx, k).Result()
	if err != nil {
		r.logger.Warn("redis pttl failed", "key", k, "error", err)
		return Entry{}, false
	}
	// PTTL reports -2 when the key vanished after GET, -1 when it has no expiry.
	if ttl == -2 {
		return Entry{}, false
	}
	if ttl < 0 {
		ttl = 0
	}

	return Entry{Data: env.Data, ETag: env.ETag, ExpiresAt: r.now().Add(ttl)}, true
}

// Set writes the envelope with ttl and returns the ETag.
func (r *Redis) Set(ctx context.Context, key string, data []byte, ttl time.Duration) string {
	etag := ComputeETag(data)
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	payload, err := json.Marshal(redisEnvelope{Data: data, ETag: etag})
	if err != nil {
		r.logger.Warn("redis encode failed", "key", key, "error", err)
		return etag
	}
	if err := r.client.Set(ctx, r.prefix+key, payload, ttl).Err(); err != nil {
		r.logger.Warn("redis set failed", "key", r.prefix+key, "error", err)
	}
	return etag
}

// Stats reports the database size.
func (r *Redis) Stats(ctx context.Context) map[string]any {
	stats := map[string]any{"backend": "redis", "enabled": true, "prefix": r.prefix}
	n, err := r.client.DBSize(ctx).Result()
	if err != nil {
		stats["error"] = err.Error()
		return stats
	}
	stats["total_keys"] = n
	return stats
}
