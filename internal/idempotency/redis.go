package idempotency

import (
    "context"
    "fmt"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// Redis implements Store with SET NX EX against a shared Redis.
type Redis struct {
    rdb    redis.UniversalClient
    prefix string
}

// NewRedisFromURL connects and pings. Startup callers treat an error as fatal rather than
// silently degrading to Memory, which would break the cross-instance guarantee.
func NewRedisFromURL(ctx context.Context, url string) (*Redis, error) {
    opt, err := redis.ParseURL(url)
    if err != nil { return nil, fmt.Errorf("parse redis url: %w", err) }
    rdb := redis.NewClient(opt)
    if err := rdb.Ping(ctx).Err(); err != nil {
        _ = rdb.Close()
        return nil, fmt.Errorf("ping redis: %w", err)
    }
    return NewRedis(rdb), nil
}

func NewRedis(rdb redis.UniversalClient) *Redis {
    return &Redis{rdb: rdb, prefix: "idem:"}
}

func (r *Redis) Strategy() string { return "redis" }

// Claim errors are returned as-is; the caller must not fall back to another store mid-request.
func (r *Redis) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
    ok, err := r.rdb.SetNX(ctx, r.prefix+key, "1", ttl).Result()
    if err != nil { return false, fmt.Errorf("redis setnx %s: %w", key, err) }
    return ok, nil
}

func (r *Redis) Close() error { return r.rdb.Close() }

// Client exposes the underlying connection so other Redis users can share it.
func (r *Redis) Client() redis.UniversalClient { return r.rdb }
