package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gamemodel:analysis:"

// Redis caches records as JSON values that expire after ttl.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis accepts either a redis:// URL or a bare host:port address.
func NewRedis(addr string, ttl time.Duration) (*Redis, error) {
	opts := &redis.Options{Addr: addr, DB: 0}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	}
	return &Redis{client: redis.NewClient(opts), ttl: ttl}, nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Init checks the connection.
func (r *Redis) Init(ctx context.Context) error {
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.client.Ping(ctxPing).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, key string) (*Record, error) {
	v, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var rec Record
	if err := json.Unmarshal(v, &rec); err != nil {
		return nil, fmt.Errorf("decode cached record %s: %w", key, err)
	}
	return &rec, nil
}

func (r *Redis) Put(ctx context.Context, rec *Record) error {
	v, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := r.client.Set(ctx, redisKeyPrefix+rec.Key, v, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", rec.Key, err)
	}
	return nil
}

func (r *Redis) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
