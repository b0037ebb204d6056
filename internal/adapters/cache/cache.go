// Package cache puts Redis read-through caches in front of the account, board
// and membership repositories. Reads inside a transaction go straight to the
// store; writes evict the key immediately and again once the transaction commits.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskboard/core/internal/infrastructure/config"
	"github.com/taskboard/core/internal/infrastructure/database"
	"github.com/taskboard/core/internal/infrastructure/logger"
)

// NewClient connects to Redis and verifies the connection
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// store holds the Redis plumbing shared by the repository decorators.
type store struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func newStore(client *redis.Client, ttl time.Duration, log *logger.Logger, component string) store {
	if ttl < 0 {
		ttl = 0
	}
	return store{redis: client, ttl: ttl, logger: log.WithComponent(component)}
}

// bypass reports whether reads must skip the cache.
func (s store) bypass(ctx context.Context) bool {
	return s.redis == nil || database.InTransaction(ctx)
}

// load decodes the cached value at key into v. Undecodable entries and Redis
// failures drop the key and report a miss.
func (s store) load(ctx context.Context, key string, v interface{}) bool {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warnw("Cache read failed", "key", key, "error", err)
			_ = s.redis.Del(ctx, key).Err()
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.logger.Warnw("Dropping undecodable cache entry", "key", key, "error", err)
		_ = s.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (s store) save(ctx context.Context, key string, v interface{}) {
	if s.redis == nil || s.ttl == 0 || database.InTransaction(ctx) {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warnw("Cache write failed", "key", key, "error", err)
	}
}

func (s store) evict(ctx context.Context, keys ...string) {
	if s.redis == nil {
		return
	}
	del := func(ctx context.Context) {
		if err := s.redis.Del(ctx, keys...).Err(); err != nil {
			s.logger.Warnw("Cache eviction failed", "keys", keys, "error", err)
		}
	}
	del(ctx)
	if database.InTransaction(ctx) {
		database.AfterCommit(ctx, del)
	}
}
