package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// AccountCache caches accounts by ID
type AccountCache struct {
	base ports.AccountRepository
	store
}

// accountRecord keeps the password hash, which the API encoding omits.
type accountRecord struct {
	entities.Account
	PasswordHash string `json:"password_hash"`
}

func NewAccountCache(base ports.AccountRepository, client *redis.Client, ttl time.Duration, log *logger.Logger) *AccountCache {
	if base == nil {
		panic("cache.NewAccountCache: base repository is nil")
	}
	return &AccountCache{base: base, store: newStore(client, ttl, log, "account_cache")}
}

func (c *AccountCache) Insert(ctx context.Context, a *entities.Account) (int64, error) {
	return c.base.Insert(ctx, a)
}

func (c *AccountCache) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	key := accountKey(id)
	if !c.bypass(ctx) {
		var rec accountRecord
		if c.load(ctx, key, &rec) {
			rec.Account.PasswordHash = rec.PasswordHash
			return &rec.Account, nil
		}
	}

	a, err := c.base.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, accountRecord{Account: *a, PasswordHash: a.PasswordHash})
	return a, nil
}

func (c *AccountCache) GetByEmail(ctx context.Context, email string) (*entities.Account, error) {
	return c.base.GetByEmail(ctx, email)
}

func (c *AccountCache) Update(ctx context.Context, id uuid.UUID, upd ports.AccountUpdate) (int64, error) {
	rows, err := c.base.Update(ctx, id, upd)
	if err != nil {
		return 0, err
	}
	c.evict(ctx, accountKey(id))
	return rows, nil
}

func accountKey(id uuid.UUID) string {
	return "account:" + id.String()
}
