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

// BoardCache caches boards by ID. ListViews is per user and always hits the store.
type BoardCache struct {
	base ports.BoardRepository
	store
}

func NewBoardCache(base ports.BoardRepository, client *redis.Client, ttl time.Duration, log *logger.Logger) *BoardCache {
	if base == nil {
		panic("cache.NewBoardCache: base repository is nil")
	}
	return &BoardCache{base: base, store: newStore(client, ttl, log, "board_cache")}
}

func (c *BoardCache) Insert(ctx context.Context, b *entities.Board) (int64, error) {
	return c.base.Insert(ctx, b)
}

func (c *BoardCache) GetByID(ctx context.Context, id uuid.UUID) (*entities.Board, error) {
	key := boardKey(id)
	if !c.bypass(ctx) {
		var b entities.Board
		if c.load(ctx, key, &b) {
			return &b, nil
		}
	}

	b, err := c.base.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, b)
	return b, nil
}

func (c *BoardCache) Update(ctx context.Context, id uuid.UUID, upd ports.BoardUpdate) (int64, error) {
	rows, err := c.base.Update(ctx, id, upd)
	if err != nil {
		return 0, err
	}
	c.evict(ctx, boardKey(id))
	return rows, nil
}

func (c *BoardCache) ListViews(ctx context.Context, userID uuid.UUID) ([]*entities.BoardView, error) {
	return c.base.ListViews(ctx, userID)
}

func boardKey(id uuid.UUID) string {
	return "board:" + id.String()
}
