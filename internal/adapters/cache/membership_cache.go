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

// MembershipCache caches single (board, user) memberships
type MembershipCache struct {
	base ports.MembershipRepository
	store
}

func NewMembershipCache(base ports.MembershipRepository, client *redis.Client, ttl time.Duration, log *logger.Logger) *MembershipCache {
	if base == nil {
		panic("cache.NewMembershipCache: base repository is nil")
	}
	return &MembershipCache{base: base, store: newStore(client, ttl, log, "membership_cache")}
}

func (c *MembershipCache) Insert(ctx context.Context, m *entities.Membership) (int64, error) {
	rows, err := c.base.Insert(ctx, m)
	if err != nil {
		return 0, err
	}
	c.evict(ctx, membershipKey(m.BoardID, m.UserID))
	return rows, nil
}

func (c *MembershipCache) Get(ctx context.Context, boardID, userID uuid.UUID) (*entities.Membership, error) {
	key := membershipKey(boardID, userID)
	if !c.bypass(ctx) {
		var m entities.Membership
		if c.load(ctx, key, &m) {
			return &m, nil
		}
	}

	m, err := c.base.Get(ctx, boardID, userID)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, m)
	return m, nil
}

func (c *MembershipCache) Update(ctx context.Context, boardID, userID uuid.UUID, upd ports.MembershipUpdate) (int64, error) {
	rows, err := c.base.Update(ctx, boardID, userID, upd)
	if err != nil {
		return 0, err
	}
	c.evict(ctx, membershipKey(boardID, userID))
	return rows, nil
}

func (c *MembershipCache) Search(ctx context.Context, filter ports.MembershipFilter) ([]*entities.Membership, error) {
	return c.base.Search(ctx, filter)
}

func membershipKey(boardID, userID uuid.UUID) string {
	return "membership:" + boardID.String() + ":" + userID.String()
}
