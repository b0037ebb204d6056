package services

import (
	"context"
	"time"

	"github.com/taskboard/core/internal/infrastructure/logger"
)

type tokenPurger interface {
	CleanupExpiredTokens(ctx context.Context) (refresh, activation int64, err error)
}

// TokenCleaner periodically deletes expired refresh and activation tokens
type TokenCleaner struct {
	purger   tokenPurger
	interval time.Duration
	logger   *logger.Logger
}

func NewTokenCleaner(purger tokenPurger, interval time.Duration, logger *logger.Logger) *TokenCleaner {
	return &TokenCleaner{
		purger:   purger,
		interval: interval,
		logger:   logger.WithComponent("token_cleaner"),
	}
}

// Run cleans once immediately and then every interval until ctx is done.
func (c *TokenCleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			c.RunOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (c *TokenCleaner) RunOnce(ctx context.Context) {
	refresh, activation, err := c.purger.CleanupExpiredTokens(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Errorw("Token cleanup failed", "error", err)
		}
		return
	}
	if refresh > 0 || activation > 0 {
		c.logger.Infow("Expired tokens deleted", "refresh_tokens", refresh, "activation_tokens", activation)
	}
}
