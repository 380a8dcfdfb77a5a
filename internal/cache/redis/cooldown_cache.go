package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alanyoungcy/polymarketbot/internal/domain"
	"github.com/redis/go-redis/v9"
)

// CooldownCache implements domain.CooldownCache using a single Redis hash
// keyed by pair, so every scanner instance shares one cooldown table
// instead of each holding its own in-process map.
type CooldownCache struct {
	rdb *redis.Client
}

const cooldownHashKey = "pair_cooldowns"

// NewCooldownCache creates a CooldownCache backed by the given Client.
func NewCooldownCache(c *Client) *CooldownCache {
	return &CooldownCache{rdb: c.Underlying()}
}

// SetCooldown records the cycle at which a pair's cooldown ends.
func (cc *CooldownCache) SetCooldown(ctx context.Context, pairKey string, readyAtCycle int64) error {
	if err := cc.rdb.HSet(ctx, cooldownHashKey, pairKey, readyAtCycle).Err(); err != nil {
		return fmt.Errorf("redis: set cooldown %s: %w", pairKey, err)
	}
	return nil
}

// IsOnCooldown reports whether a pair is still cooling down at the given
// cycle. A missing entry means the pair has never traded and is not on
// cooldown.
func (cc *CooldownCache) IsOnCooldown(ctx context.Context, pairKey string, currentCycle int64) (bool, error) {
	val, err := cc.rdb.HGet(ctx, cooldownHashKey, pairKey).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("redis: get cooldown %s: %w", pairKey, err)
	}
	readyAt, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("redis: parse cooldown %s: %w", pairKey, err)
	}
	return currentCycle < readyAt, nil
}

// Compile-time interface check.
var _ domain.CooldownCache = (*CooldownCache)(nil)
