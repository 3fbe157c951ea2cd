// Package cache provides the redis-backed helpers of the bot: a
// read-through cache for menu display and a per-sender flood guard.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/models"
	"github.com/redis/go-redis/v9"
)

// menuTTL bounds how stale a displayed menu may be. The ledger's admission
// check always reads the database directly, so this cache can never cause a
// reservation against a just-canceled day; it only serves the menu listing.
const menuTTL = 5 * time.Minute

// MenuSource is the authoritative menu lookup behind the cache.
type MenuSource interface {
	MenuByDate(ctx context.Context, date time.Time) (models.DailyMenu, error)
}

// MenuCache is a read-through redis cache in front of a MenuSource.
// A redis outage degrades to direct source reads instead of failing.
type MenuCache struct {
	rdb    *redis.Client
	source MenuSource
	log    *slog.Logger
}

// NewMenuCache creates a MenuCache over the given redis client and source.
func NewMenuCache(log *slog.Logger, rdb *redis.Client, source MenuSource) *MenuCache {
	return &MenuCache{rdb: rdb, source: source, log: log}
}

func menuKey(date time.Time) string {
	return "menu:" + date.Format(time.DateOnly)
}

// MenuByDate returns the menu for the given date, serving from redis when
// possible. Source errors, including the not-found sentinel, pass through
// unchanged and are never cached.
func (c *MenuCache) MenuByDate(ctx context.Context, date time.Time) (models.DailyMenu, error) {
	key := menuKey(date)

	payload, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var menu models.DailyMenu
		if err = json.Unmarshal(payload, &menu); err == nil {
			return menu, nil
		}
		c.log.WarnContext(ctx, "Failed to decode cached menu, falling back to source", "key", key, "error", err)
	} else if !errors.Is(err, redis.Nil) {
		c.log.WarnContext(ctx, "Failed to read menu from redis, falling back to source", "key", key, "error", err)
	}

	menu, err := c.source.MenuByDate(ctx, date)
	if err != nil {
		return models.DailyMenu{}, err
	}

	if payload, err = json.Marshal(menu); err == nil {
		if err = c.rdb.Set(ctx, key, payload, menuTTL).Err(); err != nil {
			c.log.WarnContext(ctx, "Failed to store menu in redis", "key", key, "error", err)
		}
	}

	return menu, nil
}

// Invalidate drops the cached menu for the given date. Called after an
// administrator edits a menu or toggles a closure so the next display
// reflects the change immediately.
func (c *MenuCache) Invalidate(ctx context.Context, date time.Time) error {
	if err := c.rdb.Del(ctx, menuKey(date)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached menu: %w", err)
	}

	return nil
}
