package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FloodGuard rate-limits bot updates per sender with a redis counter.
type FloodGuard struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
}

// NewFloodGuard allows at most limit updates per sender within window.
func NewFloodGuard(rdb *redis.Client, limit int64, window time.Duration) *FloodGuard {
	return &FloodGuard{rdb: rdb, limit: limit, window: window}
}

// Allow reports whether the sender is under the limit and counts this
// update against it. The expiry is set when the counter is first created
// so the window is measured from the first update of a burst.
func (g *FloodGuard) Allow(ctx context.Context, senderID int64) (bool, error) {
	key := fmt.Sprintf("flood:%d", senderID)

	count, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment flood counter: %w", err)
	}

	if count == 1 {
		if err = g.rdb.Expire(ctx, key, g.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set flood counter expiry: %w", err)
		}
	}

	return count <= g.limit, nil
}
