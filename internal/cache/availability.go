// Package cache stores resolved availability views in Redis so that
// repeated month lookups do not hit MySQL. Entries are derived data:
// anything here can be dropped at any time and recomputed, so every
// operation degrades to a no-op when no Redis client is configured.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hotel-room-booking/internal/engine"
)

// Availability caches engine resolutions keyed by room and month.
type Availability struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAvailability returns a cache over the given client. A nil client
// yields a cache whose operations all no-op, which lets callers wire
// it unconditionally.
func NewAvailability(rdb *redis.Client, ttl time.Duration) *Availability {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Availability{rdb: rdb, ttl: ttl}
}

func (c *Availability) key(roomID uint64, month string) string {
	return fmt.Sprintf("avail:%d:%s", roomID, month)
}

// Get returns the cached resolution for a room month, or nil on a
// miss. Redis errors count as misses.
func (c *Availability) Get(ctx context.Context, roomID uint64, month string) *engine.Resolution {
	if c == nil || c.rdb == nil {
		return nil
	}
	raw, err := c.rdb.Get(ctx, c.key(roomID, month)).Bytes()
	if err != nil {
		return nil
	}
	var res engine.Resolution
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil
	}
	return &res
}

// Set stores a resolution under its room and month. Failures are
// ignored; the cache is best effort.
func (c *Availability) Set(ctx context.Context, res *engine.Resolution) {
	if c == nil || c.rdb == nil || res == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, c.key(res.RoomID, res.Month), raw, c.ttl).Err()
}

// Invalidate drops cached months for a room, or for every room when
// roomID is zero. A change notification carries no payload beyond
// the room, so all of the room's months go at once.
func (c *Availability) Invalidate(ctx context.Context, roomID uint64) {
	if c == nil || c.rdb == nil {
		return
	}
	pattern := "avail:*"
	if roomID != 0 {
		pattern = fmt.Sprintf("avail:%d:*", roomID)
	}
	iter := c.rdb.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		_ = c.rdb.Del(ctx, iter.Val()).Err()
	}
}
