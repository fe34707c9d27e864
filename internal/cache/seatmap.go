// Package cache keeps short-lived Redis copies of seat-map snapshots so
// browsing traffic does not contend on the store lock.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cineplex-booking/internal/model"
)

// SeatMapCache stores snapshots under "seats:<showtime id>".
type SeatMapCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewSeatMapCache(rdb redis.Cmdable, ttl time.Duration) *SeatMapCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &SeatMapCache{rdb: rdb, ttl: ttl}
}

func Key(showtimeID string) string { return fmt.Sprintf("seats:%s", showtimeID) }

// Get returns ok=false on a miss.
func (c *SeatMapCache) Get(ctx context.Context, showtimeID string) ([]model.SeatState, bool, error) {
	raw, err := c.rdb.Get(ctx, Key(showtimeID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("seat cache get: %w", err)
	}
	var seats []model.SeatState
	if err := json.Unmarshal(raw, &seats); err != nil {
		return nil, false, fmt.Errorf("seat cache decode: %w", err)
	}
	return seats, true, nil
}

func (c *SeatMapCache) Set(ctx context.Context, showtimeID string, seats []model.SeatState) error {
	raw, err := json.Marshal(seats)
	if err != nil {
		return fmt.Errorf("seat cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, Key(showtimeID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("seat cache set: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot after seats change.
func (c *SeatMapCache) Invalidate(ctx context.Context, showtimeID string) error {
	if err := c.rdb.Del(ctx, Key(showtimeID)).Err(); err != nil {
		return fmt.Errorf("seat cache invalidate: %w", err)
	}
	return nil
}
