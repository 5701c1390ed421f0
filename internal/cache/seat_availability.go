package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const seatKeyPrefix = "rides:seats:"

// SeatAvailabilityCache serves the read path for remaining seats. It is
// advisory only: the booking transaction re-checks capacity under a row
// lock, so a stale cached count can never oversell a ride.
type SeatAvailabilityCache interface {
	Get(ctx context.Context, rideID string) (int, bool, error)
	Set(ctx context.Context, rideID string, seats int) error
	Invalidate(ctx context.Context, rideID string) error
}

type seatAvailabilityCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSeatAvailabilityCache(redisClient *redis.Client, ttl time.Duration) SeatAvailabilityCache {
	return &seatAvailabilityCache{redis: redisClient, ttl: ttl}
}

func (c *seatAvailabilityCache) Get(ctx context.Context, rideID string) (int, bool, error) {
	val, err := c.redis.Get(ctx, seatKeyPrefix+rideID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	seats, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}
	return seats, true, nil
}

func (c *seatAvailabilityCache) Set(ctx context.Context, rideID string, seats int) error {
	return c.redis.Set(ctx, seatKeyPrefix+rideID, strconv.Itoa(seats), c.ttl).Err()
}

func (c *seatAvailabilityCache) Invalidate(ctx context.Context, rideID string) error {
	return c.redis.Del(ctx, seatKeyPrefix+rideID).Err()
}
