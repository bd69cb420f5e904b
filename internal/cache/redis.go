package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/config"
	"github.com/Nestly-dev/Nestly-App-sub001/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client       *redis.Client
	roomTypesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, roomTypesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:       redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		roomTypesTTL: roomTypesTTL,
	}
}

func (c *RedisCache) GetRoomTypes(ctx context.Context, hotelID int64) ([]domain.RoomType, error) {
	data, err := c.client.Get(ctx, roomTypesKey(hotelID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var roomTypes []domain.RoomType
	if err := json.Unmarshal(data, &roomTypes); err != nil {
		return nil, err
	}
	return roomTypes, nil
}

func (c *RedisCache) SetRoomTypes(ctx context.Context, hotelID int64, roomTypes []domain.RoomType) error {
	payload, err := json.Marshal(roomTypes)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, roomTypesKey(hotelID), payload, c.roomTypesTTL).Err()
}

// AcquireRoomTypeLock serializes the availability re-check and inventory
// decrement for one room type across concurrent booking requests.
func (c *RedisCache) AcquireRoomTypeLock(ctx context.Context, roomTypeID int64, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, roomTypeLockKey(roomTypeID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseRoomTypeLock(ctx context.Context, roomTypeID int64) error {
	return c.client.Del(ctx, roomTypeLockKey(roomTypeID)).Err()
}

func (c *RedisCache) AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, sweepLockKey(), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSweepLock(ctx context.Context) error {
	return c.client.Del(ctx, sweepLockKey()).Err()
}

func roomTypesKey(hotelID int64) string {
	return fmt.Sprintf("cache:hotel:%d:roomtypes", hotelID)
}

func roomTypeLockKey(roomTypeID int64) string {
	return fmt.Sprintf("lock:roomtype:%d", roomTypeID)
}

func sweepLockKey() string {
	return "lock:booking-sweep"
}
