package web

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aurex/events"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Cache is a thin read-through layer over redis. Misses and redis failures
// both fall through to the database; the cache can disappear without
// breaking any request.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a cache wrapper with the given TTL
func NewCache(rdb *redis.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// Get retrieves a value and unmarshals it into dest, reporting a hit
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	val, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		log.WithFields(log.Fields{"key": key, "error": err}).Warn("Cache read failed")
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		log.WithFields(log.Fields{"key": key, "error": err}).Warn("Cache entry corrupt")
		return false
	}
	return true
}

// Set stores a value under the cache TTL, best effort
func (c *Cache) Set(ctx context.Context, key string, value any) {
	b, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		log.WithFields(log.Fields{"key": key, "error": err}).Warn("Cache write failed")
	}
}

// Delete removes keys, best effort
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.WithFields(log.Fields{"keys": keys, "error": err}).Warn("Cache delete failed")
	}
}

func walletKey(userID string) string {
	return "wallet:" + userID
}

func roomKey(roomID int64) string {
	return fmt.Sprintf("room:%d", roomID)
}

const roomListKey = "rooms:open"

// RegisterInvalidation subscribes cache invalidation to the domain events
// that stale the cached views. Handlers run after the owning transaction
// commits.
func (c *Cache) RegisterInvalidation(bus *events.Bus) {
	bus.Subscribe(events.EventTypeBalanceChanged, func(ctx context.Context, event events.Event) {
		if bc, ok := event.(events.BalanceChangedEvent); ok {
			c.Delete(ctx, walletKey(bc.UserID))
		}
	})

	invalidateRoom := func(ctx context.Context, roomID int64) {
		c.Delete(ctx, roomKey(roomID), roomListKey)
	}

	bus.Subscribe(events.EventTypeRoomUpdated, func(ctx context.Context, event events.Event) {
		if ru, ok := event.(events.RoomUpdatedEvent); ok {
			invalidateRoom(ctx, ru.Snapshot.RoomID)
		}
	})

	bus.Subscribe(events.EventTypeRoomSettled, func(ctx context.Context, event events.Event) {
		if rs, ok := event.(events.RoomSettledEvent); ok {
			invalidateRoom(ctx, rs.RoomID)
		}
	})
}
