package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"mailcenter-service/internal/domain"
)

const groupKeyPrefix = "mailcenter:groups:"

// Redis-backed read-through cache of per-contact grouped summaries. Groups
// are derived data recomputed from mail items, so entries are TTL-bounded
// and invalidated on intake writes; a lost entry only costs a recompute.
type RedisGroupCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisGroupCache(client *redis.Client, ttl time.Duration) *RedisGroupCache {
	return &RedisGroupCache{Client: client, TTL: ttl}
}

func (c *RedisGroupCache) GetGroups(ctx context.Context, contactID uuid.UUID) ([]domain.SimpleGroup, bool, error) {
	if c.Client == nil {
		return nil, false, errors.New("redis group cache: client is nil")
	}

	payload, err := c.Client.Get(ctx, groupKeyPrefix+contactID.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("group cache get: contact_id=%s: %w", contactID, err)
	}

	var groups []domain.SimpleGroup
	if err := json.Unmarshal(payload, &groups); err != nil {
		// A corrupt entry is treated as a miss; the caller overwrites it.
		return nil, false, nil
	}
	return groups, true, nil
}

func (c *RedisGroupCache) SetGroups(ctx context.Context, contactID uuid.UUID, groups []domain.SimpleGroup) error {
	if c.Client == nil {
		return errors.New("redis group cache: client is nil")
	}

	payload, err := json.Marshal(groups)
	if err != nil {
		return fmt.Errorf("group cache set: marshal contact_id=%s: %w", contactID, err)
	}
	if err := c.Client.Set(ctx, groupKeyPrefix+contactID.String(), payload, c.TTL).Err(); err != nil {
		return fmt.Errorf("group cache set: contact_id=%s: %w", contactID, err)
	}
	return nil
}

func (c *RedisGroupCache) InvalidateContact(ctx context.Context, contactID uuid.UUID) error {
	if c.Client == nil {
		return errors.New("redis group cache: client is nil")
	}

	if err := c.Client.Del(ctx, groupKeyPrefix+contactID.String()).Err(); err != nil {
		return fmt.Errorf("group cache invalidate: contact_id=%s: %w", contactID, err)
	}
	return nil
}
