package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
)

// RedisCache caches resolved table sessions and keeps one-shot markers
// (e.g. "payment confirmed side effects already ran").
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: client, TTL: ttl}
}

func SessionKey(id string) string { return "session:" + id }

func (c *RedisCache) GetSession(ctx context.Context, id string) (*entity.TableSession, error) {
	b, err := c.Client.Get(ctx, SessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var s entity.TableSession
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *RedisCache) SetSession(ctx context.Context, s *entity.TableSession) error {
	ttl := c.TTL
	if left := time.Until(s.ExpiresAt); left < ttl {
		ttl = left
	}
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, SessionKey(s.ID), data, ttl).Err()
}

func (c *RedisCache) DeleteSessions(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, SessionKey(id))
	}
	return c.Client.Del(ctx, keys...).Err()
}

// MarkOnce returns true only for the first caller within ttl.
func (c *RedisCache) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.Client.SetNX(ctx, "once:"+key, "1", ttl).Result()
}
