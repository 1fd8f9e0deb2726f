package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
)

// MemoryCache is the single-process fallback when REDIS_ADDR is not set.
type MemoryCache struct {
	mu       sync.Mutex
	sessions map[string]entity.TableSession
	marks    map[string]time.Time
	now      func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		sessions: make(map[string]entity.TableSession),
		marks:    make(map[string]time.Time),
		now:      time.Now,
	}
}

func (c *MemoryCache) GetSession(_ context.Context, id string) (*entity.TableSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[id]
	if !ok || !c.now().Before(s.ExpiresAt) {
		delete(c.sessions, id)
		return nil, nil
	}
	return &s, nil
}

func (c *MemoryCache) SetSession(_ context.Context, s *entity.TableSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = *s
	return nil
}

func (c *MemoryCache) DeleteSessions(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.sessions, id)
	}
	return nil
}

func (c *MemoryCache) MarkOnce(_ context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if until, ok := c.marks[key]; ok && now.Before(until) {
		return false, nil
	}
	c.marks[key] = now.Add(ttl)
	return true, nil
}
