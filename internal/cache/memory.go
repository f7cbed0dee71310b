package cache

import (
	"context"
	"sync"
	"time"

	"github.com/docminer/docminer/pkg/models"
	"github.com/google/uuid"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is a process-local Cache used when no Redis URL is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry)}
}

func (c *MemoryCache) Ping(_ context.Context) error { return nil }

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	c.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: exp}
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *MemoryCache) SetJobStatus(ctx context.Context, jobID uuid.UUID, status models.JobStatus, ttl time.Duration) error {
	return c.Set(ctx, JobStatusKey(jobID), []byte(status), ttl)
}

func (c *MemoryCache) GetJobStatus(ctx context.Context, jobID uuid.UUID) (models.JobStatus, bool, error) {
	val, ok, err := c.Get(ctx, JobStatusKey(jobID))
	if err != nil || !ok {
		return "", ok, err
	}
	return models.JobStatus(val), true, nil
}
