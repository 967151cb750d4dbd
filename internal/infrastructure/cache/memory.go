package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"seniorguard/internal/domain/models"
)

// DefaultCapacity bounds the in-process cache when no capacity is configured
const DefaultCapacity = 1024

// MemoryCache is a bounded in-process verdict cache with a single TTL for every entry
type MemoryCache struct {
	lru *expirable.LRU[string, *models.ThreatVerdict]
}

// NewMemory creates an in-process cache. The per-call ttl passed to Set is ignored.
func NewMemory(capacity int, ttl time.Duration) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryCache{lru: expirable.NewLRU[string, *models.ThreatVerdict](capacity, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (*models.ThreatVerdict, bool, error) {
	v, ok := c.lru.Get(key)
	return v, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, v *models.ThreatVerdict, _ time.Duration) error {
	c.lru.Add(key, v)
	return nil
}

// Len returns the number of live entries
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}
