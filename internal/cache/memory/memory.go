package memory

import (
	"context"
	"time"

	"autoapply-engine/internal/cache"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is an in-process LRU. Entries expire after the TTL fixed at
// construction; the per-call ttl is ignored.
type Cache struct {
	lru *expirable.LRU[string, string]
}

func New(opts cache.Options) *Cache {
	size := opts.Size
	if size <= 0 {
		size = cache.DefaultOptions().Size
	}
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = cache.DefaultOptions().DefaultTTL
	}
	return &Cache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *Cache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	if key == "" {
		return cache.ErrInvalidValue
	}
	c.lru.Add(key, value)
	return nil
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.lru.Get(key)
	if !ok {
		return "", cache.ErrNotFound
	}
	return v, nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

func (c *Cache) Close() error {
	c.lru.Purge()
	return nil
}
