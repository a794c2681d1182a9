package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("key not found in cache")
	ErrInvalidValue = errors.New("invalid value for cache")
)

// Cache stores short strings (expanded queries) with a TTL.
type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Get returns ErrNotFound on a miss.
	Get(ctx context.Context, key string) (string, error)

	Delete(ctx context.Context, key string) error

	Close() error
}

type Options struct {
	DefaultTTL time.Duration

	Size int

	RedisURL string

	RedisPassword string

	RedisDB int
}

func DefaultOptions() Options {
	return Options{
		DefaultTTL: 24 * time.Hour,
		Size:       256,
	}
}
