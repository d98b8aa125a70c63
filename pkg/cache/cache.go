// Package cache provides a backend-agnostic caching interface with
// in-memory and Redis implementations.
package cache

import (
	"context"
	"errors"
	"time"

	"watermesh/pkg/config"
)

// Backend selects the Cache implementation New constructs.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ErrKeyNotFound is returned when a requested key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// Cache is a byte-oriented, TTL-aware cache. Callers encode/decode their
// own values; the cache never interprets them.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	Stats(ctx context.Context) (*Stats, error)
	Clear(ctx context.Context) error
	Close() error
}

// Stats reports cache performance, where the backend can provide it.
type Stats struct {
	TotalKeys   int64
	Hits        int64
	Misses      int64
	HitRate     float64
	MemoryBytes int64
	Backend     string
}

// Options configures New.
type Options struct {
	Backend    string
	DefaultTTL time.Duration

	MaxEntries int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// DefaultOptions returns sensible defaults for an in-memory cache.
func DefaultOptions() *Options {
	return &Options{
		Backend:       BackendMemory,
		DefaultTTL:    time.Hour,
		MaxEntries:    10000,
		RedisAddr:     "localhost:6379",
		RedisDB:       0,
		RedisPoolSize: 10,
	}
}

// FromConfig builds Options from the application configuration.
func FromConfig(cfg config.CacheConfig) *Options {
	return &Options{
		Backend:       cfg.Backend,
		DefaultTTL:    time.Duration(cfg.TTLSec) * time.Second,
		MaxEntries:    10000,
		RedisAddr:     cfg.Address,
		RedisPassword: cfg.Password,
		RedisDB:       cfg.DB,
		RedisPoolSize: 10,
	}
}

// New dispatches to the backend named in opts.Backend, defaulting to an
// in-memory cache for an empty or unrecognized name.
func New(opts *Options) (Cache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Backend {
	case BackendRedis:
		return NewRedisCache(opts)
	case BackendMemory, "":
		return NewMemoryCache(opts), nil
	default:
		return NewMemoryCache(opts), nil
	}
}

// MustNew calls New and panics on error; used at startup where a
// misconfigured cache should fail fast.
func MustNew(opts *Options) Cache {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}
