package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/labsense/internal/model"
)

// KeyPrefix namespaces every labsense key, so a shared Redis can be cleared safely
const KeyPrefix = "labsense:v1:"

// Cache defines the interface for caching collaborator results
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Key generates a cache key from a namespace and the inputs that determine
// the cached value
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return KeyPrefix + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// New creates the cache described by configuration. A disabled cache is nil.
func New(cfg model.CacheConfig) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	switch strings.ToLower(cfg.Backend) {
	case "memory":
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute), nil

	case "disk":
		return NewDiskCache(cfg.Dir, cfg.DiskTTL), nil

	case "", "layered":
		return NewLayeredCache(
			NewMemoryCache(cfg.MemoryTTL, 10*time.Minute),
			NewDiskCache(cfg.Dir, cfg.DiskTTL),
		), nil

	case "redis":
		redis, err := NewRedisCache(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.DiskTTL,
		})
		if err != nil {
			return nil, err
		}
		// memory in front of redis saves a round trip for repeated sentences
		return NewLayeredCache(NewMemoryCache(cfg.MemoryTTL, 10*time.Minute), redis), nil

	default:
		return nil, fmt.Errorf("unknown cache backend: %s (supported: memory, disk, layered, redis)", cfg.Backend)
	}
}
