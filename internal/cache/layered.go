package cache

import (
	"context"
	"time"
)

// LayeredCache implements a multi-layer cache, fastest layer first
type LayeredCache struct {
	layers []Cache
}

// NewLayeredCache creates a new layered cache
func NewLayeredCache(layers ...Cache) *LayeredCache {
	return &LayeredCache{layers: layers}
}

// Get checks each layer in order and promotes a hit into the faster layers
func (c *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	for i, layer := range c.layers {
		val, found := layer.Get(ctx, key)
		if !found {
			continue
		}
		for _, faster := range c.layers[:i] {
			_ = faster.Set(ctx, key, val, 0) // Use default TTL
		}
		return val, true
	}
	return nil, false
}

// Set stores a value in every layer
func (c *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	for _, layer := range c.layers {
		if err := layer.Set(ctx, key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a value from every layer
func (c *LayeredCache) Delete(ctx context.Context, key string) error {
	for _, layer := range c.layers {
		_ = layer.Delete(ctx, key)
	}
	return nil
}

// Clear removes all values from every layer
func (c *LayeredCache) Clear(ctx context.Context) error {
	for _, layer := range c.layers {
		_ = layer.Clear(ctx)
	}
	return nil
}
