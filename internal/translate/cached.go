package translate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ppiankov/labsense/internal/cache"
)

// cached serves repeated masked chunks from a cache. Masked text carries no
// values, so identical narratives across reports share entries.
type cached struct {
	Backend
	cache  cache.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

// Cached wraps a backend with a result cache. A nil cache returns b as is.
func Cached(b Backend, c cache.Cache, ttl time.Duration, logger zerolog.Logger) Backend {
	if c == nil || b == nil {
		return b
	}
	return &cached{Backend: b, cache: c, ttl: ttl, logger: logger}
}

func (c *cached) Translate(ctx context.Context, text, source, target string) (string, error) {
	key := cache.Key("translate", c.Backend.Name(), source, target, text)

	if data, ok := c.cache.Get(ctx, key); ok {
		return string(data), nil
	}

	out, err := c.Backend.Translate(ctx, text, source, target)
	if err != nil {
		return "", err
	}

	if err := c.cache.Set(ctx, key, []byte(out), c.ttl); err != nil {
		c.logger.Debug().Err(err).Msg("translation cache write failed")
	}
	return out, nil
}
