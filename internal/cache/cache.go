// Package cache is the read-through response cache for the query API.
// It is strictly best-effort: a dead backend degrades to computing every
// response, never to failing requests.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/infa-ajaykumar/RealityBuilder/internal/redisx"
)

type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, val string, ttl time.Duration) error
}

// Key derives a deterministic cache key from a parameter map. Go's JSON
// encoder writes map keys in sorted order, so two maps equal as maps
// always hash identically regardless of how the query string was ordered.
func Key(prefix string, params map[string]string) string {
	if params == nil {
		params = map[string]string{}
	}
	encoded, _ := json.Marshal(params)
	sum := md5.Sum(encoded)
	return prefix + ":" + hex.EncodeToString(sum[:])
}

type Cache struct {
	Backend Backend
	TTL     time.Duration
	Prefix  string
}

func New(backend Backend, prefix string, ttl time.Duration) *Cache {
	return &Cache{Backend: backend, Prefix: prefix, TTL: ttl}
}

// GetOrCompute returns the cached payload for params, or computes and
// stores it. The second return reports a cache hit. Compute errors are
// never cached.
func (c *Cache) GetOrCompute(ctx context.Context, params map[string]string, compute func(ctx context.Context) ([]byte, error)) ([]byte, bool, error) {
	key := Key(c.Prefix, params)

	if c.Backend != nil {
		val, err := c.Backend.Get(ctx, key)
		switch {
		case err == nil:
			return []byte(val), true, nil
		case errors.Is(err, redisx.ErrNotFound):
			// miss
		default:
			log.Warn().Err(err).Str("key", key).Msg("cache read failed; serving uncached")
		}
	}

	payload, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}

	if c.Backend != nil {
		if err := c.Backend.Set(ctx, key, string(payload), c.TTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}
	return payload, false, nil
}
