// Package ratelimit backs the API's per-IP request budget with Redis so
// every API instance draws from one shared window. The counter plugs into
// go-chi/httprate and fails open: a Redis outage degrades to unlimited
// traffic, never to rejected requests.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const opTimeout = 500 * time.Millisecond

// CounterStore is the slice of Redis the counter needs.
type CounterStore interface {
	IncrBy(ctx context.Context, key string, amount int64) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	GetInts(ctx context.Context, keys ...string) ([]int64, error)
}

// RedisCounter implements httprate.LimitCounter over fixed per-window
// counter keys.
type RedisCounter struct {
	store        CounterStore
	prefix       string
	windowLength time.Duration
}

func NewRedisCounter(store CounterStore) *RedisCounter {
	return &RedisCounter{store: store, prefix: "rl"}
}

func (c *RedisCounter) Config(_ int, windowLength time.Duration) {
	c.windowLength = windowLength
}

func (c *RedisCounter) Increment(key string, currentWindow time.Time) error {
	return c.IncrementBy(key, currentWindow, 1)
}

func (c *RedisCounter) IncrementBy(key string, currentWindow time.Time, amount int) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	k := c.counterKey(key, currentWindow)
	n, err := c.store.IncrBy(ctx, k, int64(amount))
	if err != nil {
		log.Warn().Err(err).Msg("rate limit backend unavailable; failing open")
		return nil
	}
	if n == int64(amount) {
		// First write in this window sets the expiry; keep the previous
		// window alive long enough for the sliding computation.
		if err := c.store.Expire(ctx, k, 2*c.windowLength+time.Second); err != nil {
			log.Warn().Err(err).Msg("rate limit expire failed")
		}
	}
	return nil
}

func (c *RedisCounter) Get(key string, currentWindow, previousWindow time.Time) (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	counts, err := c.store.GetInts(ctx, c.counterKey(key, currentWindow), c.counterKey(key, previousWindow))
	if err != nil {
		log.Warn().Err(err).Msg("rate limit backend unavailable; failing open")
		return 0, 0, nil
	}
	return int(counts[0]), int(counts[1]), nil
}

func (c *RedisCounter) counterKey(key string, window time.Time) string {
	return fmt.Sprintf("%s:%s:%d", c.prefix, key, window.Unix())
}
