package redisx

import (
    "context"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by Get on a missing key.
var ErrNotFound = redis.Nil

type Client struct { Rdb *redis.Client }

func New(addr string, password string, db int) *Client {
    rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
    return &Client{Rdb: rdb}
}

func (c *Client) Ping(ctx context.Context) error {
    return c.Rdb.Ping(ctx).Err()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
    return c.Rdb.Get(ctx, key).Result()
}

func (c *Client) Set(ctx context.Context, key string, val string, ttl time.Duration) error {
    return c.Rdb.Set(ctx, key, val, ttl).Err()
}

func (c *Client) IncrBy(ctx context.Context, key string, amount int64) (int64, error) {
    return c.Rdb.IncrBy(ctx, key, amount).Result()
}

func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
    return c.Rdb.Expire(ctx, key, ttl).Err()
}

// GetInts fetches several counter keys at once; missing keys read as 0.
func (c *Client) GetInts(ctx context.Context, keys ...string) ([]int64, error) {
    vals, err := c.Rdb.MGet(ctx, keys...).Result()
    if err != nil {
        return nil, err
    }
    out := make([]int64, len(keys))
    for i, v := range vals {
        if v == nil {
            continue
        }
        if s, ok := v.(string); ok {
            if n, err := strconv.ParseInt(s, 10, 64); err == nil {
                out[i] = n
            }
        }
    }
    return out, nil
}
