package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrConnectionFailed indicates Redis could not be reached.
	ErrConnectionFailed = errors.New("cache connection failed")

	// ErrOperationTimeout indicates a cache operation timed out.
	ErrOperationTimeout = errors.New("cache operation timed out")

	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("invalid cache key")
)

// Stats counts lookups since the cache was created.
type Stats struct {
	Hits   int64
	Misses int64
}

// Cache keeps rendered exports under <prefix>export:<key>.
type Cache struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	sliding bool

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache connects and pings Redis.
func NewCache(cfg Config) (*Cache, error) {
	opts, err := cfg.options()
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	c := NewCacheFromClient(client, cfg.KeyPrefix, cfg.TTL)
	c.sliding = cfg.Sliding
	return c, nil
}

// NewCacheFromClient wraps an existing client.
func NewCacheFromClient(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

func (c *Cache) exportKey(key string) string {
	return c.prefix + "export:" + key
}

// Get returns the export stored under key. With a sliding TTL a hit
// renews the entry.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var cmd *redis.StringCmd
	if c.sliding && c.ttl > 0 {
		cmd = c.client.GetEx(ctx, c.exportKey(key), c.ttl)
	} else {
		cmd = c.client.Get(ctx, c.exportKey(key))
	}

	data, err := cmd.Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.misses.Add(1)
		return nil, false, nil
	case err != nil:
		return nil, false, classify(err)
	}
	c.hits.Add(1)
	return data, true, nil
}

// Set stores an export for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrInvalidKey
	}
	return classify(c.client.Set(ctx, c.exportKey(key), value, c.ttl).Err())
}

// Delete removes one export.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return classify(c.client.Del(ctx, c.exportKey(key)).Err())
}

func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

func (c *Cache) Ping(ctx context.Context) error {
	return classify(c.client.Ping(ctx).Err())
}

func (c *Cache) Close() error {
	return c.client.Close()
}

// classify marks deadline and network timeouts with ErrOperationTimeout.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var netErr interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return errors.Join(ErrOperationTimeout, err)
	}
	return err
}
