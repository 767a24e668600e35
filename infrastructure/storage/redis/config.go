// Package redis caches rendered exports in Redis.
package redis

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domainconfig "github.com/felixgeelhaar/chartforge/domain/config"
)

// Config describes the connection and the key layout.
type Config struct {
	// Address is host:port, or a redis:// or rediss:// URL carrying the
	// password and database itself.
	Address  string
	Password string
	DB       int

	MaxRetries  int
	DialTimeout time.Duration
	IOTimeout   time.Duration
	PoolSize    int

	// KeyPrefix namespaces every key, e.g. "chartforge:".
	KeyPrefix string

	// TTL bounds how long an export is kept. Zero keeps it until evicted.
	TTL time.Duration

	// Sliding renews TTL on every hit, so charts that keep being exported
	// stay warm.
	Sliding bool
}

// DefaultConfig connects to localhost with a one hour TTL.
func DefaultConfig() Config {
	return Config{
		Address:     "localhost:6379",
		MaxRetries:  3,
		DialTimeout: 5 * time.Second,
		IOTimeout:   3 * time.Second,
		PoolSize:    10,
		KeyPrefix:   "chartforge:",
		TTL:         time.Hour,
	}
}

// FromCacheConfig overlays the cache section of a config file on the
// defaults.
func FromCacheConfig(c domainconfig.CacheConfig) Config {
	cfg := DefaultConfig()
	if c.Addr != "" {
		cfg.Address = c.Addr
	}
	cfg.Password = c.Password
	cfg.DB = c.DB
	if c.KeyPrefix != "" {
		cfg.KeyPrefix = c.KeyPrefix
	}
	if c.TTL > 0 {
		cfg.TTL = c.TTL.Duration()
	}
	cfg.Sliding = c.Sliding
	return cfg
}

// options builds client options. Settings in a URL address win over the
// Password and DB fields.
func (c Config) options() (*redis.Options, error) {
	var opts *redis.Options
	if strings.HasPrefix(c.Address, "redis://") || strings.HasPrefix(c.Address, "rediss://") {
		parsed, err := redis.ParseURL(c.Address)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: c.Address, Password: c.Password, DB: c.DB}
	}

	opts.MaxRetries = c.MaxRetries
	opts.DialTimeout = c.DialTimeout
	opts.ReadTimeout = c.IOTimeout
	opts.WriteTimeout = c.IOTimeout
	opts.PoolSize = c.PoolSize
	return opts, nil
}
