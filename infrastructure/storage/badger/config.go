// Package badger keeps rendered exports in an embedded BadgerDB.
package badger

import (
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	domainconfig "github.com/felixgeelhaar/chartforge/domain/config"
)

var ErrOpenFailed = errors.New("badger: open failed")

type Config struct {
	// Dir holds the database; empty runs Badger in memory.
	Dir        string
	SyncWrites bool

	ValueLogFileSize int64

	// Value log GC runs every GCInterval on disk; zero turns it off.
	GCInterval     time.Duration
	GCDiscardRatio float64

	KeyPrefix string
	// TTL of a stored export; zero keeps it until deleted.
	TTL time.Duration
	// Sliding rewrites an export with a fresh TTL on every hit.
	Sliding bool
}

func DefaultConfig() Config {
	return Config{
		ValueLogFileSize: 64 << 20,
		GCInterval:       5 * time.Minute,
		GCDiscardRatio:   0.5,
		KeyPrefix:        "chartforge:",
		TTL:              time.Hour,
	}
}

// FromCacheConfig maps the cache section onto dir.
func FromCacheConfig(c domainconfig.CacheConfig, dir string) Config {
	cfg := DefaultConfig()
	cfg.Dir = dir
	if c.KeyPrefix != "" {
		cfg.KeyPrefix = c.KeyPrefix
	}
	if c.TTL > 0 {
		cfg.TTL = c.TTL.Duration()
	}
	cfg.Sliding = c.Sliding
	return cfg
}

func (c Config) open() (*badger.DB, error) {
	opts := badger.DefaultOptions(c.Dir).
		WithInMemory(c.Dir == "").
		WithSyncWrites(c.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(nil)
	if c.ValueLogFileSize > 0 {
		opts = opts.WithValueLogFileSize(c.ValueLogFileSize)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Join(ErrOpenFailed, err)
	}
	return db, nil
}
