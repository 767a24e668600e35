package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/chartforge/application"
	"github.com/felixgeelhaar/chartforge/domain/config"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/badger"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/dynamodb"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/memory"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/redis"
)

// Cache addresses that select an embedded backend instead of Redis.
const (
	// CacheMemory selects the in-process LRU cache.
	CacheMemory = "memory"

	// CacheBadgerPrefix selects BadgerDB; the rest of the address is its
	// directory, empty for an in-memory database.
	CacheBadgerPrefix = "badger:"

	// CacheDynamoDBPrefix selects DynamoDB; the rest of the address is the
	// table name.
	CacheDynamoDBPrefix = "dynamodb:"
)

var cacheLog = logging.Scope("cache")

// NewExportCache builds the cache of rendered exports. A disabled cache
// returns nil; "memory" and "badger:<dir>" select embedded caches,
// "dynamodb:<table>" a DynamoDB table and any other address a Redis server.
func NewExportCache(ctx context.Context, cfg config.CacheConfig) (application.ExportCache, Closer, error) {
	if !cfg.Enabled {
		return nil, noClose, nil
	}

	if cfg.Addr == CacheMemory {
		opts := []memory.CacheOption{}
		if ttl := cfg.TTL.Duration(); ttl > 0 {
			opts = append(opts, memory.WithTTL(ttl))
		}
		cacheLog.Info().Add(logging.Str("backend", CacheMemory)).Msg("export cache ready")
		return memory.NewCache(opts...), noClose, nil
	}

	if dir, ok := strings.CutPrefix(cfg.Addr, CacheBadgerPrefix); ok {
		cache, err := badger.NewCache(badger.FromCacheConfig(cfg, dir))
		if err != nil {
			return nil, nil, fmt.Errorf("export cache: %w", err)
		}
		cacheLog.Info().Add(logging.Str("backend", "badger")).Add(logging.Path(dir)).Msg("export cache ready")
		return cache, cache.Close, nil
	}

	if table, ok := strings.CutPrefix(cfg.Addr, CacheDynamoDBPrefix); ok {
		ddbCfg := dynamodb.FromCacheConfig(cfg, table)
		client, err := dynamodb.NewClient(ctx, ddbCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("export cache: %w", err)
		}
		cacheLog.Info().Add(logging.Str("backend", "dynamodb")).Add(logging.Str("table", ddbCfg.TableName)).Msg("export cache ready")
		return dynamodb.NewCache(client, ddbCfg), noClose, nil
	}

	cache, err := redis.NewCache(redis.FromCacheConfig(cfg))
	if err != nil {
		return nil, nil, fmt.Errorf("export cache: %w", err)
	}
	cacheLog.Info().Add(logging.Str("backend", "redis")).Add(logging.Str("addr", cfg.Addr)).Msg("export cache ready")
	return cache, cache.Close, nil
}
