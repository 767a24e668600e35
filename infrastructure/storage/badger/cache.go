package badger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrInvalidKey is returned for an empty key.
var ErrInvalidKey = errors.New("invalid cache key")

// Stats reports cache counters. Size and Bytes count live exports.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int64
	Bytes  int64
}

// Cache keeps rendered exports in an embedded BadgerDB under
// <prefix>export:<key>. Expiry is Badger's own entry TTL.
type Cache struct {
	db      *badger.DB
	prefix  []byte
	ttl     time.Duration
	sliding bool

	hits   atomic.Int64
	misses atomic.Int64

	stopGC    context.CancelFunc
	gcDone    chan struct{}
	closeOnce sync.Once
}

// NewCache opens the database. On disk it also starts value log GC.
func NewCache(cfg Config) (*Cache, error) {
	db, err := cfg.open()
	if err != nil {
		return nil, err
	}

	c := &Cache{
		db:      db,
		prefix:  []byte(cfg.KeyPrefix + "export:"),
		ttl:     cfg.TTL,
		sliding: cfg.Sliding,
		stopGC:  func() {},
	}
	if cfg.Dir != "" && cfg.GCInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		c.stopGC = cancel
		c.gcDone = make(chan struct{})
		go c.collect(ctx, cfg.GCInterval, cfg.GCDiscardRatio)
	}
	return c, nil
}

// collect rewrites value log files until Badger reports nothing left to
// reclaim, once per interval.
func (c *Cache) collect(ctx context.Context, interval time.Duration, ratio float64) {
	defer close(c.gcDone)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for ctx.Err() == nil && c.db.RunValueLogGC(ratio) == nil {
			}
		}
	}
}

func (c *Cache) key(k string) []byte {
	out := make([]byte, 0, len(c.prefix)+len(k))
	return append(append(out, c.prefix...), k...)
}

// Get returns the export stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var data []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		c.misses.Add(1)
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	c.hits.Add(1)

	if c.sliding {
		if err := c.put(key, data); err != nil {
			return nil, false, err
		}
	}
	return data, true, nil
}

func (c *Cache) put(key string, value []byte) error {
	e := badger.NewEntry(c.key(key), value)
	if c.ttl > 0 {
		e = e.WithTTL(c.ttl)
	}
	return c.db.Update(func(txn *badger.Txn) error { return txn.SetEntry(e) })
}

// Set stores an export for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrInvalidKey
	}
	return c.put(key, value)
}

// Delete removes one export.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error { return txn.Delete(c.key(key)) })
}

// Stats walks the keys without loading values.
func (c *Cache) Stats() Stats {
	s := Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
	_ = c.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: c.prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			s.Size++
			s.Bytes += it.Item().ValueSize()
		}
		return nil
	})
	return s
}

// Close stops GC and closes the database. It is safe to call twice.
func (c *Cache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.stopGC()
		if c.gcDone != nil {
			<-c.gcDone
		}
		err = c.db.Close()
	})
	return err
}
