// Package memory provides in-process storage: an export cache and an
// artifact store.
package memory

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"
)

// ErrInvalidKey is returned for an empty cache key.
var ErrInvalidKey = errors.New("invalid cache key")

// Default bounds of NewCache.
const (
	DefaultMaxEntries = 256
	DefaultMaxBytes   = 64 << 20
)

// Stats reports cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64
	Bytes     int64
	MaxBytes  int64
}

type entry struct {
	key     string
	data    []byte
	expires time.Time
}

// Cache keeps rendered exports in process. It is bounded both by entry
// count and by total bytes, since a single pdf or high-dpi png can be
// several megabytes; the least recently used export goes first. An export
// larger than the byte bound is not stored.
type Cache struct {
	mu         sync.Mutex
	order      *list.List // front is most recent
	index      map[string]*list.Element
	bytes      int64
	maxEntries int
	maxBytes   int64
	ttl        time.Duration
	now        func() time.Time

	hits, misses, evictions int64
}

// CacheOption configures the cache.
type CacheOption func(*Cache)

// WithMaxEntries bounds the number of exports.
func WithMaxEntries(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithMaxBytes bounds the total size of the stored exports.
func WithMaxBytes(n int64) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithTTL sets how long exports live. Zero keeps them until evicted.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		order:      list.New(),
		index:      make(map[string]*list.Element),
		maxEntries: DefaultMaxEntries,
		maxBytes:   DefaultMaxBytes,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a copy of the export stored under key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if ok && c.expired(el.Value.(*entry)) {
		c.remove(el)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false, nil
	}

	c.hits++
	c.order.MoveToFront(el)
	return append([]byte(nil), el.Value.(*entry).data...), true, nil
}

// Set stores a copy of value under key.
func (c *Cache) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrInvalidKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		c.remove(el)
	}
	size := int64(len(value))
	if size > c.maxBytes {
		return nil
	}
	for c.order.Len() > 0 && (c.order.Len() >= c.maxEntries || c.bytes+size > c.maxBytes) {
		c.remove(c.order.Back())
		c.evictions++
	}

	e := &entry{key: key, data: append([]byte(nil), value...)}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.index[key] = c.order.PushFront(e)
	c.bytes += size
	return nil
}

// Delete removes the export stored under key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.remove(el)
	}
	return nil
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Size:      int64(c.order.Len()),
		Bytes:     c.bytes,
		MaxBytes:  c.maxBytes,
	}
}

// Cleanup drops expired exports and returns how many were dropped.
func (c *Cache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if c.expired(el.Value.(*entry)) {
			c.remove(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *Cache) expired(e *entry) bool {
	return !e.expires.IsZero() && c.now().After(e.expires)
}

// remove unlinks el. The caller holds mu.
func (c *Cache) remove(el *list.Element) {
	e := c.order.Remove(el).(*entry)
	delete(c.index, e.key)
	c.bytes -= int64(len(e.data))
}
