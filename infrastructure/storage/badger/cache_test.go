package badger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/chartforge/domain/config"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage/badger"
)

func newTestCache(t *testing.T, edit ...func(*badger.Config)) *badger.Cache {
	t.Helper()

	cfg := badger.DefaultConfig()
	for _, fn := range edit {
		fn(&cfg)
	}
	c, err := badger.NewCache(cfg)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCache_SetAndGet(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "bar-png", []byte("\x89PNG")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, found, err := c.Get(ctx, "bar-png")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found || string(got) != "\x89PNG" {
		t.Errorf("Get() = %q, %v, want PNG header, true", got, found)
	}

	_, found, err = c.Get(ctx, "missing")
	if err != nil || found {
		t.Errorf("Get(missing) = %v, %v, want false, nil", found, err)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Size != 1 || stats.Bytes != 4 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, one 4 byte export", stats)
	}
}

func TestCache_InvalidKey(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	if err := c.Set(context.Background(), "", []byte("x")); !errors.Is(err, badger.ErrInvalidKey) {
		t.Errorf("Set(\"\") error = %v, want ErrInvalidKey", err)
	}
}

func TestCache_TTL(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, func(cfg *badger.Config) { cfg.TTL = time.Second })
	ctx := context.Background()

	if err := c.Set(ctx, "svg", []byte("<svg/>")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, found, _ := c.Get(ctx, "svg"); !found {
		t.Fatal("expected entry before expiry")
	}

	time.Sleep(2100 * time.Millisecond)

	if _, found, _ := c.Get(ctx, "svg"); found {
		t.Error("expected entry to expire")
	}
}

func TestCache_Delete(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, key, []byte(key)); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	if err := c.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := c.Get(ctx, "a"); found {
		t.Error("expected a to be deleted")
	}

	if size := c.Stats().Size; size != 2 {
		t.Errorf("Size after Delete = %d, want 2", size)
	}
}

func TestCache_SlidingTTL(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, func(cfg *badger.Config) {
		cfg.TTL = 3 * time.Second
		cfg.Sliding = true
	})
	ctx := context.Background()

	if err := c.Set(ctx, "eps", []byte("%!PS")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	for range 2 {
		time.Sleep(1500 * time.Millisecond)
		if _, found, _ := c.Get(ctx, "eps"); !found {
			t.Fatal("expected entry to stay while in use")
		}
	}

	time.Sleep(4 * time.Second)
	if _, found, _ := c.Get(ctx, "eps"); found {
		t.Error("expected idle entry to expire")
	}
}

func TestCache_Persistent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	cfg := badger.DefaultConfig()
	cfg.Dir = dir
	c, err := badger.NewCache(cfg)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	if err := c.Set(ctx, "pdf", []byte("%PDF")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := badger.NewCache(cfg)
	if err != nil {
		t.Fatalf("NewCache() error = %v", err)
	}
	defer reopened.Close()

	got, found, err := reopened.Get(ctx, "pdf")
	if err != nil || !found || string(got) != "%PDF" {
		t.Errorf("Get() = %q, %v, %v, want %%PDF, true, nil", got, found, err)
	}
}

func TestCache_ContextCanceled(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := c.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
	if err := c.Set(ctx, "k", []byte("v")); !errors.Is(err, context.Canceled) {
		t.Errorf("Set() error = %v, want context.Canceled", err)
	}
}

func TestFromCacheConfig(t *testing.T) {
	t.Parallel()

	cfg := badger.FromCacheConfig(config.CacheConfig{TTL: config.Duration(time.Minute), KeyPrefix: "x:", Sliding: true}, "/var/cache/chartforge")
	if cfg.Dir != "/var/cache/chartforge" || cfg.TTL != time.Minute || cfg.KeyPrefix != "x:" || !cfg.Sliding {
		t.Errorf("FromCacheConfig() = %+v", cfg)
	}

	cfg = badger.FromCacheConfig(config.CacheConfig{}, "")
	if cfg.TTL != time.Hour || cfg.KeyPrefix != "chartforge:" {
		t.Errorf("FromCacheConfig(defaults) = %+v", cfg)
	}
}
