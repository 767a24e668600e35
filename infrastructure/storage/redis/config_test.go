package redis

import (
	"testing"
	"time"

	domainconfig "github.com/felixgeelhaar/chartforge/domain/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.Address != "localhost:6379" {
		t.Errorf("Address = %s, want localhost:6379", cfg.Address)
	}
	if cfg.KeyPrefix != "chartforge:" {
		t.Errorf("KeyPrefix = %s, want chartforge:", cfg.KeyPrefix)
	}
	if cfg.TTL != time.Hour {
		t.Errorf("TTL = %v, want 1h", cfg.TTL)
	}
}

func TestFromCacheConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   domainconfig.CacheConfig
		want Config
	}{
		{
			name: "explicit settings",
			in: domainconfig.CacheConfig{
				Addr:      "redis:6380",
				Password:  "secret",
				DB:        2,
				TTL:       domainconfig.Duration(10 * time.Minute),
				KeyPrefix: "charts:",
				Sliding:   true,
			},
			want: Config{Address: "redis:6380", Password: "secret", DB: 2, TTL: 10 * time.Minute, KeyPrefix: "charts:", Sliding: true},
		},
		{
			name: "defaults kept",
			in:   domainconfig.CacheConfig{},
			want: Config{Address: "localhost:6379", TTL: time.Hour, KeyPrefix: "chartforge:"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FromCacheConfig(tt.in)
			if got.Address != tt.want.Address || got.Password != tt.want.Password || got.DB != tt.want.DB {
				t.Errorf("connection = %s/%s/%d, want %s/%s/%d", got.Address, got.Password, got.DB, tt.want.Address, tt.want.Password, tt.want.DB)
			}
			if got.Sliding != tt.want.Sliding {
				t.Errorf("Sliding = %v, want %v", got.Sliding, tt.want.Sliding)
			}
			if got.TTL != tt.want.TTL || got.KeyPrefix != tt.want.KeyPrefix {
				t.Errorf("TTL, prefix = %v, %s, want %v, %s", got.TTL, got.KeyPrefix, tt.want.TTL, tt.want.KeyPrefix)
			}
		})
	}
}

func TestConfig_options(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      Config
		wantAddr string
		wantPass string
		wantDB   int
		wantErr  bool
	}{
		{
			name:     "host and port",
			cfg:      Config{Address: "cache:6379", Password: "pw", DB: 3},
			wantAddr: "cache:6379", wantPass: "pw", wantDB: 3,
		},
		{
			name:     "url wins over fields",
			cfg:      Config{Address: "redis://:secret@cache:6380/2", Password: "ignored", DB: 7},
			wantAddr: "cache:6380", wantPass: "secret", wantDB: 2,
		},
		{
			name:    "bad url",
			cfg:     Config{Address: "redis://cache:6379/notanumber"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.cfg.IOTimeout = 2 * time.Second
			opts, err := tt.cfg.options()
			if tt.wantErr {
				if err == nil {
					t.Error("options() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("options() error = %v", err)
			}
			if opts.Addr != tt.wantAddr || opts.Password != tt.wantPass || opts.DB != tt.wantDB {
				t.Errorf("options() = %s/%s/%d, want %s/%s/%d", opts.Addr, opts.Password, opts.DB, tt.wantAddr, tt.wantPass, tt.wantDB)
			}
			if opts.ReadTimeout != 2*time.Second || opts.WriteTimeout != 2*time.Second {
				t.Errorf("timeouts = %v/%v, want 2s", opts.ReadTimeout, opts.WriteTimeout)
			}
		})
	}
}
