// Package config provides the domain model for chartforge configuration.
package config

import "time"

// Config is the complete service configuration.
type Config struct {
	// Name is a human-readable name for this deployment.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`

	// Logging configures structured logging.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Server configures the HTTP API.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`
	// Export sets the default export request.
	Export ExportConfig `json:"export,omitempty" yaml:"export,omitempty"`
	// Compose sets composite figure defaults.
	Compose ComposeConfig `json:"compose,omitempty" yaml:"compose,omitempty"`
	// Sources lists the datasets loaded at startup.
	Sources []SourceConfig `json:"sources,omitempty" yaml:"sources,omitempty"`
	// Storage selects where published exports are kept.
	Storage StorageConfig `json:"storage,omitempty" yaml:"storage,omitempty"`
	// Cache configures the rendered export cache.
	Cache CacheConfig `json:"cache,omitempty" yaml:"cache,omitempty"`
	// Observability configures tracing and metrics.
	Observability ObservabilityConfig `json:"observability,omitempty" yaml:"observability,omitempty"`
	// Resilience guards rendering and remote calls.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	// Level is trace, debug, info, warn or error (default: info).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is json or console (default: console).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default: :8080).
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// ReadTimeout bounds reading a request.
	ReadTimeout Duration `json:"read_timeout,omitempty" yaml:"read_timeout,omitempty"`
	// WriteTimeout bounds writing a response.
	WriteTimeout Duration `json:"write_timeout,omitempty" yaml:"write_timeout,omitempty"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout Duration `json:"shutdown_timeout,omitempty" yaml:"shutdown_timeout,omitempty"`
	// MaxBodyBytes limits request bodies.
	MaxBodyBytes int64 `json:"max_body_bytes,omitempty" yaml:"max_body_bytes,omitempty"`
}

// ExportConfig sets export defaults.
type ExportConfig struct {
	// Format is the default format (default: png).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// Width is the default width in pixels.
	Width int `json:"width,omitempty" yaml:"width,omitempty"`
	// Height is the default height in pixels.
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
	// DPI is the default resolution.
	DPI int `json:"dpi,omitempty" yaml:"dpi,omitempty"`
	// Timeout bounds one render.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// ComposeConfig sets composite figure defaults.
type ComposeConfig struct {
	// Height is the figure height (default: 700).
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
	// Title is the figure title.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`
	// HideLegend hides the shared legend.
	HideLegend bool `json:"hide_legend,omitempty" yaml:"hide_legend,omitempty"`
}

// SourceConfig describes one dataset.
type SourceConfig struct {
	// Name identifies the dataset in the API.
	Name string `json:"name" yaml:"name"`
	// Kind is csv, xlsx, parquet, postgres, sqlite or mongodb. File kinds
	// may be omitted and are then taken from the file extension.
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`
	// Paths lists the files to load; several files are concatenated.
	Paths []string `json:"paths,omitempty" yaml:"paths,omitempty"`
	// Sheet selects a worksheet (xlsx).
	Sheet string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	// DSN is the connection string (postgres, sqlite, mongodb).
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`
	// Query is the SQL query (postgres, sqlite).
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
	// Database is the MongoDB database.
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
	// Collection is the MongoDB collection.
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
	// Limit caps the number of loaded rows (0 = no limit).
	Limit int `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// StorageConfig selects the artifact store for published exports.
type StorageConfig struct {
	// Backend is none, memory, filesystem, s3, gcs or azure (default: none).
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`
	// Dir is the filesystem root.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// Bucket is the S3 or GCS bucket, or the Azure container.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	// Prefix is prepended to object keys.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	// Region is the S3 region.
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
	// Endpoint overrides the S3 endpoint (for S3-compatible stores).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// AccessKeyID and SecretAccessKey are static S3 credentials. When unset
	// the default AWS credential chain is used.
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty"`
	// CredentialsFile is the GCS service account file.
	CredentialsFile string `json:"credentials_file,omitempty" yaml:"credentials_file,omitempty"`
	// AccountName is the Azure storage account.
	AccountName string `json:"account_name,omitempty" yaml:"account_name,omitempty"`
	// AccountKey is the Azure shared key.
	AccountKey string `json:"account_key,omitempty" yaml:"account_key,omitempty"`
	// ConnectionString is the Azure connection string.
	ConnectionString string `json:"connection_string,omitempty" yaml:"connection_string,omitempty"`
}

// CacheConfig configures the cache of rendered exports.
type CacheConfig struct {
	// Enabled turns the cache on.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Addr is a Redis address, "memory", "badger:<dir>" or "dynamodb:<table>".
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`
	// Password is the Redis password.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	// DB is the Redis database number.
	DB int `json:"db,omitempty" yaml:"db,omitempty"`
	// TTL is how long rendered exports are kept.
	TTL Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	// KeyPrefix namespaces cache keys.
	KeyPrefix string `json:"key_prefix,omitempty" yaml:"key_prefix,omitempty"`
	// Sliding renews the TTL of a Redis entry on every hit.
	Sliding bool `json:"sliding,omitempty" yaml:"sliding,omitempty"`
}

// ObservabilityConfig configures tracing and metrics.
type ObservabilityConfig struct {
	// ServiceName is reported in telemetry resources.
	ServiceName string `json:"service_name,omitempty" yaml:"service_name,omitempty"`
	// Tracing configures traces.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	// Metrics enables metrics.
	Metrics bool `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// TracingConfig configures traces.
type TracingConfig struct {
	// Enabled turns tracing on.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Exporter is otlp, stdout or noop.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP endpoint.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS for OTLP.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the trace sampling ratio in [0,1].
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// ResilienceConfig contains resilience settings.
type ResilienceConfig struct {
	// Retry configures retries of remote calls.
	Retry RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// CircuitBreaker configures the breaker around remote calls.
	CircuitBreaker CircuitBreakerConfig `json:"circuit_breaker,omitempty" yaml:"circuit_breaker,omitempty"`
	// Bulkhead limits concurrent renders.
	Bulkhead BulkheadConfig `json:"bulkhead,omitempty" yaml:"bulkhead,omitempty"`
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	// Enabled enables retry.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// MaxAttempts is the maximum number of attempts.
	MaxAttempts int `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty"`
	// InitialDelay is the first retry delay.
	InitialDelay Duration `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
	// Multiplier is the backoff multiplier.
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// CircuitBreakerConfig configures circuit breaker behavior.
type CircuitBreakerConfig struct {
	// Enabled enables the circuit breaker.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Threshold is consecutive failures before opening.
	Threshold int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	// Timeout is how long the circuit stays open.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// BulkheadConfig configures bulkhead behavior.
type BulkheadConfig struct {
	// Enabled enables the bulkhead.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// MaxConcurrent is the maximum number of concurrent renders.
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
}

// Default returns a configuration with documented defaults.
func Default() *Config {
	return &Config{
		Name:    "chartforge",
		Version: "1",
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			MaxBodyBytes:    1 << 20,
		},
		Export: ExportConfig{
			Format:  "png",
			Width:   1000,
			Height:  600,
			DPI:     300,
			Timeout: Duration(30 * time.Second),
		},
		Compose: ComposeConfig{Height: 700, Title: "Gráficos Acoplados"},
		Storage: StorageConfig{Backend: "none"},
		Cache:   CacheConfig{Addr: "localhost:6379", TTL: Duration(time.Hour), KeyPrefix: "chartforge:"},
		Observability: ObservabilityConfig{
			ServiceName: "chartforge",
			Tracing:     TracingConfig{Exporter: "noop", SampleRate: 1},
		},
		Resilience: ResilienceConfig{
			Retry:          RetryConfig{Enabled: true, MaxAttempts: 3, InitialDelay: Duration(100 * time.Millisecond), Multiplier: 2},
			CircuitBreaker: CircuitBreakerConfig{Enabled: true, Threshold: 5, Timeout: Duration(30 * time.Second)},
			Bulkhead:       BulkheadConfig{Enabled: true, MaxConcurrent: 4},
		},
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
