// This file provides configuration-related exports and the service
// assembly from a configuration file.
package api

import (
	"context"
	"fmt"

	domainconfig "github.com/felixgeelhaar/chartforge/domain/config"
	infraconfig "github.com/felixgeelhaar/chartforge/infrastructure/config"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
	"github.com/felixgeelhaar/chartforge/infrastructure/observability"
	"github.com/felixgeelhaar/chartforge/infrastructure/resilience"
	"github.com/felixgeelhaar/chartforge/infrastructure/storage"
)

// Re-export domain configuration types.
type (
	// Config represents the complete service configuration.
	Config = domainconfig.Config
	// SourceConfig describes one dataset.
	SourceConfig = domainconfig.SourceConfig
	// StorageConfig selects the artifact store.
	StorageConfig = domainconfig.StorageConfig
	// CacheConfig configures the export cache.
	CacheConfig = domainconfig.CacheConfig
	// ConfigDuration is a time.Duration that supports JSON/YAML string representation.
	ConfigDuration = domainconfig.Duration

	// ValidationError represents a configuration validation error.
	ValidationError = domainconfig.ValidationError
	// ValidationErrors is a collection of validation errors.
	ValidationErrors = domainconfig.ValidationErrors
)

// Re-export infrastructure configuration types.
type (
	// ConfigLoader loads configuration from files.
	ConfigLoader = infraconfig.Loader
	// ConfigLoaderOption configures the loader.
	ConfigLoaderOption = infraconfig.LoaderOption
	// JSONSchema represents a JSON Schema document.
	JSONSchema = infraconfig.JSONSchema
)

// Configuration errors.
var (
	// ErrConfigNotFound indicates the configuration file was not found.
	ErrConfigNotFound = domainconfig.ErrConfigNotFound
	// ErrValidationFailed indicates configuration validation failed.
	ErrValidationFailed = domainconfig.ErrValidationFailed
	// ErrMissingEnvVar indicates a required environment variable is not set.
	ErrMissingEnvVar = domainconfig.ErrMissingEnvVar
)

// DefaultConfig returns the documented default configuration.
func DefaultConfig() *Config {
	return domainconfig.Default()
}

// LoadConfig reads a YAML or JSON configuration file with environment
// expansion and validation.
func LoadConfig(path string, opts ...ConfigLoaderOption) (*Config, error) {
	return infraconfig.NewLoader(opts...).LoadFile(path)
}

// ConfigWithStrictEnv enables strict environment variable checking.
func ConfigWithStrictEnv(enabled bool) ConfigLoaderOption {
	return infraconfig.WithStrictEnv(enabled)
}

// ConfigSchemaJSON returns the configuration JSON Schema as a JSON string.
func ConfigSchemaJSON() (string, error) {
	return infraconfig.SchemaJSON()
}

// NewFromConfig assembles a service from configuration: logging, telemetry,
// the resilience executor, the artifact store, the export cache and the
// dataset sources. Extra options are applied last.
func NewFromConfig(ctx context.Context, cfg *Config, extra ...Option) (*Service, error) {
	built, err := infraconfig.NewBuilder(cfg).Build()
	if err != nil {
		return nil, err
	}

	logging.Init(built.Logging)

	obsOpts := observability.FromConfig(cfg.Observability)
	if cfg.Version != "" {
		obsOpts = append(obsOpts, observability.WithServiceVersion(cfg.Version))
	}
	provider, err := observability.New(obsOpts...)
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}

	store, closeStore, err := storage.NewArtifactStore(ctx, cfg.Storage)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	cache, closeCache, err := storage.NewExportCache(ctx, cfg.Cache)
	if err != nil {
		_ = closeStore()
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	opts := []Option{
		WithExecutor(resilience.NewExecutor(built.Executor)),
		WithObservability(provider),
		WithExportDefaults(built.Export),
		WithComposeOptions(built.Compose),
		withCloser(closeStore),
		withCloser(closeCache),
	}
	if store != nil {
		opts = append(opts, WithArtifactStore(store))
	}
	if cache != nil {
		opts = append(opts, WithExportCache(cache))
	}
	for _, src := range built.Sources {
		opts = append(opts, WithSource(src))
	}

	svc, err := New(append(opts, extra...)...)
	if err != nil {
		_ = closeCache()
		_ = closeStore()
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	logging.Info().
		Add(logging.Str("name", cfg.Name)).
		Add(logging.Str("datasets", fmt.Sprint(len(built.Sources)))).
		Add(logging.Str("storage", cfg.Storage.Backend)).
		Msg("service ready")

	return svc, nil
}
