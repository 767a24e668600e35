package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the JSON path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates chartforge configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *Config) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateLogging(config)
	v.validateServer(config)
	v.validateExport(config)
	v.validateSources(config)
	v.validateStorage(config)
	v.validateCache(config)
	v.validateObservability(config)
	v.validateResilience(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *Config) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
}

func (v *Validator) validateLogging(config *Config) {
	switch strings.ToLower(config.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "warning", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("unknown level %q", config.Logging.Level))
	}
	switch config.Logging.Format {
	case "", "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("unknown format %q (json or console)", config.Logging.Format))
	}
}

func (v *Validator) validateServer(config *Config) {
	s := config.Server
	if s.ReadTimeout < 0 {
		v.addError("server.read_timeout", "must not be negative")
	}
	if s.WriteTimeout < 0 {
		v.addError("server.write_timeout", "must not be negative")
	}
	if s.ShutdownTimeout < 0 {
		v.addError("server.shutdown_timeout", "must not be negative")
	}
	if s.MaxBodyBytes < 0 {
		v.addError("server.max_body_bytes", "must not be negative")
	}
}

var exportFormats = map[string]bool{
	"png": true, "jpeg": true, "jpg": true, "webp": true, "svg": true, "pdf": true, "eps": true,
}

func (v *Validator) validateExport(config *Config) {
	e := config.Export
	if e.Format != "" && !exportFormats[strings.ToLower(e.Format)] {
		v.addError("export.format", fmt.Sprintf("unsupported format %q", e.Format))
	}
	if e.Width < 0 {
		v.addError("export.width", "must not be negative")
	}
	if e.Height < 0 {
		v.addError("export.height", "must not be negative")
	}
	if e.DPI < 0 {
		v.addError("export.dpi", "must not be negative")
	}
	if config.Compose.Height < 0 {
		v.addError("compose.height", "must not be negative")
	}
}

func (v *Validator) validateSources(config *Config) {
	seen := make(map[string]bool, len(config.Sources))
	for i, src := range config.Sources {
		path := fmt.Sprintf("sources[%d]", i)
		if src.Name == "" {
			v.addError(path+".name", "name is required")
		} else if seen[src.Name] {
			v.addError(path+".name", fmt.Sprintf("duplicate source %q", src.Name))
		}
		seen[src.Name] = true

		if src.Limit < 0 {
			v.addError(path+".limit", "must not be negative")
		}

		switch SourceKind(src) {
		case "csv", "xlsx", "parquet":
			if len(src.Paths) == 0 {
				v.addError(path+".paths", "at least one path is required")
			}
		case "postgres", "sqlite":
			if src.DSN == "" && len(src.Paths) == 0 {
				v.addError(path+".dsn", "dsn is required")
			}
			if src.Query == "" {
				v.addError(path+".query", "query is required")
			}
		case "mongodb":
			if src.DSN == "" {
				v.addError(path+".dsn", "dsn is required")
			}
			if src.Database == "" {
				v.addError(path+".database", "database is required")
			}
			if src.Collection == "" {
				v.addError(path+".collection", "collection is required")
			}
		case "":
			v.addError(path+".kind", "kind is required when it cannot be taken from the paths")
		default:
			v.addError(path+".kind", fmt.Sprintf("unknown kind %q", src.Kind))
		}
	}
}

// SourceKind returns the source kind, taking it from the first path's
// extension when Kind is empty.
func SourceKind(src SourceConfig) string {
	if src.Kind != "" {
		return strings.ToLower(src.Kind)
	}
	if len(src.Paths) == 0 {
		return ""
	}
	switch strings.ToLower(filepath.Ext(src.Paths[0])) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xls":
		return "xlsx"
	case ".parquet":
		return "parquet"
	case ".db", ".sqlite", ".sqlite3":
		return "sqlite"
	}
	return ""
}

func (v *Validator) validateStorage(config *Config) {
	s := config.Storage
	switch s.Backend {
	case "", "none", "memory":
	case "filesystem":
		if s.Dir == "" {
			v.addError("storage.dir", "dir is required for the filesystem backend")
		}
	case "s3", "gcs":
		if s.Bucket == "" {
			v.addError("storage.bucket", fmt.Sprintf("bucket is required for the %s backend", s.Backend))
		}
	case "azure":
		if s.Bucket == "" {
			v.addError("storage.bucket", "container is required for the azure backend")
		}
		if s.ConnectionString == "" && s.AccountName == "" {
			v.addError("storage.account_name", "account_name or connection_string is required")
		}
	default:
		v.addError("storage.backend", fmt.Sprintf("unknown backend %q", s.Backend))
	}
}

func (v *Validator) validateCache(config *Config) {
	c := config.Cache
	if !c.Enabled {
		return
	}
	if c.Addr == "" {
		v.addError("cache.addr", "addr is required when the cache is enabled")
	}
	if c.TTL <= 0 {
		v.addError("cache.ttl", "must be positive")
	}
	if c.DB < 0 {
		v.addError("cache.db", "must not be negative")
	}
}

func (v *Validator) validateObservability(config *Config) {
	t := config.Observability.Tracing
	if !t.Enabled {
		return
	}
	switch t.Exporter {
	case "", "noop", "stdout":
	case "otlp":
		if t.Endpoint == "" {
			v.addError("observability.tracing.endpoint", "endpoint is required for the otlp exporter")
		}
	default:
		v.addError("observability.tracing.exporter", fmt.Sprintf("unknown exporter %q", t.Exporter))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		v.addError("observability.tracing.sample_rate", "must be between 0 and 1")
	}
}

func (v *Validator) validateResilience(config *Config) {
	r := config.Resilience
	if r.Retry.Enabled {
		if r.Retry.MaxAttempts < 1 {
			v.addError("resilience.retry.max_attempts", "must be at least 1")
		}
		if r.Retry.Multiplier != 0 && r.Retry.Multiplier < 1 {
			v.addError("resilience.retry.multiplier", "must be at least 1")
		}
	}
	if r.CircuitBreaker.Enabled && r.CircuitBreaker.Threshold < 1 {
		v.addError("resilience.circuit_breaker.threshold", "must be at least 1")
	}
	if r.Bulkhead.Enabled && r.Bulkhead.MaxConcurrent < 1 {
		v.addError("resilience.bulkhead.max_concurrent", "must be at least 1")
	}
}
