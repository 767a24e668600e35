package config

import "encoding/json"

// JSONSchema is the subset of JSON Schema (draft 2020-12) the
// configuration document needs.
type JSONSchema struct {
	Schema      string                 `json:"$schema,omitempty"`
	ID          string                 `json:"$id,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Description string                 `json:"description,omitempty"`
	Type        string                 `json:"type,omitempty"`
	Format      string                 `json:"format,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Items       *JSONSchema            `json:"items,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
	Default     any                    `json:"default,omitempty"`
	Minimum     *float64               `json:"minimum,omitempty"`
	Maximum     *float64               `json:"maximum,omitempty"`
}

func object(desc string, props map[string]*JSONSchema) *JSONSchema {
	return &JSONSchema{Type: "object", Description: desc, Properties: props}
}

func text(desc string) *JSONSchema { return &JSONSchema{Type: "string", Description: desc} }

func textDefault(desc, def string) *JSONSchema {
	s := text(desc)
	s.Default = def
	return s
}

func oneOf(def string, values ...string) *JSONSchema {
	return &JSONSchema{Type: "string", Enum: values, Default: def}
}

func flag(desc string, def bool) *JSONSchema {
	return &JSONSchema{Type: "boolean", Description: desc, Default: def}
}

func bound(f float64) *float64 { return &f }

func atLeast(desc string, lo float64, def any) *JSONSchema {
	return &JSONSchema{Type: "integer", Description: desc, Minimum: bound(lo), Default: def}
}

// duration values are Go duration strings such as "250ms" or "1h".
func duration(desc, def string) *JSONSchema {
	return &JSONSchema{Type: "string", Format: "duration", Description: desc, Default: def}
}

// GenerateSchema describes the configuration file. Defaults mirror
// config.Default.
func GenerateSchema() *JSONSchema {
	root := object("Configuration of the chartforge compiler, its datasets and its outer surfaces", map[string]*JSONSchema{
		"name":    textDefault("Deployment name", "chartforge"),
		"version": textDefault("Configuration format version", "1"),
		"logging": object("Structured logging", map[string]*JSONSchema{
			"level":  oneOf("info", "trace", "debug", "info", "warn", "error"),
			"format": oneOf("console", "json", "console"),
		}),
		"server": object("HTTP API", map[string]*JSONSchema{
			"addr":             textDefault("Listen address", ":8080"),
			"read_timeout":     duration("Bound on reading a request", "15s"),
			"write_timeout":    duration("Bound on writing a response", "60s"),
			"shutdown_timeout": duration("Bound on graceful shutdown", "10s"),
			"max_body_bytes":   atLeast("Request body limit", 0, 1<<20),
		}),
		"export": object("Default export request", map[string]*JSONSchema{
			"format":  oneOf("png", "png", "jpeg", "jpg", "webp", "svg", "pdf", "eps"),
			"width":   atLeast("Width in pixels", 0, 1000),
			"height":  atLeast("Height in pixels", 0, 600),
			"dpi":     atLeast("Raster resolution", 0, 300),
			"timeout": duration("Bound on one render", "30s"),
		}),
		"compose": object("Composite figure defaults", map[string]*JSONSchema{
			"height":      atLeast("Figure height in pixels", 0, 700),
			"title":       textDefault("Figure title", "Gráficos Acoplados"),
			"hide_legend": flag("Hide the shared legend", false),
		}),
		"sources": {
			Type:        "array",
			Description: "Datasets loaded at startup",
			Items:       sourceSchema(),
		},
		"storage":       storageSchema(),
		"cache":         cacheSchema(),
		"observability": observabilitySchema(),
		"resilience":    resilienceSchema(),
	})
	root.Schema = "https://json-schema.org/draft/2020-12/schema"
	root.ID = "https://github.com/felixgeelhaar/chartforge/chartforge.schema.json"
	root.Title = "Chartforge Configuration"
	root.Required = []string{"name", "version"}
	return root
}

func sourceSchema() *JSONSchema {
	kind := &JSONSchema{
		Type:        "string",
		Description: "Source kind; file kinds default to the path extension",
		Enum:        []string{"csv", "xlsx", "parquet", "postgres", "sqlite", "mongodb"},
	}
	s := object("One dataset", map[string]*JSONSchema{
		"name":       text("Dataset name used by the API"),
		"kind":       kind,
		"paths":      {Type: "array", Description: "Files to load and stack", Items: &JSONSchema{Type: "string"}},
		"sheet":      text("Worksheet (xlsx)"),
		"dsn":        text("Connection string (postgres, sqlite, mongodb)"),
		"query":      text("SQL query (postgres, sqlite)"),
		"database":   text("MongoDB database"),
		"collection": text("MongoDB collection"),
		"limit":      atLeast("Row cap, 0 for none", 0, nil),
	})
	s.Required = []string{"name"}
	return s
}

func storageSchema() *JSONSchema {
	return object("Artifact store for published exports", map[string]*JSONSchema{
		"backend":           oneOf("none", "none", "memory", "filesystem", "s3", "gcs", "azure"),
		"dir":               text("Filesystem root"),
		"bucket":            text("S3/GCS bucket or Azure container"),
		"prefix":            text("Object key prefix"),
		"region":            text("S3 region"),
		"endpoint":          text("S3-compatible endpoint"),
		"access_key_id":     text("Static S3 access key"),
		"secret_access_key": text("Static S3 secret key"),
		"credentials_file":  text("GCS service account file"),
		"account_name":      text("Azure storage account"),
		"account_key":       text("Azure shared key"),
		"connection_string": text("Azure connection string"),
	})
}

func cacheSchema() *JSONSchema {
	return object("Cache of rendered exports", map[string]*JSONSchema{
		"enabled":    flag("Cache rendered exports", false),
		"addr":       textDefault("Redis address or URL; memory, badger:<dir> or dynamodb:<table> pick another backend", "localhost:6379"),
		"password":   text("Redis password"),
		"db":         atLeast("Redis database", 0, nil),
		"ttl":        duration("Entry lifetime", "1h"),
		"key_prefix": textDefault("Key namespace", "chartforge:"),
		"sliding":    flag("Restart the TTL on every hit", false),
	})
}

func observabilitySchema() *JSONSchema {
	return object("Tracing and metrics", map[string]*JSONSchema{
		"service_name": textDefault("OpenTelemetry service name", "chartforge"),
		"metrics":      flag("Record metrics", false),
		"tracing": object("Span export", map[string]*JSONSchema{
			"enabled":     flag("Export spans", false),
			"exporter":    oneOf("noop", "noop", "stdout", "otlp"),
			"endpoint":    text("OTLP gRPC endpoint"),
			"insecure":    flag("Plaintext OTLP", false),
			"sample_rate": {Type: "number", Minimum: bound(0), Maximum: bound(1), Default: 1.0},
		}),
	})
}

func resilienceSchema() *JSONSchema {
	return object("Guards around rendering and remote calls", map[string]*JSONSchema{
		"retry": object("Retries of idempotent remote calls", map[string]*JSONSchema{
			"enabled":       flag("", true),
			"max_attempts":  atLeast("", 1, 3),
			"initial_delay": duration("", "100ms"),
			"multiplier":    {Type: "number", Minimum: bound(1), Default: 2.0},
		}),
		"circuit_breaker": object("One breaker per remote target", map[string]*JSONSchema{
			"enabled":   flag("", true),
			"threshold": atLeast("Failures before opening", 1, 5),
			"timeout":   duration("How long an open breaker rejects calls", "30s"),
		}),
		"bulkhead": object("Render concurrency", map[string]*JSONSchema{
			"enabled":        flag("", true),
			"max_concurrent": atLeast("Maximum concurrent renders", 1, 4),
		}),
	})
}

// SchemaJSON renders GenerateSchema as indented JSON.
func SchemaJSON() (string, error) {
	data, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
