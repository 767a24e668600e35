// Package config loads chartforge configuration files and builds runtime
// settings from them.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/chartforge/domain/config"
)

// Format represents a configuration file format.
type Format string

const (
	// FormatYAML is the YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is the JSON format.
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", config.ErrUnsupportedFormat, ext)
	}
}

// Loader reads configuration files on top of config.Default, so a file
// only carries the sections it changes. By default ${VAR} references are
// expanded and the result is validated.
type Loader struct {
	expand   bool
	strict   bool
	validate bool
}

// LoaderOption adjusts a Loader.
type LoaderOption func(*Loader)

// WithStrictEnv fails the load when a referenced variable is unset.
func WithStrictEnv(strict bool) LoaderOption { return func(l *Loader) { l.strict = strict } }

// WithoutEnvExpansion keeps ${VAR} references verbatim.
func WithoutEnvExpansion() LoaderOption { return func(l *Loader) { l.expand = false } }

// WithoutValidation returns whatever the file decodes to.
func WithoutValidation() LoaderOption { return func(l *Loader) { l.validate = false } }

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{expand: true, validate: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads path. Relative source paths and a relative filesystem
// storage directory are anchored at the file's directory.
func (l *Loader) LoadFile(path string) (*config.Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", config.ErrInvalidFormat, path)
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path is chosen by the operator
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := l.parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	resolvePaths(cfg, filepath.Dir(path))

	if err := l.check(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load decodes configuration from r. Relative paths are kept as they are.
func (l *Loader) Load(r io.Reader, format Format) (*config.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := l.parse(data, format)
	if err != nil {
		return nil, err
	}
	if err := l.check(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) LoadString(content string, format Format) (*config.Config, error) {
	return l.Load(strings.NewReader(content), format)
}

func (l *Loader) parse(data []byte, format Format) (*config.Config, error) {
	if l.expand {
		expanded, err := (&envExpander{strict: l.strict}).Expand(string(data))
		if err != nil {
			return nil, err
		}
		data = []byte(expanded)
	}

	cfg := config.Default()
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, cfg)
	case FormatJSON:
		err = json.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
	}
	return cfg, nil
}

func (l *Loader) check(cfg *config.Config) error {
	if !l.validate {
		return nil
	}
	if errs := config.NewValidator().Validate(cfg); errs.HasErrors() {
		return fmt.Errorf("%w: %v", config.ErrValidationFailed, errs)
	}
	return nil
}

// resolvePaths anchors relative file references at dir.
// Database sources are left alone; their DSN is not a path.
func resolvePaths(cfg *config.Config, dir string) {
	for i := range cfg.Sources {
		for j, p := range cfg.Sources[i].Paths {
			cfg.Sources[i].Paths[j] = anchor(dir, p)
		}
	}
	if cfg.Storage.Backend == "filesystem" && cfg.Storage.Dir != "" {
		cfg.Storage.Dir = anchor(dir, cfg.Storage.Dir)
	}
}

func anchor(dir, p string) string {
	if p == "" || filepath.IsAbs(p) || strings.Contains(p, "://") {
		return p
	}
	return filepath.Join(dir, p)
}
