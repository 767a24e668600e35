package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/felixgeelhaar/chartforge/interfaces/api"
)

// loadConfig reads the configuration file, or the defaults without one,
// and adds the datasets given with --data.
func (a *App) loadConfig() (*api.Config, error) {
	cfg := api.DefaultConfig()
	if a.global.configPath != "" {
		loaded, err := api.LoadConfig(a.global.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		cfg = loaded
	}

	names := make([]string, 0, len(a.global.data))
	for name := range a.global.data {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if slices.ContainsFunc(cfg.Sources, func(s api.SourceConfig) bool { return s.Name == name }) {
			return nil, fmt.Errorf("dataset %q is already configured", name)
		}
		cfg.Sources = append(cfg.Sources, api.SourceConfig{
			Name:  name,
			Paths: strings.Split(a.global.data[name], ","),
		})
	}

	if a.global.logLevel != "" {
		cfg.Logging.Level = a.global.logLevel
	}
	return cfg, nil
}

// openService assembles the service. The caller must Close it.
func (a *App) openService(ctx context.Context) (*api.Service, *api.Config, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	svc, err := api.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start: %w", err)
	}
	return svc, cfg, nil
}

// withService runs fn with an open service and closes it afterwards.
func (a *App) withService(ctx context.Context, fn func(*api.Service) error) error {
	svc, _, err := a.openService(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := svc.Close(context.WithoutCancel(ctx)); cerr != nil {
			_, _ = fmt.Fprintf(a.stderr, "warning: %v\n", cerr)
		}
	}()
	return fn(svc)
}

// requestOptions are the flags of commands that read a request document.
type requestOptions struct {
	requestPath string
	dataset     string
}

// load reads the request document. --dataset overrides the document's
// dataset, and is required when a configuration has several.
func (o *requestOptions) load(svc *api.Service) (api.Document, error) {
	doc, err := api.LoadDocument(o.requestPath)
	if err != nil {
		return api.Document{}, fmt.Errorf("failed to read request: %w", err)
	}
	if o.dataset != "" {
		doc.Dataset = o.dataset
	}
	if doc.Dataset == "" {
		datasets := svc.Datasets()
		if len(datasets) != 1 {
			return api.Document{}, fmt.Errorf("%w: request names no dataset (use --dataset)", api.ErrInvalidDocument)
		}
		doc.Dataset = datasets[0].Name
	}
	return doc, nil
}

// writeJSON writes v as indented JSON.
func (a *App) writeJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
