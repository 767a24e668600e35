// Package loader reads datasets from files and databases.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/chartforge/domain/config"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
	"github.com/felixgeelhaar/chartforge/infrastructure/resilience"
)

// Errors returned by loaders.
var (
	// ErrUnsupportedSource indicates a source kind or file extension with
	// no registered reader.
	ErrUnsupportedSource = errors.New("unsupported data source")

	// ErrNoData indicates a source without a header row or columns.
	ErrNoData = errors.New("source has no columns")
)

// Source kinds.
const (
	KindCSV      = "csv"
	KindXLSX     = "xlsx"
	KindParquet  = "parquet"
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
	KindMongoDB  = "mongodb"
)

// Table is tabular data before kind inference. Cells hold Go values as
// the driver returned them; strings are inferred later.
type Table struct {
	Header []string
	Rows   [][]any
}

// Reader reads one location of a source. For file kinds the location is
// the path; other kinds ignore it.
type Reader interface {
	Read(ctx context.Context, src config.SourceConfig, path string) (*Table, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, src config.SourceConfig, path string) (*Table, error)

// Read implements Reader.
func (f ReaderFunc) Read(ctx context.Context, src config.SourceConfig, path string) (*Table, error) {
	return f(ctx, src, path)
}

// Loader loads a dataset from a configured source.
type Loader interface {
	Load(ctx context.Context, src config.SourceConfig) (*dataset.Dataset, error)
}

// Registry dispatches sources to readers by kind.
type Registry struct {
	readers  map[string]Reader
	remote   map[string]bool
	executor *resilience.Executor
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithReader registers r for kind, replacing any existing reader.
func WithReader(kind string, r Reader) RegistryOption {
	return func(reg *Registry) {
		reg.readers[kind] = r
	}
}

// WithExecutor runs database reads through e.
func WithExecutor(e *resilience.Executor) RegistryOption {
	return func(reg *Registry) {
		reg.executor = e
	}
}

// NewRegistry returns a registry with readers for every built-in kind.
func NewRegistry(opts ...RegistryOption) *Registry {
	reg := &Registry{
		readers: map[string]Reader{
			KindCSV:      CSVReader{},
			KindXLSX:     ExcelReader{},
			KindParquet:  ParquetReader{},
			KindPostgres: NewPostgresReader(),
			KindSQLite:   SQLiteReader{},
			KindMongoDB:  NewMongoReader(),
		},
		remote: map[string]bool{KindPostgres: true, KindMongoDB: true},
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// Load reads src. Several paths are read in order and stacked; columns
// missing from one file are null in its rows.
func (r *Registry) Load(ctx context.Context, src config.SourceConfig) (*dataset.Dataset, error) {
	start := time.Now()
	kind := config.SourceKind(src)
	reader, ok := r.readers[kind]
	if !ok {
		if kind == "" && len(src.Paths) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedSource, src.Paths[0])
		}
		return nil, fmt.Errorf("%w: kind %q", ErrUnsupportedSource, src.Kind)
	}

	paths := src.Paths
	if len(paths) == 0 {
		paths = []string{""}
	}
	tables := make([]*Table, 0, len(paths))
	for _, p := range paths {
		if kind != config.SourceKind(config.SourceConfig{Kind: src.Kind, Paths: []string{p}}) && p != "" {
			return nil, fmt.Errorf("%w: %s is not %s", ErrUnsupportedSource, p, kind)
		}
		t, err := r.read(ctx, reader, kind, src, p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", describe(src, p), err)
		}
		tables = append(tables, t)
	}

	merged := stack(tables)
	if src.Limit > 0 && len(merged.Rows) > src.Limit {
		merged.Rows = merged.Rows[:src.Limit]
	}
	ds, err := dataset.FromRows(merged.Header, merged.Rows)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name, err)
	}

	logging.Info().
		Add(logging.Dataset(src.Name)).
		Add(logging.Source(kind)).
		Add(logging.Rows(ds.Len())).
		Add(logging.Columns(ds.Width())).
		Add(logging.Duration(time.Since(start))).
		Msg("Dataset loaded")
	return ds, nil
}

func (r *Registry) read(ctx context.Context, reader Reader, kind string, src config.SourceConfig, path string) (*Table, error) {
	if r.executor == nil || !r.remote[kind] {
		return reader.Read(ctx, src, path)
	}
	return resilience.Do(ctx, r.executor, resilience.TargetSource+kind, true, func(ctx context.Context) (*Table, error) {
		return reader.Read(ctx, src, path)
	})
}

func describe(src config.SourceConfig, path string) string {
	if path != "" {
		return path
	}
	return src.Name
}

// stack concatenates tables, aligning columns by name in order of first
// appearance.
func stack(tables []*Table) *Table {
	if len(tables) == 1 {
		return tables[0]
	}
	out := &Table{}
	index := make(map[string]int)
	for _, t := range tables {
		for _, h := range t.Header {
			if _, ok := index[h]; !ok {
				index[h] = len(out.Header)
				out.Header = append(out.Header, h)
			}
		}
	}
	for _, t := range tables {
		for _, row := range t.Rows {
			aligned := make([]any, len(out.Header))
			for i, h := range t.Header {
				if i < len(row) {
					aligned[index[h]] = row[i]
				}
			}
			out.Rows = append(out.Rows, aligned)
		}
	}
	return out
}

// header normalizes column names: trims them and names blank ones by
// position.
func header(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, ErrNoData
	}
	out := make([]string, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			n = fmt.Sprintf("column_%d", i+1)
		}
		out[i] = n
	}
	return out, nil
}

// stringRows converts string records to table rows. Empty cells stay
// strings so kind inference treats them as null tokens.
func stringRows(records [][]string) [][]any {
	rows := make([][]any, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, s := range rec {
			row[j] = s
		}
		rows[i] = row
	}
	return rows
}
