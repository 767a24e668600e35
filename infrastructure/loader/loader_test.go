package loader

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"

	"github.com/felixgeelhaar/chartforge/domain/config"
	"github.com/felixgeelhaar/chartforge/domain/dataset"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func kindOf(t *testing.T, ds *dataset.Dataset, col string) dataset.Kind {
	t.Helper()
	k, ok := ds.Kind(col)
	if !ok {
		t.Fatalf("column %q missing", col)
	}
	return k
}

func TestRegistry_CSV(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "sales.csv", "\ufeffregion,revenue,day\nNorth,10,2024-01-01\nSouth,NA,2024-01-02\n,30,2024-01-03\n")
	ds, err := NewRegistry().Load(context.Background(), config.SourceConfig{Name: "sales", Paths: []string{path}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Len() != 3 {
		t.Errorf("Len() = %d, want 3", ds.Len())
	}

	tests := []struct {
		col  string
		want dataset.Kind
	}{
		{"region", dataset.KindCategorical},
		{"revenue", dataset.KindNumeric},
		{"day", dataset.KindDatetime},
	}
	for _, tt := range tests {
		if got := kindOf(t, ds, tt.col); got != tt.want {
			t.Errorf("Kind(%s) = %v, want %v", tt.col, got, tt.want)
		}
	}

	vals, _ := ds.Values("revenue")
	if !vals[1].IsNull() {
		t.Errorf("revenue[1] = %v, want null", vals[1])
	}
	regions, _ := ds.Values("region")
	if !regions[2].IsNull() {
		t.Errorf("region[2] = %v, want null", regions[2])
	}
}

func TestRegistry_StacksFiles(t *testing.T) {
	t.Parallel()

	a := writeFile(t, "a.csv", "region,revenue\nNorth,10\n")
	b := writeFile(t, "b.csv", "revenue,units\n20,2\n30,3\n")

	ds, err := NewRegistry().Load(context.Background(), config.SourceConfig{Name: "both", Paths: []string{a, b}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Len() != 3 || ds.Width() != 3 {
		t.Fatalf("shape = %dx%d, want 3x3", ds.Len(), ds.Width())
	}
	if got := ds.Columns(); got[0] != "region" || got[2] != "units" {
		t.Errorf("Columns() = %v", got)
	}
	units, _ := ds.Floats("units")
	if units[2] != 3 {
		t.Errorf("units = %v", units)
	}
	regions, _ := ds.Values("region")
	if !regions[1].IsNull() {
		t.Errorf("region[1] = %v, want null", regions[1])
	}
}

func TestRegistry_Limit(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "n.csv", "n\n1\n2\n3\n4\n")
	ds, err := NewRegistry().Load(context.Background(), config.SourceConfig{Name: "n", Paths: []string{path}, Limit: 2})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ds.Len())
	}
}

func TestRegistry_Errors(t *testing.T) {
	t.Parallel()

	csvPath := writeFile(t, "a.csv", "x\n1\n")
	tests := []struct {
		name string
		src  config.SourceConfig
		want error
	}{
		{"unknown extension", config.SourceConfig{Name: "s", Paths: []string{"data.json"}}, ErrUnsupportedSource},
		{"unknown kind", config.SourceConfig{Name: "s", Kind: "feather"}, ErrUnsupportedSource},
		{"mixed extensions", config.SourceConfig{Name: "s", Paths: []string{csvPath, "b.parquet"}}, ErrUnsupportedSource},
		{"empty csv", config.SourceConfig{Name: "s", Paths: []string{writeFile(t, "e.csv", "")}}, ErrNoData},
		{"missing file", config.SourceConfig{Name: "s", Paths: []string{filepath.Join(t.TempDir(), "nope.csv")}}, os.ErrNotExist},
		{"sqlite without query", config.SourceConfig{Name: "s", Kind: "sqlite", DSN: "file::memory:"}, ErrMissingQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := NewRegistry().Load(context.Background(), tt.src); !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegistry_CustomReader(t *testing.T) {
	t.Parallel()

	reader := ReaderFunc(func(_ context.Context, src config.SourceConfig, _ string) (*Table, error) {
		return &Table{Header: []string{"label", ""}, Rows: [][]any{{src.Name, int64(1)}}}, nil
	})
	reg := NewRegistry(WithReader("memory", reader))
	ds, err := reg.Load(context.Background(), config.SourceConfig{Name: "fixture", Kind: "memory"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := ds.Columns(); len(got) != 2 || got[1] != "column_2" {
		t.Errorf("Columns() = %v, want [label column_2]", got)
	}
	if kindOf(t, ds, "column_2") != dataset.KindNumeric {
		t.Error("int64 cells should be numeric")
	}
}

func TestExcelReader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	if _, err := f.NewSheet("Data"); err != nil {
		t.Fatalf("NewSheet() error = %v", err)
	}
	rows := [][]any{{"team", "score"}, {"red", 3}, {"blue", 5}}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Data", cell, &row); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	_ = f.Close()

	ds, err := NewRegistry().Load(context.Background(), config.SourceConfig{Name: "book", Paths: []string{path}, Sheet: "Data"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	scores, err := ds.Floats("score")
	if err != nil || len(scores) != 2 || scores[1] != 5 {
		t.Errorf("score = %v (%v), want [3 5]", scores, err)
	}
}

type parquetRow struct {
	City string  `parquet:"city"`
	Temp float64 `parquet:"temp"`
}

func TestParquetReader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "weather.parquet")
	if err := parquet.WriteFile(path, []parquetRow{{"Oslo", -2.5}, {"Rome", 14}}); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	ds, err := NewRegistry().Load(context.Background(), config.SourceConfig{Name: "weather", Paths: []string{path}})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := ds.Columns(); len(got) != 2 || got[0] != "city" {
		t.Errorf("Columns() = %v", got)
	}
	temps, err := ds.Floats("temp")
	if err != nil || temps[0] != -2.5 {
		t.Errorf("temp = %v (%v)", temps, err)
	}
}

func TestSQLiteReader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "shop.db")
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	stmts := []string{
		`CREATE TABLE orders (shop TEXT, amount REAL, qty INTEGER)`,
		`INSERT INTO orders VALUES ('a', 1.5, 1), ('b', 2.5, 2), ('a', NULL, 3)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("Exec(%q) error = %v", s, err)
		}
	}
	_ = db.Close()

	src := config.SourceConfig{Name: "orders", Kind: "sqlite", Paths: []string{path}, Query: "SELECT shop, amount, qty FROM orders;", Limit: 2}
	ds, err := NewRegistry().Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ds.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ds.Len())
	}
	if kindOf(t, ds, "shop") != dataset.KindCategorical || kindOf(t, ds, "qty") != dataset.KindNumeric {
		t.Error("unexpected column kinds")
	}
}

func TestLimited(t *testing.T) {
	t.Parallel()

	if got := limited("SELECT 1", 0); got != "SELECT 1" {
		t.Errorf("limited(0) = %q", got)
	}
	if got, want := limited("SELECT 1;", 5), "SELECT * FROM (SELECT 1) AS src LIMIT 5"; got != want {
		t.Errorf("limited(5) = %q, want %q", got, want)
	}
}

func TestSourceTimestamps(t *testing.T) {
	t.Parallel()

	when := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	reader := ReaderFunc(func(context.Context, config.SourceConfig, string) (*Table, error) {
		return &Table{Header: []string{"at"}, Rows: [][]any{{when}, {nil}}}, nil
	})
	ds, err := NewRegistry(WithReader("memory", reader)).Load(context.Background(), config.SourceConfig{Name: "t", Kind: "memory"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if kindOf(t, ds, "at") != dataset.KindDatetime {
		t.Error("time cells should be datetime")
	}
}
