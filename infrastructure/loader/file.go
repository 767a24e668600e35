package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/xuri/excelize/v2"

	"github.com/felixgeelhaar/chartforge/domain/config"
)

// CSVReader reads comma separated files with a header row.
type CSVReader struct{}

// Read implements Reader.
func (CSVReader) Read(ctx context.Context, _ config.SourceConfig, path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	first, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoData
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	first[0] = strings.TrimPrefix(first[0], "\ufeff")
	names, err := header(first)
	if err != nil {
		return nil, err
	}

	var records [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(records)+2, err)
		}
		records = append(records, rec)
	}
	return &Table{Header: names, Rows: stringRows(records)}, nil
}

// ExcelReader reads one worksheet of an xlsx workbook. The first row is
// the header; without a sheet name the first sheet is read.
type ExcelReader struct{}

// Read implements Reader.
func (ExcelReader) Read(_ context.Context, src config.SourceConfig, path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := src.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	names, err := header(rows[0])
	if err != nil {
		return nil, err
	}
	return &Table{Header: names, Rows: stringRows(rows[1:])}, nil
}

// ParquetReader reads parquet files. Column order follows the file schema.
type ParquetReader struct{}

// Read implements Reader.
func (ParquetReader) Read(ctx context.Context, _ config.SourceConfig, path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	fields := pf.Schema().Fields()
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
	}
	names, err = header(names)
	if err != nil {
		return nil, err
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	var rows [][]any
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record := make(map[string]any)
		if err := reader.Read(&record); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+1, err)
		}
		row := make([]any, len(fields))
		for i, field := range fields {
			row[i] = record[field.Name()]
		}
		rows = append(rows, row)
	}
	return &Table{Header: names, Rows: rows}, nil
}
