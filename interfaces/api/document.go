package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/chartforge/application"
	"github.com/felixgeelhaar/chartforge/domain/chart"
	"github.com/felixgeelhaar/chartforge/domain/export"
)

// ErrInvalidDocument indicates a request document that cannot be used.
var ErrInvalidDocument = errors.New("invalid request document")

// Document is a chart request as read from a request file or an HTTP body.
// Exactly one of Chart and Compose is set.
type Document struct {
	// Dataset names a configured source. HTTP requests take it from the path.
	Dataset string `json:"dataset,omitempty" yaml:"dataset,omitempty"`

	// Name is the file name of exports and published artifacts.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Filters restrict the rows before charting.
	Filters Filters `json:"filters,omitempty" yaml:"filters,omitempty"`

	// Sampling reduces the rows after filtering.
	Sampling application.Sampling `json:"sampling,omitempty" yaml:"sampling,omitempty"`

	// Chart is a single chart.
	Chart *chart.Request `json:"chart,omitempty" yaml:"chart,omitempty"`

	// Compose is a grid of up to four charts.
	Compose *Composition `json:"compose,omitempty" yaml:"compose,omitempty"`

	// Export overrides the configured export defaults field by field.
	Export *export.Request `json:"export,omitempty" yaml:"export,omitempty"`
}

// Filters groups the row filters of a document. All filters must accept a
// row for it to be kept.
type Filters struct {
	Numeric     []application.NumericRange   `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Categorical []application.CategoricalSet `json:"categorical,omitempty" yaml:"categorical,omitempty"`
	Datetime    []application.DatetimeRange  `json:"datetime,omitempty" yaml:"datetime,omitempty"`
}

// List returns the filters in application order.
func (f Filters) List() []application.Filter {
	out := make([]application.Filter, 0, len(f.Numeric)+len(f.Categorical)+len(f.Datetime))
	for _, n := range f.Numeric {
		out = append(out, n)
	}
	for _, c := range f.Categorical {
		out = append(out, c)
	}
	for _, d := range f.Datetime {
		out = append(out, d)
	}
	return out
}

// Composition is the grid part of a document. Non-positive rows and cols
// are derived from the number of charts.
type Composition struct {
	Rows   int             `json:"rows,omitempty" yaml:"rows,omitempty"`
	Cols   int             `json:"cols,omitempty" yaml:"cols,omitempty"`
	Charts []chart.Request `json:"charts" yaml:"charts"`
}

// Validate checks that the document asks for exactly one thing.
func (d Document) Validate() error {
	switch {
	case d.Chart == nil && d.Compose == nil:
		return fmt.Errorf("%w: chart or compose is required", ErrInvalidDocument)
	case d.Chart != nil && d.Compose != nil:
		return fmt.Errorf("%w: chart and compose are exclusive", ErrInvalidDocument)
	}
	return nil
}

// ChartType returns the chart type, or "composite" for compositions.
func (d Document) ChartType() string {
	if d.Chart != nil {
		return d.Chart.Type.String()
	}
	return "composite"
}

// DocumentFormat is the encoding of a request document.
type DocumentFormat string

// Document formats.
const (
	DocumentYAML DocumentFormat = "yaml"
	DocumentJSON DocumentFormat = "json"
)

// DecodeDocument reads a document from r.
func DecodeDocument(r io.Reader, format DocumentFormat) (Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("failed to read document: %w", err)
	}

	var doc Document
	switch format {
	case DocumentJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case DocumentYAML, "":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	default:
		return Document{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidDocument, format)
	}
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return doc, doc.Validate()
}

// LoadDocument reads a document file. Files ending in .json are JSON;
// everything else is YAML.
func LoadDocument(path string) (Document, error) {
	f, err := os.Open(path) // #nosec G304 -- request files are chosen by the operator
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	format := DocumentYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = DocumentJSON
	}
	return DecodeDocument(f, format)
}
