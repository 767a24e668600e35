package application

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/felixgeelhaar/chartforge/domain/dataset"
	"github.com/felixgeelhaar/chartforge/infrastructure/logging"
)

// Data preparation errors.
var (
	// ErrMissingColumn indicates a filter or sampling column that does not exist.
	ErrMissingColumn = errors.New("column not found")

	// ErrInvalidSample indicates a sample size that is neither a fraction in
	// (0,1] nor a positive row count.
	ErrInvalidSample = errors.New("invalid sample size")

	// errFilterSkipped marks a filter that cannot apply to its column.
	errFilterSkipped = errors.New("filter skipped")
)

// DefaultSeed makes sampling reproducible.
const DefaultSeed uint64 = 42

// Filter selects rows of a dataset.
type Filter interface {
	// Mask returns one entry per row, true for the rows to keep.
	Mask(ds *dataset.Dataset) ([]bool, error)
}

// NumericRange keeps rows with Min <= value <= Max. Nulls are dropped.
type NumericRange struct {
	Column string  `json:"column" yaml:"column"`
	Min    float64 `json:"min" yaml:"min"`
	Max    float64 `json:"max" yaml:"max"`
}

// Mask implements Filter.
func (f NumericRange) Mask(ds *dataset.Dataset) ([]bool, error) {
	vals, err := columnValues(ds, f.Column)
	if err != nil {
		return nil, err
	}
	if !ds.IsNumeric(f.Column) {
		return nil, fmt.Errorf("%w: %q", dataset.ErrNotNumeric, f.Column)
	}
	mask := make([]bool, len(vals))
	for i, v := range vals {
		x, ok := v.Float()
		mask[i] = ok && x >= f.Min && x <= f.Max
	}
	return mask, nil
}

// CategoricalSet keeps rows whose value is one of Values. Nulls are kept
// only with IncludeNull.
type CategoricalSet struct {
	Column      string   `json:"column" yaml:"column"`
	Values      []string `json:"values" yaml:"values"`
	IncludeNull bool     `json:"include_null,omitempty" yaml:"include_null,omitempty"`
}

// Mask implements Filter.
func (f CategoricalSet) Mask(ds *dataset.Dataset) ([]bool, error) {
	vals, err := columnValues(ds, f.Column)
	if err != nil {
		return nil, err
	}
	mask := make([]bool, len(vals))
	for i, v := range vals {
		if v.IsNull() {
			mask[i] = f.IncludeNull
			continue
		}
		mask[i] = slices.Contains(f.Values, v.String())
	}
	return mask, nil
}

// DatetimeRange keeps rows with Start <= value <= End. A zero bound is open.
// Categorical columns are parsed as datetimes; if any value does not parse
// the filter is skipped.
type DatetimeRange struct {
	Column string    `json:"column" yaml:"column"`
	Start  time.Time `json:"start,omitempty" yaml:"start,omitempty"`
	End    time.Time `json:"end,omitempty" yaml:"end,omitempty"`
}

// Mask implements Filter.
func (f DatetimeRange) Mask(ds *dataset.Dataset) ([]bool, error) {
	vals, err := columnValues(ds, f.Column)
	if err != nil {
		return nil, err
	}
	kind, _ := ds.Kind(f.Column)
	if kind == dataset.KindNumeric {
		return nil, fmt.Errorf("%w: %q is numeric", errFilterSkipped, f.Column)
	}
	mask := make([]bool, len(vals))
	for i, v := range vals {
		if v.IsNull() {
			continue
		}
		t, ok := v.Time()
		if !ok {
			if t, ok = dataset.ParseTime(v.String()); !ok {
				return nil, fmt.Errorf("%w: %q is not a datetime column", errFilterSkipped, f.Column)
			}
		}
		mask[i] = (f.Start.IsZero() || !t.Before(f.Start)) && (f.End.IsZero() || !t.After(f.End))
	}
	return mask, nil
}

func columnValues(ds *dataset.Dataset, name string) ([]dataset.Value, error) {
	if !ds.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return ds.Values(name)
}

// ApplyFilters keeps the rows accepted by every filter. Filters that cannot
// apply to their column are skipped with a warning.
func ApplyFilters(ds *dataset.Dataset, filters ...Filter) (*dataset.Dataset, error) {
	if len(filters) == 0 {
		return ds, nil
	}
	keep := make([]bool, ds.Len())
	for i := range keep {
		keep[i] = true
	}
	for _, f := range filters {
		mask, err := f.Mask(ds)
		if errors.Is(err, errFilterSkipped) {
			logging.Warn().Add(logging.Component("filter")).Add(logging.ErrorField(err)).Msg("filter skipped")
			continue
		}
		if err != nil {
			return nil, err
		}
		for i := range keep {
			keep[i] = keep[i] && mask[i]
		}
	}
	return ds.Filter(keep)
}

// SampleMethod selects how rows are sampled.
type SampleMethod string

// Sampling methods.
const (
	SampleNone       SampleMethod = "none"
	SampleRandom     SampleMethod = "random"
	SampleStratified SampleMethod = "stratified"
	SampleTemporal   SampleMethod = "temporal"
)

// Sampling describes a sample. Exactly one of Fraction and N is set.
type Sampling struct {
	Method SampleMethod `json:"method" yaml:"method"`
	// Column is the strata column (stratified) or the datetime column
	// (temporal).
	Column string `json:"column,omitempty" yaml:"column,omitempty"`
	// Fraction of rows to keep, in (0,1].
	Fraction float64 `json:"fraction,omitempty" yaml:"fraction,omitempty"`
	// N is the number of rows to keep, capped at the available rows.
	N int `json:"n,omitempty" yaml:"n,omitempty"`
	// Seed overrides DefaultSeed when non-zero.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`
}

func (s Sampling) size(rows int) (int, error) {
	switch {
	case s.N > 0 && s.Fraction == 0:
		return min(s.N, rows), nil
	case s.N == 0 && s.Fraction > 0 && s.Fraction <= 1:
		return int(math.Round(s.Fraction * float64(rows))), nil
	default:
		return 0, fmt.Errorf("%w: fraction %v, n %d", ErrInvalidSample, s.Fraction, s.N)
	}
}

func (s Sampling) source() rand.Source {
	seed := s.Seed
	if seed == 0 {
		seed = DefaultSeed
	}
	return rand.NewPCG(seed, seed)
}

// Sample draws a reproducible sample. Rows keep their original order;
// stratified samples list strata in key order; temporal samples are in
// chronological order.
func Sample(ds *dataset.Dataset, s Sampling) (*dataset.Dataset, error) {
	switch s.Method {
	case "", SampleNone:
		return ds, nil
	case SampleRandom:
		return sampleRows(ds, s, s.source())
	case SampleStratified:
		if !ds.Has(s.Column) {
			return nil, fmt.Errorf("%w: strata %q", ErrMissingColumn, s.Column)
		}
		_, parts, err := ds.Partition(s.Column)
		if err != nil {
			return nil, err
		}
		src := s.source()
		samples := make([]*dataset.Dataset, 0, len(parts))
		for _, part := range parts {
			sample, err := sampleRows(part, s, src)
			if err != nil {
				return nil, err
			}
			samples = append(samples, sample)
		}
		if len(samples) == 0 {
			return ds.Filter(make([]bool, ds.Len()))
		}
		return dataset.Concat(samples...)
	case SampleTemporal:
		if !ds.Has(s.Column) {
			return nil, fmt.Errorf("%w: date %q", ErrMissingColumn, s.Column)
		}
		sorted, err := ds.SortBy(s.Column)
		if err != nil {
			return nil, err
		}
		return sampleRows(sorted, s, s.source())
	default:
		return nil, fmt.Errorf("unknown sampling method %q", s.Method)
	}
}

func sampleRows(ds *dataset.Dataset, s Sampling, src rand.Source) (*dataset.Dataset, error) {
	n, err := s.size(ds.Len())
	if err != nil {
		return nil, err
	}
	idx := make([]int, n)
	sampleuv.WithoutReplacement(idx, ds.Len(), src)
	slices.Sort(idx)
	return ds.Take(idx)
}
