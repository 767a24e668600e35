// Package dataset provides the immutable tabular model that charts are
// compiled from.
//
// A Dataset is an ordered collection of equally long, named columns. Every
// operation returns a new Dataset; the receiver is never modified, so a
// Dataset can be shared by concurrent compilations.
package dataset

import (
	"fmt"
	"math"
	"time"
)

// Column is a named, kinded sequence of values.
type Column struct {
	Name   string
	Kind   Kind
	Values []Value
}

// Len returns the number of values in the column.
func (c Column) Len() int {
	return len(c.Values)
}

// Numbers builds a numeric column. NaN entries are nulls.
func Numbers(name string, values ...float64) Column {
	vals := make([]Value, len(values))
	for i, f := range values {
		vals[i] = Number(f)
	}
	return Column{Name: name, Kind: KindNumeric, Values: vals}
}

// Strings builds a categorical column.
func Strings(name string, values ...string) Column {
	vals := make([]Value, len(values))
	for i, s := range values {
		vals[i] = Text(s)
	}
	return Column{Name: name, Kind: KindCategorical, Values: vals}
}

// Times builds a datetime column. Zero times are nulls.
func Times(name string, values ...time.Time) Column {
	vals := make([]Value, len(values))
	for i, t := range values {
		if t.IsZero() {
			vals[i] = Null()
			continue
		}
		vals[i] = Time(t)
	}
	return Column{Name: name, Kind: KindDatetime, Values: vals}
}

// Dataset is an immutable table of columns.
type Dataset struct {
	columns []Column
	index   map[string]int
	rows    int
}

// New builds a dataset from columns. Column values are copied.
func New(columns ...Column) (*Dataset, error) {
	d := &Dataset{
		columns: make([]Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d: %w", i, ErrEmptyColumnName)
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		if i == 0 {
			d.rows = len(c.Values)
		} else if len(c.Values) != d.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrLengthMismatch, c.Name, len(c.Values), d.rows)
		}
		kind := c.Kind
		if kind == "" {
			kind = KindCategorical
		}
		for j, v := range c.Values {
			if !v.IsNull() && v.Kind() != kind {
				return nil, fmt.Errorf("%w: column %q row %d is %s, want %s", ErrKindMismatch, c.Name, j, v.Kind(), kind)
			}
		}
		vals := make([]Value, len(c.Values))
		copy(vals, c.Values)
		d.index[c.Name] = len(d.columns)
		d.columns = append(d.columns, Column{Name: c.Name, Kind: kind, Values: vals})
	}
	return d, nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(columns ...Column) *Dataset {
	d, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return d
}

// Empty returns a dataset with no columns and no rows.
func Empty() *Dataset {
	return &Dataset{index: map[string]int{}}
}

// Len returns the row count.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// Width returns the column count.
func (d *Dataset) Width() int {
	if d == nil {
		return 0
	}
	return len(d.columns)
}

// IsEmpty reports whether the dataset has no rows or no columns.
func (d *Dataset) IsEmpty() bool {
	return d.Len() == 0 || d.Width() == 0
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the named column exists.
func (d *Dataset) Has(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.index[name]
	return ok
}

// Kind returns the kind of the named column.
func (d *Dataset) Kind(name string) (Kind, bool) {
	c, ok := d.col(name)
	if !ok {
		return "", false
	}
	return c.Kind, true
}

// IsNumeric reports whether the named column exists and is numeric.
func (d *Dataset) IsNumeric(name string) bool {
	k, ok := d.Kind(name)
	return ok && k == KindNumeric
}

// Column returns a copy of the named column.
func (d *Dataset) Column(name string) (Column, bool) {
	c, ok := d.col(name)
	if !ok {
		return Column{}, false
	}
	vals := make([]Value, len(c.Values))
	copy(vals, c.Values)
	return Column{Name: c.Name, Kind: c.Kind, Values: vals}, true
}

// Values returns a copy of the named column's values.
func (d *Dataset) Values(name string) ([]Value, error) {
	c, ok := d.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return c.Values, nil
}

// Floats returns a numeric column as float64s with NaN for nulls.
func (d *Dataset) Floats(name string) ([]float64, error) {
	c, ok := d.col(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	if c.Kind != KindNumeric {
		return nil, fmt.Errorf("%w: %q", ErrNotNumeric, name)
	}
	out := make([]float64, len(c.Values))
	for i, v := range c.Values {
		f, ok := v.Float()
		if !ok {
			f = math.NaN()
		}
		out[i] = f
	}
	return out, nil
}

// NumericColumns returns the names of numeric columns in order.
func (d *Dataset) NumericColumns() []string {
	if d == nil {
		return nil
	}
	var names []string
	for _, c := range d.columns {
		if c.Kind == KindNumeric {
			names = append(names, c.Name)
		}
	}
	return names
}

// At returns the value at row i of the named column.
func (d *Dataset) At(name string, i int) (Value, bool) {
	c, ok := d.col(name)
	if !ok || i < 0 || i >= d.rows {
		return Value{}, false
	}
	return c.Values[i], true
}

func (d *Dataset) col(name string) (Column, bool) {
	if d == nil {
		return Column{}, false
	}
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

func (d *Dataset) require(names ...string) error {
	for _, n := range names {
		if !d.Has(n) {
			return fmt.Errorf("%w: %q", ErrColumnNotFound, n)
		}
	}
	return nil
}

// take builds a dataset from the given row indices, in that order.
func (d *Dataset) take(rows []int) *Dataset {
	out := &Dataset{
		columns: make([]Column, len(d.columns)),
		index:   make(map[string]int, len(d.columns)),
		rows:    len(rows),
	}
	for i, c := range d.columns {
		vals := make([]Value, len(rows))
		for j, r := range rows {
			vals[j] = c.Values[r]
		}
		out.columns[i] = Column{Name: c.Name, Kind: c.Kind, Values: vals}
		out.index[c.Name] = i
	}
	return out
}
