package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Matrix is a labelled square matrix.
type Matrix struct {
	Labels []string
	Values [][]float64
}

// Corr computes the pairwise Pearson correlation of all numeric columns.
// Each pair uses only the rows where both values are present; pairs with
// fewer than two such rows or zero variance yield NaN.
func (d *Dataset) Corr() Matrix {
	names := d.NumericColumns()
	cols := make([][]float64, len(names))
	for i, n := range names {
		cols[i], _ = d.Floats(n)
	}
	m := Matrix{Labels: names, Values: make([][]float64, len(names))}
	for i := range names {
		m.Values[i] = make([]float64, len(names))
	}
	for i := range names {
		for j := i; j < len(names); j++ {
			r := pearson(cols[i], cols[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

func pearson(a, b []float64) float64 {
	var x, y []float64
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		x = append(x, a[i])
		y = append(y, b[i])
	}
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// ColumnSummary describes one column.
type ColumnSummary struct {
	Name        string             `json:"name" yaml:"name"`
	Kind        Kind               `json:"kind" yaml:"kind"`
	NullCount   int                `json:"null_count" yaml:"null_count"`
	UniqueCount int                `json:"unique_count" yaml:"unique_count"`
	Min         *float64           `json:"min,omitempty" yaml:"min,omitempty"`
	Max         *float64           `json:"max,omitempty" yaml:"max,omitempty"`
	Mean        *float64           `json:"mean,omitempty" yaml:"mean,omitempty"`
	Std         *float64           `json:"std,omitempty" yaml:"std,omitempty"`
	Percentiles map[string]float64 `json:"percentiles,omitempty" yaml:"percentiles,omitempty"`
}

// Summary describes a dataset.
type Summary struct {
	Rows    int             `json:"rows" yaml:"rows"`
	Columns int             `json:"columns" yaml:"columns"`
	Fields  []ColumnSummary `json:"fields" yaml:"fields"`
}

// Describe summarises every column. Unique counts exclude nulls. Numeric
// columns also report min, max, mean, sample standard deviation and the
// 25th, 50th and 75th percentiles of their non-null values.
func (d *Dataset) Describe() Summary {
	s := Summary{Rows: d.Len(), Columns: d.Width()}
	for _, c := range d.columns {
		cs := ColumnSummary{Name: c.Name, Kind: c.Kind}
		seen := make(map[string]bool)
		var nums []float64
		for _, v := range c.Values {
			if v.IsNull() {
				cs.NullCount++
				continue
			}
			seen[v.key()] = true
			if f, ok := v.Float(); ok {
				nums = append(nums, f)
			}
		}
		cs.UniqueCount = len(seen)
		if c.Kind == KindNumeric && len(nums) > 0 {
			sort.Float64s(nums)
			lo, hi := nums[0], nums[len(nums)-1]
			mean := stat.Mean(nums, nil)
			cs.Min, cs.Max, cs.Mean = &lo, &hi, &mean
			if len(nums) > 1 {
				std := stat.StdDev(nums, nil)
				cs.Std = &std
			}
			cs.Percentiles = map[string]float64{
				"25%": stat.Quantile(0.25, stat.LinInterp, nums, nil),
				"50%": stat.Quantile(0.50, stat.LinInterp, nums, nil),
				"75%": stat.Quantile(0.75, stat.LinInterp, nums, nil),
			}
		}
		s.Fields = append(s.Fields, cs)
	}
	return s
}
