package dataset

import (
	"fmt"
	"sort"
)

// Agg is a group aggregation.
type Agg string

// Supported aggregations.
const (
	AggSum  Agg = "sum"
	AggMean Agg = "mean"
)

// Filter keeps the rows whose mask entry is true.
func (d *Dataset) Filter(mask []bool) (*Dataset, error) {
	if len(mask) != d.Len() {
		return nil, fmt.Errorf("%w: mask has %d entries, dataset has %d rows", ErrLengthMismatch, len(mask), d.Len())
	}
	rows := make([]int, 0, len(mask))
	for i, keep := range mask {
		if keep {
			rows = append(rows, i)
		}
	}
	return d.take(rows), nil
}

// Take returns the rows at the given indices, in that order.
func (d *Dataset) Take(rows []int) (*Dataset, error) {
	for _, r := range rows {
		if r < 0 || r >= d.Len() {
			return nil, fmt.Errorf("%w: row %d out of range [0,%d)", ErrLengthMismatch, r, d.Len())
		}
	}
	return d.take(rows), nil
}

// Select returns a dataset with only the named columns, in the given order.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	if err := d.require(names...); err != nil {
		return nil, err
	}
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i], _ = d.col(n)
	}
	return New(cols...)
}

// DropNull removes rows with a null in any of the named columns.
func (d *Dataset) DropNull(names ...string) (*Dataset, error) {
	if err := d.require(names...); err != nil {
		return nil, err
	}
	mask := make([]bool, d.Len())
	for i := range mask {
		mask[i] = true
		for _, n := range names {
			c, _ := d.col(n)
			if c.Values[i].IsNull() {
				mask[i] = false
				break
			}
		}
	}
	return d.Filter(mask)
}

// Unique returns the distinct values of a column in order of first
// appearance. A null, if present, is included once.
func (d *Dataset) Unique(name string) ([]Value, error) {
	c, ok := d.col(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	seen := make(map[string]bool)
	var out []Value
	for _, v := range c.Values {
		k := v.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out, nil
}

// groups partitions row indices by the non-null values of a column.
// Keys are returned in ascending value order.
func (d *Dataset) groups(name string) ([]Value, map[string][]int) {
	c, _ := d.col(name)
	rows := make(map[string][]int)
	var keys []Value
	for i, v := range c.Values {
		if v.IsNull() {
			continue
		}
		k := v.key()
		if _, ok := rows[k]; !ok {
			keys = append(keys, v)
		}
		rows[k] = append(rows[k], i)
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys, rows
}

// Partition splits the rows by the non-null values of a column. Keys are in
// ascending order and parts[i] holds the rows whose value equals keys[i].
func (d *Dataset) Partition(name string) ([]Value, []*Dataset, error) {
	if err := d.require(name); err != nil {
		return nil, nil, err
	}
	keys, rows := d.groups(name)
	parts := make([]*Dataset, len(keys))
	for i, k := range keys {
		parts[i] = d.take(rows[k.key()])
	}
	return keys, parts, nil
}

// Where returns the rows whose value in the named column equals v.
func (d *Dataset) Where(name string, v Value) (*Dataset, error) {
	c, ok := d.col(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	var rows []int
	for i, cell := range c.Values {
		if cell.Equal(v) {
			rows = append(rows, i)
		}
	}
	return d.take(rows), nil
}

// GroupBy groups rows by key and aggregates each value column. Rows with a
// null key are dropped and groups are ordered by key. Sums skip nulls (an
// all-null group sums to zero); means skip nulls (an all-null group is null).
func (d *Dataset) GroupBy(key string, agg Agg, valueCols ...string) (*Dataset, error) {
	if err := d.require(key); err != nil {
		return nil, err
	}
	if err := d.require(valueCols...); err != nil {
		return nil, err
	}
	for _, n := range valueCols {
		if !d.IsNumeric(n) {
			return nil, fmt.Errorf("%w: %q", ErrNotNumeric, n)
		}
	}
	if agg != AggSum && agg != AggMean {
		return nil, fmt.Errorf("unsupported aggregation %q", agg)
	}

	keys, rows := d.groups(key)
	keyCol, _ := d.col(key)
	out := []Column{{Name: key, Kind: keyCol.Kind, Values: keys}}
	for _, n := range valueCols {
		src, _ := d.col(n)
		vals := make([]Value, len(keys))
		for gi, k := range keys {
			sum, count := 0.0, 0
			for _, r := range rows[k.key()] {
				if f, ok := src.Values[r].Float(); ok {
					sum += f
					count++
				}
			}
			switch {
			case agg == AggSum:
				vals[gi] = Number(sum)
			case count == 0:
				vals[gi] = Null()
			default:
				vals[gi] = Number(sum / float64(count))
			}
		}
		out = append(out, Column{Name: n, Kind: KindNumeric, Values: vals})
	}
	return New(out...)
}

// Mean returns the mean of each named numeric column over all rows,
// skipping nulls.
func (d *Dataset) Mean(names ...string) ([]Value, error) {
	if err := d.require(names...); err != nil {
		return nil, err
	}
	out := make([]Value, len(names))
	for i, n := range names {
		c, _ := d.col(n)
		if c.Kind != KindNumeric {
			return nil, fmt.Errorf("%w: %q", ErrNotNumeric, n)
		}
		sum, count := 0.0, 0
		for _, v := range c.Values {
			if f, ok := v.Float(); ok {
				sum += f
				count++
			}
		}
		if count == 0 {
			out[i] = Null()
			continue
		}
		out[i] = Number(sum / float64(count))
	}
	return out, nil
}

// ValueCounts counts the non-null values of a column. The result has the
// column itself followed by a numeric "count" column, ordered by count
// descending with ties kept in order of first appearance.
func (d *Dataset) ValueCounts(name string) (*Dataset, error) {
	c, ok := d.col(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	counts := make(map[string]int)
	var order []Value
	for _, v := range c.Values {
		if v.IsNull() {
			continue
		}
		k := v.key()
		if counts[k] == 0 {
			order = append(order, v)
		}
		counts[k]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i].key()] > counts[order[j].key()]
	})
	nums := make([]Value, len(order))
	for i, v := range order {
		nums[i] = Number(float64(counts[v.key()]))
	}
	countName := "count"
	if name == countName {
		countName = "count_"
	}
	return New(
		Column{Name: name, Kind: c.Kind, Values: order},
		Column{Name: countName, Kind: KindNumeric, Values: nums},
	)
}

// Crosstab computes a frequency table. The first column holds the sorted
// distinct values of row; each further column is one sorted distinct value
// of col, named by its string form. Rows with a null in either column are
// ignored.
func (d *Dataset) Crosstab(row, col string) (*Dataset, error) {
	if err := d.require(row, col); err != nil {
		return nil, err
	}
	clean, err := d.DropNull(row, col)
	if err != nil {
		return nil, err
	}
	rowKeys, _ := clean.groups(row)
	colKeys, _ := clean.groups(col)
	rowIdx := indexOf(rowKeys)
	colIdx := indexOf(colKeys)

	counts := make([][]float64, len(colKeys))
	for i := range counts {
		counts[i] = make([]float64, len(rowKeys))
	}
	rc, _ := clean.col(row)
	cc, _ := clean.col(col)
	for i := 0; i < clean.Len(); i++ {
		counts[colIdx[cc.Values[i].key()]][rowIdx[rc.Values[i].key()]]++
	}

	rowCol, _ := d.col(row)
	out := []Column{{Name: row, Kind: rowCol.Kind, Values: rowKeys}}
	for i, k := range colKeys {
		out = append(out, Numbers(k.String(), counts[i]...))
	}
	return New(out...)
}

// Pivot reshapes long data to wide. The result's first column holds the
// sorted distinct index values; each further column is one sorted distinct
// value of columns, named by its string form, holding the matching values
// entry (null where absent). A repeated index/columns pair fails with
// ErrDuplicateEntry. Rows with a null index or columns value are ignored.
func (d *Dataset) Pivot(index, columns, values string) (*Dataset, error) {
	if err := d.require(index, columns, values); err != nil {
		return nil, err
	}
	clean, err := d.DropNull(index, columns)
	if err != nil {
		return nil, err
	}
	idxKeys, _ := clean.groups(index)
	colKeys, _ := clean.groups(columns)
	idxPos := indexOf(idxKeys)
	colPos := indexOf(colKeys)

	valCol, _ := d.col(values)
	cells := make([][]Value, len(colKeys))
	filled := make([][]bool, len(colKeys))
	for i := range cells {
		cells[i] = make([]Value, len(idxKeys))
		filled[i] = make([]bool, len(idxKeys))
	}
	ic, _ := clean.col(index)
	cc, _ := clean.col(columns)
	vc, _ := clean.col(values)
	for r := 0; r < clean.Len(); r++ {
		ci := colPos[cc.Values[r].key()]
		ri := idxPos[ic.Values[r].key()]
		if filled[ci][ri] {
			return nil, fmt.Errorf("%w: %s=%s, %s=%s", ErrDuplicateEntry,
				index, ic.Values[r].String(), columns, cc.Values[r].String())
		}
		filled[ci][ri] = true
		cells[ci][ri] = vc.Values[r]
	}

	idxCol, _ := d.col(index)
	out := []Column{{Name: index, Kind: idxCol.Kind, Values: idxKeys}}
	for i, k := range colKeys {
		out = append(out, Column{Name: k.String(), Kind: valCol.Kind, Values: cells[i]})
	}
	return New(out...)
}

// SortBy orders rows by a column ascending, nulls last. The sort is stable.
func (d *Dataset) SortBy(name string) (*Dataset, error) {
	c, ok := d.col(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	rows := make([]int, d.Len())
	for i := range rows {
		rows[i] = i
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return c.Values[rows[i]].Less(c.Values[rows[j]])
	})
	return d.take(rows), nil
}

// WithColumn returns a copy of the dataset with the column added, or
// replaced when a column of that name exists.
func (d *Dataset) WithColumn(c Column) (*Dataset, error) {
	cols := make([]Column, 0, d.Width()+1)
	replaced := false
	for _, existing := range d.columns {
		if existing.Name == c.Name {
			cols = append(cols, c)
			replaced = true
			continue
		}
		cols = append(cols, existing)
	}
	if !replaced {
		cols = append(cols, c)
	}
	return New(cols...)
}

// Concat stacks datasets with identical column names and kinds.
func Concat(parts ...*Dataset) (*Dataset, error) {
	if len(parts) == 0 {
		return Empty(), nil
	}
	first := parts[0]
	cols := make([]Column, first.Width())
	for i, c := range first.columns {
		cols[i] = Column{Name: c.Name, Kind: c.Kind}
	}
	for pi, p := range parts {
		if p.Width() != first.Width() {
			return nil, fmt.Errorf("%w: part %d has %d columns, want %d", ErrSchemaMismatch, pi, p.Width(), first.Width())
		}
		for i, c := range p.columns {
			if c.Name != cols[i].Name || c.Kind != cols[i].Kind {
				return nil, fmt.Errorf("%w: part %d column %d is %s (%s), want %s (%s)",
					ErrSchemaMismatch, pi, i, c.Name, c.Kind, cols[i].Name, cols[i].Kind)
			}
			cols[i].Values = append(cols[i].Values, c.Values...)
		}
	}
	return New(cols...)
}

func indexOf(keys []Value) map[string]int {
	m := make(map[string]int, len(keys))
	for i, k := range keys {
		m[k.key()] = i
	}
	return m
}
