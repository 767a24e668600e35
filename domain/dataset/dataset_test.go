package dataset

import (
	"errors"
	"math"
	"testing"
	"time"
)

func sales() *Dataset {
	return MustNew(
		Strings("region", "north", "south", "north", "east", "south"),
		Numbers("revenue", 10, 20, 30, math.NaN(), 5),
		Numbers("units", 1, 2, 3, 4, 5),
	)
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		columns []Column
		wantErr error
	}{
		{
			name:    "valid",
			columns: []Column{Strings("a", "x", "y"), Numbers("b", 1, 2)},
		},
		{
			name:    "length mismatch",
			columns: []Column{Strings("a", "x", "y"), Numbers("b", 1)},
			wantErr: ErrLengthMismatch,
		},
		{
			name:    "duplicate name",
			columns: []Column{Strings("a", "x"), Numbers("a", 1)},
			wantErr: ErrDuplicateColumn,
		},
		{
			name:    "empty name",
			columns: []Column{Strings("", "x")},
			wantErr: ErrEmptyColumnName,
		},
		{
			name:    "kind mismatch",
			columns: []Column{{Name: "a", Kind: KindNumeric, Values: []Value{Text("x")}}},
			wantErr: ErrKindMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.columns...)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDataset_Accessors(t *testing.T) {
	t.Parallel()

	d := sales()
	if d.Len() != 5 {
		t.Errorf("Len() = %d, want 5", d.Len())
	}
	if d.Width() != 3 {
		t.Errorf("Width() = %d, want 3", d.Width())
	}
	if !d.Has("region") || d.Has("missing") {
		t.Error("Has() returned wrong result")
	}
	if !d.IsNumeric("revenue") || d.IsNumeric("region") {
		t.Error("IsNumeric() returned wrong result")
	}
	got := d.NumericColumns()
	if len(got) != 2 || got[0] != "revenue" || got[1] != "units" {
		t.Errorf("NumericColumns() = %v, want [revenue units]", got)
	}
	if !Empty().IsEmpty() {
		t.Error("Empty().IsEmpty() = false, want true")
	}
}

func TestDataset_ColumnIsCopy(t *testing.T) {
	t.Parallel()

	d := sales()
	c, _ := d.Column("region")
	c.Values[0] = Text("changed")

	v, _ := d.At("region", 0)
	if v.String() != "north" {
		t.Errorf("dataset mutated through Column(): got %q", v.String())
	}
}

func TestDataset_Filter(t *testing.T) {
	t.Parallel()

	d := sales()
	got, err := d.Filter([]bool{true, false, true, false, false})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if got.Len() != 2 {
		t.Errorf("Len() = %d, want 2", got.Len())
	}
	if d.Len() != 5 {
		t.Errorf("source Len() = %d, want 5", d.Len())
	}

	if _, err := d.Filter([]bool{true}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Filter() error = %v, want ErrLengthMismatch", err)
	}
}

func TestDataset_GroupBy(t *testing.T) {
	t.Parallel()

	d := sales()

	sum, err := d.GroupBy("region", AggSum, "revenue")
	if err != nil {
		t.Fatalf("GroupBy(sum) error = %v", err)
	}
	wantKeys := []string{"east", "north", "south"}
	wantSums := []float64{0, 40, 25}
	keys, _ := sum.Values("region")
	sums, _ := sum.Floats("revenue")
	for i := range wantKeys {
		if keys[i].String() != wantKeys[i] {
			t.Errorf("key[%d] = %q, want %q", i, keys[i].String(), wantKeys[i])
		}
		if sums[i] != wantSums[i] {
			t.Errorf("sum[%d] = %v, want %v", i, sums[i], wantSums[i])
		}
	}

	mean, err := d.GroupBy("region", AggMean, "revenue")
	if err != nil {
		t.Fatalf("GroupBy(mean) error = %v", err)
	}
	means, _ := mean.Floats("revenue")
	if !math.IsNaN(means[0]) {
		t.Errorf("mean[east] = %v, want NaN", means[0])
	}
	if means[1] != 20 {
		t.Errorf("mean[north] = %v, want 20", means[1])
	}

	if _, err := d.GroupBy("region", AggSum, "region"); !errors.Is(err, ErrNotNumeric) {
		t.Errorf("GroupBy(non-numeric) error = %v, want ErrNotNumeric", err)
	}
}

func TestDataset_ValueCounts(t *testing.T) {
	t.Parallel()

	d := MustNew(Strings("c", "b", "a", "b", "c", "b"))
	vc, err := d.ValueCounts("c")
	if err != nil {
		t.Fatalf("ValueCounts() error = %v", err)
	}
	keys, _ := vc.Values("c")
	counts, _ := vc.Floats("count")
	want := []struct {
		key   string
		count float64
	}{{"b", 3}, {"c", 2}, {"a", 1}}
	if len(keys) != len(want) {
		t.Fatalf("len = %d, want %d", len(keys), len(want))
	}
	for i, w := range want {
		if keys[i].String() != w.key || counts[i] != w.count {
			t.Errorf("row %d = (%s, %v), want (%s, %v)", i, keys[i].String(), counts[i], w.key, w.count)
		}
	}
}

func TestDataset_Pivot(t *testing.T) {
	t.Parallel()

	d := MustNew(
		Strings("team", "a", "a", "b", "b"),
		Strings("year", "2020", "2021", "2020", "2021"),
		Numbers("score", 1, 2, 3, 4),
	)
	p, err := d.Pivot("team", "year", "score")
	if err != nil {
		t.Fatalf("Pivot() error = %v", err)
	}
	if got := p.Columns(); len(got) != 3 || got[1] != "2020" || got[2] != "2021" {
		t.Errorf("Columns() = %v, want [team 2020 2021]", got)
	}
	vals, _ := p.Floats("2021")
	if vals[0] != 2 || vals[1] != 4 {
		t.Errorf("2021 = %v, want [2 4]", vals)
	}

	dup := MustNew(
		Strings("team", "a", "a"),
		Strings("year", "2020", "2020"),
		Numbers("score", 1, 2),
	)
	if _, err := dup.Pivot("team", "year", "score"); !errors.Is(err, ErrDuplicateEntry) {
		t.Errorf("Pivot(dup) error = %v, want ErrDuplicateEntry", err)
	}
}

func TestDataset_Crosstab(t *testing.T) {
	t.Parallel()

	d := MustNew(
		Strings("sex", "m", "f", "m", "f", "m"),
		Strings("smoker", "yes", "no", "no", "no", "yes"),
	)
	ct, err := d.Crosstab("sex", "smoker")
	if err != nil {
		t.Fatalf("Crosstab() error = %v", err)
	}
	no, _ := ct.Floats("no")
	yes, _ := ct.Floats("yes")
	// rows: f, m
	if no[0] != 2 || no[1] != 1 || yes[0] != 0 || yes[1] != 2 {
		t.Errorf("crosstab no=%v yes=%v, want no=[2 1] yes=[0 2]", no, yes)
	}
}

func TestDataset_Corr(t *testing.T) {
	t.Parallel()

	d := MustNew(
		Numbers("a", 1, 2, 3, 4),
		Numbers("b", 2, 4, 6, 8),
		Numbers("c", 4, 3, 2, 1),
		Strings("s", "w", "x", "y", "z"),
	)
	m := d.Corr()
	if len(m.Labels) != 3 {
		t.Fatalf("Labels = %v, want 3 numeric columns", m.Labels)
	}
	if math.Abs(m.Values[0][1]-1) > 1e-12 {
		t.Errorf("corr(a,b) = %v, want 1", m.Values[0][1])
	}
	if math.Abs(m.Values[0][2]+1) > 1e-12 {
		t.Errorf("corr(a,c) = %v, want -1", m.Values[0][2])
	}
}

func TestDataset_SortByAndConcat(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	a := MustNew(Times("when", day(3), day(1)), Numbers("v", 3, 1))
	b := MustNew(Times("when", day(2)), Numbers("v", 2))

	all, err := Concat(a, b)
	if err != nil {
		t.Fatalf("Concat() error = %v", err)
	}
	sorted, err := all.SortBy("when")
	if err != nil {
		t.Fatalf("SortBy() error = %v", err)
	}
	got, _ := sorted.Floats("v")
	for i, want := range []float64{1, 2, 3} {
		if got[i] != want {
			t.Errorf("v[%d] = %v, want %v", i, got[i], want)
		}
	}

	c := MustNew(Strings("when", "x"), Numbers("v", 1))
	if _, err := Concat(a, c); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("Concat(mismatch) error = %v, want ErrSchemaMismatch", err)
	}
}

func TestFromRecords(t *testing.T) {
	t.Parallel()

	d, err := FromRecords(
		[]string{"name", "age", "joined"},
		[][]string{
			{"ann", "31", "2024-01-02"},
			{"bob", "NA", "2024-02-03"},
			{"cy", "40"},
		},
	)
	if err != nil {
		t.Fatalf("FromRecords() error = %v", err)
	}
	tests := []struct {
		col  string
		want Kind
	}{
		{"name", KindCategorical},
		{"age", KindNumeric},
		{"joined", KindDatetime},
	}
	for _, tt := range tests {
		if k, _ := d.Kind(tt.col); k != tt.want {
			t.Errorf("Kind(%s) = %s, want %s", tt.col, k, tt.want)
		}
	}
	if v, _ := d.At("age", 1); !v.IsNull() {
		t.Errorf("age[1] = %v, want null", v)
	}
	if v, _ := d.At("joined", 2); !v.IsNull() {
		t.Errorf("joined[2] = %v, want null", v)
	}
}

func TestFromRows(t *testing.T) {
	t.Parallel()

	d, err := FromRows(
		[]string{"id", "label", "mixed"},
		[][]any{
			{int64(1), "a", 1.5},
			{int32(2), nil, "x"},
		},
	)
	if err != nil {
		t.Fatalf("FromRows() error = %v", err)
	}
	if !d.IsNumeric("id") {
		t.Error("id should be numeric")
	}
	if k, _ := d.Kind("mixed"); k != KindCategorical {
		t.Errorf("Kind(mixed) = %s, want categorical", k)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	s := sales().Describe()
	if s.Rows != 5 || s.Columns != 3 {
		t.Fatalf("Describe() = %d x %d, want 5 x 3", s.Rows, s.Columns)
	}
	rev := s.Fields[1]
	if rev.NullCount != 1 {
		t.Errorf("NullCount = %d, want 1", rev.NullCount)
	}
	if rev.UniqueCount != 4 {
		t.Errorf("UniqueCount = %d, want 4", rev.UniqueCount)
	}
	if *rev.Min != 5 || *rev.Max != 30 {
		t.Errorf("Min/Max = %v/%v, want 5/30", *rev.Min, *rev.Max)
	}
	if *rev.Mean != 16.25 {
		t.Errorf("Mean = %v, want 16.25", *rev.Mean)
	}
	if s.Fields[0].Min != nil {
		t.Error("categorical column should have no Min")
	}
}
