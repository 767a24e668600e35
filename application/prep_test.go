package application

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/felixgeelhaar/chartforge/domain/dataset"
)

func day(d int) time.Time {
	return time.Date(2024, time.January, d, 0, 0, 0, 0, time.UTC)
}

func prepData() *dataset.Dataset {
	return dataset.MustNew(
		dataset.Strings("shop", "a", "b", "a", "c", "b", "a", "c", "b"),
		dataset.Numbers("amount", 5, 15, 25, 35, 45, 55, 65, 75),
		dataset.Times("at", day(8), day(1), day(7), day(2), day(6), day(3), day(5), day(4)),
		dataset.Strings("when", "2024-01-08", "2024-01-01", "2024-01-07", "2024-01-02",
			"2024-01-06", "2024-01-03", "2024-01-05", "2024-01-04"),
	)
}

func floatsOf(t *testing.T, ds *dataset.Dataset, name string) []float64 {
	t.Helper()
	f, err := ds.Floats(name)
	if err != nil {
		t.Fatalf("Floats(%s) error = %v", name, err)
	}
	return f
}

func TestApplyFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		filters []Filter
		want    []float64
	}{
		{"no filters", nil, []float64{5, 15, 25, 35, 45, 55, 65, 75}},
		{"numeric inclusive", []Filter{NumericRange{Column: "amount", Min: 15, Max: 45}}, []float64{15, 25, 35, 45}},
		{"categorical", []Filter{CategoricalSet{Column: "shop", Values: []string{"c"}}}, []float64{35, 65}},
		{"datetime", []Filter{DatetimeRange{Column: "at", Start: day(2), End: day(4)}}, []float64{35, 55, 75}},
		{"datetime open end", []Filter{DatetimeRange{Column: "at", Start: day(7)}}, []float64{5, 25}},
		{"datetime parsed", []Filter{DatetimeRange{Column: "when", End: day(1)}}, []float64{15}},
		{"datetime skipped", []Filter{DatetimeRange{Column: "shop", Start: day(1)}}, []float64{5, 15, 25, 35, 45, 55, 65, 75}},
		{"combined", []Filter{
			CategoricalSet{Column: "shop", Values: []string{"a", "b"}},
			NumericRange{Column: "amount", Min: 20, Max: 60},
		}, []float64{25, 45, 55}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ApplyFilters(prepData(), tt.filters...)
			if err != nil {
				t.Fatalf("ApplyFilters() error = %v", err)
			}
			if amounts := floatsOf(t, got, "amount"); !reflect.DeepEqual(amounts, tt.want) {
				t.Errorf("amount = %v, want %v", amounts, tt.want)
			}
		})
	}
}

func TestApplyFilters_Errors(t *testing.T) {
	t.Parallel()

	if _, err := ApplyFilters(prepData(), NumericRange{Column: "missing"}); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("missing column error = %v, want ErrMissingColumn", err)
	}
	if _, err := ApplyFilters(prepData(), NumericRange{Column: "shop"}); !errors.Is(err, dataset.ErrNotNumeric) {
		t.Errorf("categorical range error = %v, want ErrNotNumeric", err)
	}
}

func TestCategoricalSet_Nulls(t *testing.T) {
	t.Parallel()

	ds := dataset.MustNew(dataset.Column{Name: "tag", Kind: dataset.KindCategorical, Values: []dataset.Value{
		dataset.Text("x"), dataset.Null(), dataset.Text("y"),
	}})
	tests := []struct {
		include bool
		want    []bool
	}{
		{false, []bool{true, false, false}},
		{true, []bool{true, true, false}},
	}
	for _, tt := range tests {
		mask, err := CategoricalSet{Column: "tag", Values: []string{"x"}, IncludeNull: tt.include}.Mask(ds)
		if err != nil {
			t.Fatalf("Mask() error = %v", err)
		}
		if !reflect.DeepEqual(mask, tt.want) {
			t.Errorf("Mask(include=%v) = %v, want %v", tt.include, mask, tt.want)
		}
	}
}

func TestSample_None(t *testing.T) {
	t.Parallel()

	ds := prepData()
	got, err := Sample(ds, Sampling{Method: SampleNone})
	if err != nil || got != ds {
		t.Errorf("Sample(none) = %p, %v, want the input", got, err)
	}
}

func TestSample_Random(t *testing.T) {
	t.Parallel()

	s := Sampling{Method: SampleRandom, Fraction: 0.5}
	a, err := Sample(prepData(), s)
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if a.Len() != 4 {
		t.Errorf("Len() = %d, want 4", a.Len())
	}
	b, _ := Sample(prepData(), s)
	if !reflect.DeepEqual(floatsOf(t, a, "amount"), floatsOf(t, b, "amount")) {
		t.Error("same seed gave different samples")
	}
	amounts := floatsOf(t, a, "amount")
	for i := 1; i < len(amounts); i++ {
		if amounts[i] < amounts[i-1] {
			t.Errorf("sample lost row order: %v", amounts)
		}
	}

	capped, err := Sample(prepData(), Sampling{Method: SampleRandom, N: 100})
	if err != nil || capped.Len() != 8 {
		t.Errorf("Sample(n=100) = %d rows, %v, want 8", capped.Len(), err)
	}
}

func TestSample_Stratified(t *testing.T) {
	t.Parallel()

	got, err := Sample(prepData(), Sampling{Method: SampleStratified, Column: "shop", N: 1})
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	shops, _ := got.Values("shop")
	var names []string
	for _, v := range shops {
		names = append(names, v.String())
	}
	if !reflect.DeepEqual(names, []string{"a", "b", "c"}) {
		t.Errorf("strata = %v, want one row each of a, b, c", names)
	}
}

func TestSample_Temporal(t *testing.T) {
	t.Parallel()

	got, err := Sample(prepData(), Sampling{Method: SampleTemporal, Column: "at", Fraction: 1})
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	want := []float64{15, 35, 55, 75, 65, 45, 25, 5}
	if amounts := floatsOf(t, got, "amount"); !reflect.DeepEqual(amounts, want) {
		t.Errorf("amount = %v, want chronological %v", amounts, want)
	}
}

func TestSample_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		s    Sampling
		want error
	}{
		{"both sizes", Sampling{Method: SampleRandom, Fraction: 0.5, N: 2}, ErrInvalidSample},
		{"no size", Sampling{Method: SampleRandom}, ErrInvalidSample},
		{"fraction above one", Sampling{Method: SampleRandom, Fraction: 1.5}, ErrInvalidSample},
		{"missing strata", Sampling{Method: SampleStratified, Column: "nope", N: 1}, ErrMissingColumn},
		{"missing date", Sampling{Method: SampleTemporal, Column: "nope", N: 1}, ErrMissingColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := Sample(prepData(), tt.s); !errors.Is(err, tt.want) {
				t.Errorf("Sample() error = %v, want %v", err, tt.want)
			}
		})
	}
}
