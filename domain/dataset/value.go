package dataset

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Kind is the semantic kind of a column.
type Kind string

// Column kinds.
const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
	KindDatetime    Kind = "datetime"
)

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Value is a single cell. The zero Value is null.
type Value struct {
	kind  Kind
	valid bool
	num   float64
	str   string
	t     time.Time
}

// Null returns a null value.
func Null() Value {
	return Value{}
}

// Number returns a numeric value. NaN is stored as null.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{kind: KindNumeric}
	}
	return Value{kind: KindNumeric, valid: true, num: f}
}

// Text returns a categorical value.
func Text(s string) Value {
	return Value{kind: KindCategorical, valid: true, str: s}
}

// Time returns a datetime value.
func Time(t time.Time) Value {
	return Value{kind: KindDatetime, valid: true, t: t}
}

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool {
	return !v.valid
}

// Kind returns the kind of a non-null value.
func (v Value) Kind() Kind {
	return v.kind
}

// Float returns the numeric payload.
func (v Value) Float() (float64, bool) {
	if !v.valid || v.kind != KindNumeric {
		return math.NaN(), false
	}
	return v.num, true
}

// Time returns the datetime payload.
func (v Value) Time() (time.Time, bool) {
	if !v.valid || v.kind != KindDatetime {
		return time.Time{}, false
	}
	return v.t, true
}

// String formats the value the way it is shown in labels and legends.
// Null formats as the empty string.
func (v Value) String() string {
	if !v.valid {
		return ""
	}
	switch v.kind {
	case KindNumeric:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDatetime:
		if v.t.Hour() == 0 && v.t.Minute() == 0 && v.t.Second() == 0 && v.t.Nanosecond() == 0 {
			return v.t.Format(time.DateOnly)
		}
		return v.t.Format(time.RFC3339)
	default:
		return v.str
	}
}

// Equal reports whether two values are the same. Two nulls are equal.
func (v Value) Equal(o Value) bool {
	if v.valid != o.valid {
		return false
	}
	if !v.valid {
		return true
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumeric:
		return v.num == o.num
	case KindDatetime:
		return v.t.Equal(o.t)
	default:
		return v.str == o.str
	}
}

// Less orders values of the same kind. Nulls sort last.
func (v Value) Less(o Value) bool {
	if !v.valid {
		return false
	}
	if !o.valid {
		return true
	}
	switch {
	case v.kind == KindNumeric && o.kind == KindNumeric:
		return v.num < o.num
	case v.kind == KindDatetime && o.kind == KindDatetime:
		return v.t.Before(o.t)
	default:
		return v.String() < o.String()
	}
}

// Interface returns the payload as a plain Go value (float64, string,
// time.Time or nil).
func (v Value) Interface() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case KindNumeric:
		return v.num
	case KindDatetime:
		return v.t
	default:
		return v.str
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	switch v.kind {
	case KindNumeric:
		if math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindDatetime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	default:
		return json.Marshal(v.str)
	}
}

// UnmarshalJSON implements json.Unmarshaler. Numbers decode as numeric
// values, strings as categorical values.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Null()
	case float64:
		*v = Number(x)
	case bool:
		*v = Text(strconv.FormatBool(x))
	case string:
		*v = Text(x)
	default:
		*v = Text(string(b))
	}
	return nil
}

// key identifies a value for grouping. Nulls share one key.
func (v Value) key() string {
	if !v.valid {
		return "\x00null"
	}
	return string(v.kind) + "\x00" + v.String()
}
