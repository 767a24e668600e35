package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// nullTokens are raw strings read as missing values.
var nullTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"NaN":  true,
	"nan":  true,
	"null": true,
	"NULL": true,
	"None": true,
}

// timeLayouts are the layouts tried when inferring datetime columns.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	time.DateOnly,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// IsNullToken reports whether a raw string denotes a missing value.
func IsNullToken(s string) bool {
	return nullTokens[strings.TrimSpace(s)]
}

// ParseTime parses a raw string with the supported datetime layouts.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// InferKind returns the kind of a column of raw strings: numeric when every
// non-null entry parses as a number, datetime when every one parses as a
// date, categorical otherwise. An all-null column is categorical.
func InferKind(raw []string) Kind {
	numeric, datetime, seen := true, true, false
	for _, s := range raw {
		if IsNullToken(s) {
			continue
		}
		seen = true
		if numeric {
			if _, ok := parseFloat(s); !ok {
				numeric = false
			}
		}
		if datetime {
			if _, ok := ParseTime(s); !ok {
				datetime = false
			}
		}
		if !numeric && !datetime {
			break
		}
	}
	switch {
	case !seen:
		return KindCategorical
	case numeric:
		return KindNumeric
	case datetime:
		return KindDatetime
	default:
		return KindCategorical
	}
}

// ParseValue converts a raw string to a value of the given kind. Null
// tokens and unparseable entries become nulls.
func ParseValue(kind Kind, raw string) Value {
	if IsNullToken(raw) {
		return Null()
	}
	switch kind {
	case KindNumeric:
		if f, ok := parseFloat(raw); ok {
			return Number(f)
		}
		return Null()
	case KindDatetime:
		if t, ok := ParseTime(raw); ok {
			return Time(t)
		}
		return Null()
	default:
		return Text(raw)
	}
}

// FromRecords builds a dataset from a header and string rows, inferring
// the kind of every column. Short rows are padded with nulls.
func FromRecords(header []string, rows [][]string) (*Dataset, error) {
	cols := make([]Column, len(header))
	for i, name := range header {
		raw := make([]string, len(rows))
		for r, row := range rows {
			if i < len(row) {
				raw[r] = row[i]
			}
		}
		kind := InferKind(raw)
		vals := make([]Value, len(raw))
		for r, s := range raw {
			vals[r] = ParseValue(kind, s)
		}
		cols[i] = Column{Name: strings.TrimSpace(name), Kind: kind, Values: vals}
	}
	return New(cols...)
}

// FromRows builds a dataset from loosely typed rows such as database or
// document results. Go numbers become numeric values and time.Time becomes
// datetime; strings are inferred as in FromRecords. Columns mixing types
// are categorical.
func FromRows(header []string, rows [][]any) (*Dataset, error) {
	cols := make([]Column, len(header))
	for i, name := range header {
		cells := make([]any, len(rows))
		for r, row := range rows {
			if i < len(row) {
				cells[r] = row[i]
			}
		}
		cols[i] = columnFromAny(name, cells)
	}
	return New(cols...)
}

func columnFromAny(name string, cells []any) Column {
	allNum, allTime, allStr := true, true, true
	for _, c := range cells {
		if c == nil {
			continue
		}
		switch c.(type) {
		case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			allTime, allStr = false, false
		case time.Time:
			allNum, allStr = false, false
		case string, []byte:
			allNum, allTime = false, false
		default:
			allNum, allTime, allStr = false, false, false
		}
	}

	vals := make([]Value, len(cells))
	switch {
	case allStr:
		raw := make([]string, len(cells))
		for i, c := range cells {
			if c != nil {
				raw[i] = toString(c)
			}
		}
		kind := InferKind(raw)
		for i, s := range raw {
			if cells[i] == nil {
				vals[i] = Null()
				continue
			}
			vals[i] = ParseValue(kind, s)
		}
		return Column{Name: name, Kind: kind, Values: vals}
	case allNum:
		for i, c := range cells {
			if c == nil {
				vals[i] = Null()
				continue
			}
			vals[i] = Number(toFloat(c))
		}
		return Column{Name: name, Kind: KindNumeric, Values: vals}
	case allTime:
		for i, c := range cells {
			if t, ok := c.(time.Time); ok {
				vals[i] = Time(t)
			}
		}
		return Column{Name: name, Kind: KindDatetime, Values: vals}
	default:
		for i, c := range cells {
			if c == nil {
				vals[i] = Null()
				continue
			}
			vals[i] = Text(toString(c))
		}
		return Column{Name: name, Kind: KindCategorical, Values: vals}
	}
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return math.NaN()
	}
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
