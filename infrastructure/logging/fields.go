package logging

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field writes one or more keys onto an event.
type Field func(*bolt.Event) *bolt.Event

// Str is the escape hatch for keys without a named helper.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Str(key, value) }
}

func count(key string, n int) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int(key, n) }
}

// Chart and export fields.

func ChartType(t fmt.Stringer) Field { return Str("chart_type", t.String()) }
func Format(f fmt.Stringer) Field    { return Str("format", f.String()) }
func Traces(n int) Field             { return count("traces", n) }
func Bytes(n int) Field              { return count("bytes", n) }
func Key(key string) Field           { return Str("key", key) }

func Cached(cached bool) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Bool("cached", cached) }
}

// Cell locates a subplot in a composed figure.
func Cell(row, col int) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int("row", row).Int("col", col) }
}

// Dataset fields.

func Dataset(name string) Field { return Str("dataset", name) }
func Source(kind string) Field  { return Str("source", kind) }
func Path(p string) Field       { return Str("path", p) }
func Rows(n int) Field          { return count("rows", n) }
func Columns(n int) Field       { return count("columns", n) }

// General fields.

func Component(name string) Field { return Str("component", name) }
func Reason(reason string) Field  { return Str("reason", reason) }

// Duration is logged in whole milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event { return e.Int64("duration_ms", d.Milliseconds()) }
}

// ErrorField is a no-op for a nil error.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}
