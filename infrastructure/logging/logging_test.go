package logging

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

type name string

func (n name) String() string { return string(n) }

// testLogger creates a logger that writes to a buffer for testing
func testLogger() (*bolt.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := bolt.NewJSONHandler(buf)
	logger := bolt.New(handler).SetLevel(bolt.TRACE)
	return logger, buf
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()

	if config.Level != "info" {
		t.Errorf("Level = %s, want info", config.Level)
	}
	if config.Format != "console" {
		t.Errorf("Format = %s, want console", config.Format)
	}
	if config.Output != os.Stderr {
		t.Errorf("Output = %v, want os.Stderr", config.Output)
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected bolt.Level
	}{
		{"trace", bolt.TRACE},
		{"debug", bolt.DEBUG},
		{"INFO", bolt.INFO},
		{"warn", bolt.WARN},
		{"warning", bolt.WARN},
		{"error", bolt.ERROR},
		{"unknown", bolt.INFO},
		{"", bolt.INFO},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			result := parseLevel(tt.input)
			if result != tt.expected {
				t.Errorf("parseLevel(%s) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		field Field
		want  string
	}{
		{"chart type", ChartType(name("pie")), `"chart_type":"pie"`},
		{"format", Format(name("svg")), `"format":"svg"`},
		{"dataset", Dataset("sales"), `"dataset":"sales"`},
		{"source", Source("csv"), `"source":"csv"`},
		{"path", Path("a.csv"), `"path":"a.csv"`},
		{"rows", Rows(12), `"rows":12`},
		{"columns", Columns(3), `"columns":3`},
		{"traces", Traces(2), `"traces":2`},
		{"bytes", Bytes(2048), `"bytes":2048`},
		{"cell", Cell(1, 2), `"col":2`},
		{"key", Key("abc.png"), `"key":"abc.png"`},
		{"duration", Duration(1500 * time.Millisecond), `"duration_ms":1500`},
		{"cached", Cached(true), `"cached":true`},
		{"reason", Reason("no data"), `"reason":"no data"`},
		{"component", Component("compiler"), `"component":"compiler"`},
		{"str", Str("k", "v"), `"k":"v"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, buf := testLogger()
			tt.field(logger.Info()).Msg("test")
			if !bytes.Contains(buf.Bytes(), []byte(tt.want)) {
				t.Errorf("expected %s in output: %s", tt.want, buf.String())
			}
		})
	}
}

func TestErrorField(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	ErrorField(errors.New("boom"))(logger.Error()).Msg("test")
	if !bytes.Contains(buf.Bytes(), []byte("boom")) {
		t.Errorf("expected error in output: %s", buf.String())
	}

	logger, buf = testLogger()
	ErrorField(nil)(logger.Info()).Msg("test")
	if bytes.Contains(buf.Bytes(), []byte(`"error"`)) {
		t.Errorf("nil error should add no field: %s", buf.String())
	}
}

func TestLogEvent_Add(t *testing.T) {
	t.Parallel()

	logger, buf := testLogger()
	NewEvent(logger.Info()).Add(Rows(3)).Add(Columns(2)).Msg("loaded")
	if !bytes.Contains(buf.Bytes(), []byte(`"rows":3`)) || !bytes.Contains(buf.Bytes(), []byte(`"columns":2`)) {
		t.Errorf("expected chained fields in output: %s", buf.String())
	}
}

func TestInit_ReplacesLogger(t *testing.T) {
	first := &bytes.Buffer{}
	Init(Config{Level: "info", Format: "json", Output: first})
	Debug().Msg("hidden")
	if first.Len() != 0 {
		t.Errorf("debug written at info level: %s", first.String())
	}

	second := &bytes.Buffer{}
	Init(Config{Level: "debug", Format: "json", Output: second})
	t.Cleanup(func() { Init(DefaultConfig()) })

	Scope("loader").Debug().Add(Rows(2)).Msg("dataset loaded")
	out := second.String()
	if !bytes.Contains(second.Bytes(), []byte(`"component":"loader"`)) {
		t.Errorf("output = %s, want component loader", out)
	}
	if !bytes.Contains(second.Bytes(), []byte(`"rows":2`)) {
		t.Errorf("output = %s, want rows", out)
	}
	if first.Len() != 0 {
		t.Errorf("replaced logger still written to: %s", first.String())
	}

	SetLevel("error")
	Scope("loader").Warn().Msg("dropped")
	if bytes.Contains(second.Bytes(), []byte("dropped")) {
		t.Errorf("warn written at error level: %s", second.String())
	}
}
