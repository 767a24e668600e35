// Package logging provides structured logging using bolt.
//
// A single process-wide logger is shared by the compiler, the loaders and
// the outer surfaces. It writes to stderr by default so that exported
// chart bytes can go to stdout untouched.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/felixgeelhaar/bolt/v3"
)

var (
	mu      sync.RWMutex
	current *bolt.Logger
)

// Config configures the logger.
type Config struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string

	// Format is json or console.
	Format string

	// Output defaults to stderr.
	Output io.Writer
}

// DefaultConfig returns console logging at info level on stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: os.Stderr,
	}
}

func parseLevel(s string) bolt.Level {
	switch strings.ToLower(s) {
	case "trace":
		return bolt.TRACE
	case "debug":
		return bolt.DEBUG
	case "warn", "warning":
		return bolt.WARN
	case "error":
		return bolt.ERROR
	default:
		return bolt.INFO
	}
}

func build(cfg Config) *bolt.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	var h bolt.Handler = bolt.NewConsoleHandler(out)
	if cfg.Format == "json" {
		h = bolt.NewJSONHandler(out)
	}
	return bolt.New(h).SetLevel(parseLevel(cfg.Level))
}

// Init replaces the process logger. It may be called again once the
// configuration file and command line flags are known.
func Init(cfg Config) {
	l := build(cfg)
	mu.Lock()
	current = l
	mu.Unlock()
}

// Get returns the process logger, creating a default one on first use.
func Get() *bolt.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = build(DefaultConfig())
	}
	return current
}

// SetLevel changes the minimum level of the process logger.
func SetLevel(level string) {
	Get().SetLevel(parseLevel(level))
}

// LogEvent chains Fields onto a bolt.Event.
type LogEvent struct {
	event *bolt.Event
}

// NewEvent wraps e.
func NewEvent(e *bolt.Event) *LogEvent {
	return &LogEvent{event: e}
}

// Add applies f and returns the event.
func (l *LogEvent) Add(f Field) *LogEvent {
	l.event = f(l.event)
	return l
}

// Msg writes the event with a message.
func (l *LogEvent) Msg(msg string) {
	l.event.Msg(msg)
}

// Send writes the event without a message.
func (l *LogEvent) Send() {
	l.event.Send()
}

func Debug() *LogEvent { return NewEvent(Get().Debug()) }
func Info() *LogEvent  { return NewEvent(Get().Info()) }
func Warn() *LogEvent  { return NewEvent(Get().Warn()) }
func Error() *LogEvent { return NewEvent(Get().Error()) }

// Scope tags every event it starts with a component name.
//
//	var log = logging.Scope("loader")
//	log.Info().Add(logging.Rows(n)).Msg("dataset loaded")
type Scope string

func (s Scope) Debug() *LogEvent { return Debug().Add(Component(string(s))) }
func (s Scope) Info() *LogEvent  { return Info().Add(Component(string(s))) }
func (s Scope) Warn() *LogEvent  { return Warn().Add(Component(string(s))) }
func (s Scope) Error() *LogEvent { return Error().Add(Component(string(s))) }
