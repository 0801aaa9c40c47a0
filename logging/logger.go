// Package logging defines the structured logging abstraction the rest of
// the SDK depends on instead of reaching for a concrete logging library
// directly.
package logging

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Fields is a set of structured key-value pairs attached to a log line.
type Fields map[string]any

// Logger is the minimal leveled, structured logging contract the core
// depends on. Callers may plug in any implementation; NewZerolog and
// Nop are provided for convenience.
type Logger interface {
	Debug(msg string, fields Fields)
	Info(msg string, fields Fields)
	Warn(msg string, fields Fields)
	Error(msg string, err error, fields Fields)
	// With returns a Logger that always attaches the given component name
	// to every line it emits, via `.With().Str("component", ...)`.
	With(component string) Logger
}

type zerologLogger struct {
	log zerolog.Logger
}

// NewZerolog builds the default Logger: a console-writer zerolog.Logger
// timestamped in RFC3339.
func NewZerolog() Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return &zerologLogger{log: zerolog.New(out).With().Timestamp().Logger()}
}

// NewZerologFrom wraps an already-configured zerolog.Logger, for callers
// who want to control output/format themselves.
func NewZerologFrom(l zerolog.Logger) Logger {
	return &zerologLogger{log: l}
}

func (z *zerologLogger) With(component string) Logger {
	return &zerologLogger{log: z.log.With().Str("component", component).Logger()}
}

func (z *zerologLogger) Debug(msg string, fields Fields) {
	applyFields(z.log.Debug(), fields).Msg(msg)
}

func (z *zerologLogger) Info(msg string, fields Fields) {
	applyFields(z.log.Info(), fields).Msg(msg)
}

func (z *zerologLogger) Warn(msg string, fields Fields) {
	applyFields(z.log.Warn(), fields).Msg(msg)
}

func (z *zerologLogger) Error(msg string, err error, fields Fields) {
	applyFields(z.log.Error().Err(err), fields).Msg(msg)
}

func applyFields(ev *zerolog.Event, fields Fields) *zerolog.Event {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	return ev
}

// nopLogger discards everything. Used as the safe default when a caller
// does not supply a Logger.
type nopLogger struct{}

// Nop returns a Logger that discards all log lines.
func Nop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, Fields)        {}
func (nopLogger) Info(string, Fields)         {}
func (nopLogger) Warn(string, Fields)         {}
func (nopLogger) Error(string, error, Fields) {}
func (nopLogger) With(string) Logger          { return nopLogger{} }
