// Package rlog provides the leveled structured logger used throughout
// the query pipeline.
package rlog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Level mirrors the zerolog levels the library actually uses.
type Level = zerolog.Level

const (
	DebugLevel = zerolog.DebugLevel
	InfoLevel  = zerolog.InfoLevel
	WarnLevel  = zerolog.WarnLevel
	ErrorLevel = zerolog.ErrorLevel
)

// safeFields lists header/field names that must never reach a log record,
// regardless of what a caller hands to With().
var safeFields = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
}

// Logger wraps zerolog.Logger with a disabled fast-path and a redaction
// boundary for credentials.
type Logger struct {
	z        zerolog.Logger
	disabled bool
}

// New creates a Logger at the given level, writing to w (defaults to
// os.Stderr when w is nil).
func New(level Level, enabled bool, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}

	if !enabled {
		return Logger{disabled: true}
	}

	z := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return Logger{z: z}
}

// Nop returns a zero-cost disabled logger.
func Nop() Logger {
	return Logger{disabled: true}
}

// Disabled reports whether this logger discards everything, letting
// callers skip building log fields entirely on the hot path.
func (l Logger) Disabled() bool {
	return l.disabled
}

// With returns a child logger carrying the given correlation id.
func (l Logger) With(correlationID string) Logger {
	if l.disabled {
		return l
	}
	return Logger{z: l.z.With().Str("qid", correlationID).Logger()}
}

func (l Logger) field(e *zerolog.Event, key, value string) *zerolog.Event {
	if safeFields[normalizeFieldName(key)] {
		return e.Str(key, "[redacted]")
	}
	return e.Str(key, value)
}

func normalizeFieldName(key string) string {
	out := make([]byte, len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// Debug logs a debug-level message with string fields.
func (l Logger) Debug(msg string, fields map[string]string) {
	if l.disabled {
		return
	}
	e := l.z.Debug()
	for k, v := range fields {
		e = l.field(e, k, v)
	}
	e.Msg(msg)
}

// Info logs an info-level message with string fields.
func (l Logger) Info(msg string, fields map[string]string) {
	if l.disabled {
		return
	}
	e := l.z.Info()
	for k, v := range fields {
		e = l.field(e, k, v)
	}
	e.Msg(msg)
}

// Warn logs a warn-level message, used for retried failures.
func (l Logger) Warn(msg string, err error, fields map[string]string) {
	if l.disabled {
		return
	}
	e := l.z.Warn()
	if err != nil {
		e = e.Err(err)
	}
	for k, v := range fields {
		e = l.field(e, k, v)
	}
	e.Msg(msg)
}

// Error logs an error-level message, used for terminal failures.
func (l Logger) Error(msg string, err error, fields map[string]string) {
	if l.disabled {
		return
	}
	e := l.z.Error()
	if err != nil {
		e = e.Err(err)
	}
	for k, v := range fields {
		e = l.field(e, k, v)
	}
	e.Msg(msg)
}
