// Package logger provides the shared zerolog-backed application logger.
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init initializes the default logger with a JSON handler writing to stderr.
// It ensures that the logger is initialized only once.
func Init() {
	once.Do(func() {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
		defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	})
}

// SetLevel adjusts the global log level ("debug", "info", "warn", "error").
// Unknown values leave the level unchanged.
func SetLevel(level string) {
	Init()
	switch strings.ToLower(level) {
	case "debug":
		defaultLogger = defaultLogger.Level(zerolog.DebugLevel)
	case "info":
		defaultLogger = defaultLogger.Level(zerolog.InfoLevel)
	case "warn":
		defaultLogger = defaultLogger.Level(zerolog.WarnLevel)
	case "error":
		defaultLogger = defaultLogger.Level(zerolog.ErrorLevel)
	}
}

// Get returns the initialized default logger.
func Get() zerolog.Logger {
	Init()
	return defaultLogger
}

// Info logs an informational message with alternating key/value pairs.
func Info(msg string, kv ...any) {
	l := Get()
	event(l.Info(), kv).Msg(msg)
}

// Warn logs a warning message with alternating key/value pairs.
func Warn(msg string, kv ...any) {
	l := Get()
	event(l.Warn(), kv).Msg(msg)
}

// Error logs an error message with the error attached.
func Error(msg string, err error, kv ...any) {
	l := Get()
	event(l.Error().Err(err), kv).Msg(msg)
}

// Debug logs a debug message with alternating key/value pairs.
func Debug(msg string, kv ...any) {
	l := Get()
	event(l.Debug(), kv).Msg(msg)
}

func event(e *zerolog.Event, kv []any) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, kv[i+1])
	}
	return e
}
