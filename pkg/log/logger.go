// Package log configures structured logging for the training pipelines on
// top of zerolog. All pipeline stages log through contextual loggers derived
// from the package logger, so a run can be filtered by pipeline, algorithm
// and stage fields.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/calt-laboratory/mlpipeline/pkg/errors"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
)

// Setup configures the package logger. When json is true, events are written
// as JSON lines; otherwise a console writer is used. Invalid levels fall back
// to info. Setup also routes pkg/errors warnings through zerolog.
func Setup(level string, json bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if json {
		w = os.Stderr
	}

	mu.Lock()
	logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	mu.Unlock()

	errors.SetWarningHandler(func(warning error) {
		l := Logger()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			l.Warn().Object("warning", obj).Msg(warning.Error())
			return
		}
		l.Warn().Msg(warning.Error())
	})
}

// SetOutput redirects the package logger to w, keeping its level and
// context. Tests use it to capture log output.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger = logger.Output(w)
	mu.Unlock()
}

// Logger returns the current package logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a contextual logger carrying a component field.
func With(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}
