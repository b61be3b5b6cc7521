// Chatstats - Group Chat Analytics Rollup Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatstats

package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every line as the "service" field.
const ServiceName = "chatstats"

// Config selects level, format and destination of the global logger.
type Config struct {
	// Level is trace, debug, info, warn (or warning), error or disabled.
	// Empty means info.
	Level string

	// Format is json (default) or console.
	Format string

	// Caller adds file:line to each line.
	Caller bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

var (
	log zerolog.Logger
	mu  sync.RWMutex
)

//nolint:gochecknoinits // commands log before their config is loaded
func init() {
	log = build(Config{Output: os.Stderr})
}

// Init replaces the global logger. An unknown level or format is an error and
// leaves the current logger in place, so a bad --log-level flag is reported
// on the previous logger.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	switch cfg.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	mu.Lock()
	defer mu.Unlock()
	zerolog.SetGlobalLevel(level)
	log = build(cfg)
	return nil
}

// ParseLevel maps a configured level name onto zerolog's levels.
func ParseLevel(level string) (zerolog.Level, error) {
	switch s := strings.ToLower(strings.TrimSpace(level)); s {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	default:
		l, err := zerolog.ParseLevel(s)
		if err != nil || l == zerolog.NoLevel {
			return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
		}
		return l, nil
	}
}

func build(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).With().Timestamp().Str("service", ServiceName)
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// SetLogger replaces the global logger. Tests use it with NewTestLogger.
//
//nolint:gocritic // zerolog.Logger is passed by value
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	log = l
}

// With starts a child logger of the global one.
func With() zerolog.Context {
	mu.RLock()
	defer mu.RUnlock()
	return log.With()
}

// Info starts an info line on the global logger.
func Info() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Info()
}

// Warn starts a warn line on the global logger.
func Warn() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Warn()
}

// Error starts an error line on the global logger.
func Error() *zerolog.Event {
	mu.RLock()
	defer mu.RUnlock()
	return log.Error()
}

// NewTestLogger writes JSON lines to w at every level.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).Level(zerolog.TraceLevel).With().Timestamp().Logger()
}
