// Package logger builds the slog handler used by the CLI: a tint console
// handler on stderr, optionally teed to a size-rotated log file.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls New.
type Options struct {
	Level   slog.Level
	Writer  io.Writer // console destination; os.Stderr when nil
	NoColor bool
	File    string // rotated JSON log file; disabled when empty
}

// Option mutates Options.
type Option func(*Options)

// WithLevel sets the minimum level.
func WithLevel(l slog.Level) Option { return func(o *Options) { o.Level = l } }

// WithWriter sets the console destination.
func WithWriter(w io.Writer) Option { return func(o *Options) { o.Writer = w } }

// WithNoColor disables ANSI colors.
func WithNoColor(v bool) Option { return func(o *Options) { o.NoColor = v } }

// WithLogFile also writes JSON records to path, rotated by lumberjack.
func WithLogFile(path string) Option { return func(o *Options) { o.File = path } }

// ParseLevel maps debug, info, warn and error to slog levels. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// New returns a logger and a close func that flushes the log file, if any.
func New(opts ...Option) (*slog.Logger, func() error) {
	o := Options{Level: slog.LevelInfo, Writer: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}

	console := tint.NewHandler(o.Writer, &tint.Options{
		Level:      o.Level,
		TimeFormat: time.Kitchen,
		NoColor:    o.NoColor,
	})
	if o.File == "" {
		return slog.New(console), func() error { return nil }
	}

	file := &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	jsonHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: o.Level})
	return slog.New(fanout{console, jsonHandler}), file.Close
}

// fanout sends each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
