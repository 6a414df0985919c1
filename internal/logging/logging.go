// Package logging builds the slog loggers used by the binaries.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
)

// Option configures a logger created with New.
type Option func(*options)

type options struct {
	level  slog.Level
	json   bool
	pretty bool
	writer io.Writer
}

// WithLevel sets the minimum level.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithJSON switches to slog's JSON handler for service logs.
func WithJSON(json bool) Option {
	return func(o *options) {
		o.json = json
	}
}

// WithPretty switches to the charmbracelet/log handler for colorized CLI output.
func WithPretty(pretty bool) Option {
	return func(o *options) {
		o.pretty = pretty
	}
}

// WithWriter overrides the output writer. Defaults to os.Stderr so that
// stdout stays free for the MCP stdio transport.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.writer = w
	}
}

// New creates a *slog.Logger.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		writer: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}

	switch {
	case o.pretty:
		handler := charmlog.NewWithOptions(o.writer, charmlog.Options{
			Level:           charmlog.Level(o.level),
			ReportTimestamp: true,
		})
		return slog.New(handler)
	case o.json:
		return slog.New(slog.NewJSONHandler(o.writer, &slog.HandlerOptions{Level: o.level}))
	default:
		return slog.New(slog.NewTextHandler(o.writer, &slog.HandlerOptions{Level: o.level}))
	}
}

// FromConfig builds a logger from LOG_LEVEL and LOG_FORMAT values.
func FromConfig(level, format string) *slog.Logger {
	format = strings.ToLower(strings.TrimSpace(format))
	return New(
		WithLevel(ParseLevel(level)),
		WithJSON(format == "json"),
		WithPretty(format == "pretty"),
	)
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
