package logger

import (
	"io"
	"log/slog"
	"os"
)

type options struct {
	level   slog.Level
	json    bool
	output  io.Writer
	attrs   []slog.Attr
	addSrc  bool
	service string
}

// Option configures the logger factory.
type Option func(*options)

// WithLevel sets the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithJSONFormatter switches output to JSON format.
func WithJSONFormatter() Option {
	return func(o *options) {
		o.json = true
	}
}

// WithTextFormatter switches output to human-readable text format.
func WithTextFormatter() Option {
	return func(o *options) {
		o.json = false
	}
}

// WithOutput redirects log output. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithAttr appends attributes included with every log record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) {
		o.attrs = append(o.attrs, attrs...)
	}
}

// WithSource includes the file:line of the logging call site.
func WithSource() Option {
	return func(o *options) {
		o.addSrc = true
	}
}

// WithDevelopment configures text output at debug level for local development.
func WithDevelopment(service string) Option {
	return func(o *options) {
		o.service = service
		o.json = false
		o.level = slog.LevelDebug
	}
}

// WithProduction configures JSON output at info level.
func WithProduction(service string) Option {
	return func(o *options) {
		o.service = service
		o.json = true
		o.level = slog.LevelInfo
	}
}

// New creates a slog.Logger built on the standard library handlers.
// Without options it logs text at info level to stdout.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		output: os.Stdout,
	}

	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     o.level,
		AddSource: o.addSrc,
	}

	var handler slog.Handler
	if o.json {
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(o.output, handlerOpts)
	}

	attrs := o.attrs
	if o.service != "" {
		attrs = append([]slog.Attr{slog.String("service", o.service)}, attrs...)
	}
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops all records. Useful as a default in
// components where logging is optional.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
