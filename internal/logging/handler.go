// Package logging provides structured logging with OpenTelemetry trace context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// traceHandler wraps a slog.Handler to add trace context. level gates every
// sink behind handler.
type traceHandler struct {
	handler slog.Handler
	level   slog.Leveler
	service string
	version string
}

// Handle adds service, version and trace context to the log record.
func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(
		slog.String("service", h.service),
		slog.String("version", h.version),
	)
	r.AddAttrs(traceAttrs(ctx)...)
	return h.handler.Handle(ctx, r)
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() && h.handler.Enabled(ctx, level)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{
		handler: h.handler.WithAttrs(attrs),
		level:   h.level,
		service: h.service,
		version: h.version,
	}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{
		handler: h.handler.WithGroup(name),
		level:   h.level,
		service: h.service,
		version: h.version,
	}
}

// Option configures Setup.
type Option func(*options)

type options struct {
	level slog.Leveler
	extra []slog.Handler
}

// WithLevel sets the minimum level for every sink. Default debug.
func WithLevel(level slog.Leveler) Option {
	return func(o *options) { o.level = level }
}

// WithHandler adds a handler that receives every record alongside the base
// handler (e.g. the OpenTelemetry log bridge). Nil handlers are ignored.
func WithHandler(h slog.Handler) Option {
	return func(o *options) {
		if h != nil {
			o.extra = append(o.extra, h)
		}
	}
}

// Setup creates a configured slog.Logger.
// format: "json" or "text" (defaults to "json" if empty)
// If w is nil, writes to os.Stderr.
func Setup(service, version, format string, w io.Writer, opts ...Option) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	o := options{level: slog.LevelDebug}
	for _, opt := range opts {
		opt(&o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}
	var baseHandler slog.Handler
	if format == "text" {
		baseHandler = slog.NewTextHandler(w, handlerOpts)
	} else {
		baseHandler = slog.NewJSONHandler(w, handlerOpts)
	}
	if len(o.extra) > 0 {
		baseHandler = slogmulti.Fanout(append([]slog.Handler{baseHandler}, o.extra...)...)
	}

	return slog.New(&traceHandler{
		handler: baseHandler,
		level:   o.level,
		service: service,
		version: version,
	})
}

// SetDefault sets up the logger and installs it as slog's default.
func SetDefault(service, version, format string, opts ...Option) *slog.Logger {
	logger := Setup(service, version, format, nil, opts...)
	slog.SetDefault(logger)
	return logger
}
