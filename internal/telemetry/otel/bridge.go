package otel

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// SlogHandler returns a slog.Handler that emits records to p.LoggerProvider
// under the instrumentation scope name. Level filtering is left to the caller.
func (p *Providers) SlogHandler(scope string) slog.Handler {
	return otelslog.NewHandler(scope, otelslog.WithLoggerProvider(p.LoggerProvider))
}
