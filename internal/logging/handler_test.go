package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/trace"

	telemetryotel "innovation-portal/backend/internal/telemetry/otel"
)

func TestSetup_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("portal", "1.0.0", "json", &buf)

	logger.Info("test message")

	var entry map[string]any
	err := json.Unmarshal(buf.Bytes(), &entry)
	require.NoError(t, err, "Failed to parse JSON: %s", buf.String())

	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "portal", entry["service"])
	assert.Equal(t, "1.0.0", entry["version"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "level")
}

func TestSetup_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("worker", "1.0.0", "text", &buf)

	logger.Info("test message")

	output := buf.String()
	assert.Contains(t, output, "test message")
	assert.Contains(t, output, "worker")
}

func TestSetup_DefaultFormatIsJSON(t *testing.T) {
	var buf bytes.Buffer
	Setup("portal", "1.0.0", "", &buf).Info("test message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "Default format should be JSON")
}

func TestSetup_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("portal", "1.0.0", "json", &buf, WithLevel(slog.LevelWarn))

	logger.Info("hidden")
	assert.Zero(t, buf.Len(), "info should be filtered at warn level")

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestHandler_TraceContext(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("portal", "1.0.0", "json", &buf)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	logger.InfoContext(ctx, "traced message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestHandler_NoTraceContext(t *testing.T) {
	var buf bytes.Buffer
	Setup("portal", "1.0.0", "json", &buf).Info("no trace message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "trace_id")
	assert.NotContains(t, entry, "span_id")
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("portal", "1.0.0", "json", &buf).With("component", "auth").WithGroup("req")

	logger.Info("grouped", "id", "r-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "auth", entry["component"])
	req, ok := entry["req"].(map[string]any)
	require.True(t, ok, "req group missing: %s", buf.String())
	assert.Equal(t, "r-1", req["id"])
}

// memExporter collects records exported by the sdk LoggerProvider.
type memExporter struct {
	records []sdklog.Record
}

func (e *memExporter) Export(_ context.Context, records []sdklog.Record) error {
	for _, r := range records {
		e.records = append(e.records, r.Clone())
	}
	return nil
}

func (e *memExporter) Shutdown(context.Context) error   { return nil }
func (e *memExporter) ForceFlush(context.Context) error { return nil }

func TestSetup_OTelBridge(t *testing.T) {
	exp := &memExporter{}
	providers := &telemetryotel.Providers{
		LoggerProvider: sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp))),
	}
	t.Cleanup(func() { _ = providers.LoggerProvider.Shutdown(context.Background()) })

	var buf bytes.Buffer
	logger := Setup("portal", "1.0.0", "json", &buf,
		WithLevel(slog.LevelInfo),
		WithHandler(providers.SlogHandler("innovation-portal")),
	)

	logger.Debug("below level")
	logger.Error("both sinks", "account_id", "acct-1")

	assert.NotContains(t, buf.String(), "below level")
	assert.Contains(t, buf.String(), "both sinks")

	require.Len(t, exp.records, 1, "debug should reach neither sink at info level")
	rec := exp.records[0]
	assert.Equal(t, "both sinks", rec.Body().AsString())
	assert.Equal(t, otellog.SeverityError, rec.Severity())

	attrs := map[string]string{}
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	assert.Equal(t, "acct-1", attrs["account_id"])
	assert.Equal(t, "portal", attrs["service"])
}

func TestWithHandler_IgnoresNil(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup("portal", "1.0.0", "json", &buf, WithHandler(nil))
	logger.Info("ok")
	assert.Contains(t, buf.String(), "ok")
}

func TestSetDefault(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	logger := SetDefault("test-service", "2.0.0", "json")
	assert.Equal(t, logger, slog.Default())
}
