// Copyright 2026 The Flowmove Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/flowmove/flowmove/lib/version"
)

// installTracing registers a global tracer provider that logs every
// finished span. Returns the provider's shutdown function.
func installTracing(logger *slog.Logger) func(context.Context) error {
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(&logExporter{logger: logger}),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName("flowmove"),
			semconv.ServiceVersion(version.Short()),
		)),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(provider)
	logger.Debug("span logging enabled")
	return provider.Shutdown
}

// logExporter writes spans as structured log records.
type logExporter struct {
	logger *slog.Logger
}

func (exporter *logExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		attributes := []any{
			"span", span.Name(),
			"duration", span.EndTime().Sub(span.StartTime()),
			"trace_id", span.SpanContext().TraceID().String(),
		}
		for _, attribute := range span.Attributes() {
			attributes = append(attributes, string(attribute.Key), attribute.Value.Emit())
		}

		level := slog.LevelInfo
		if status := span.Status(); status.Code == codes.Error {
			level = slog.LevelWarn
			attributes = append(attributes, "error", status.Description)
		}
		exporter.logger.Log(ctx, level, "span ended", attributes...)
	}
	return nil
}

func (exporter *logExporter) Shutdown(context.Context) error { return nil }
