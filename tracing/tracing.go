// Package tracing offers support for distributed tracing utilizing OpenTelemetry (OTEL).
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package tracing

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/NVIDIA/aisdataset/cmn"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultServiceName = "ais-dataset"
	tracerName         = "github.com/NVIDIA/aisdataset"
)

var tp *sdktrace.TracerProvider

// (swapped in tests)
var newExporter = func(conf *cmn.TracingConf) (sdktrace.SpanExporter, error) {
	options := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(conf.ExporterEndpoint),
		otlptracegrpc.WithRetry(otlptracegrpc.RetryConfig{Enabled: true}),
	}
	if conf.SkipVerify {
		options = append(options, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(context.Background(), options...)
}

// newResource returns a resource describing this application.
func newResource(conf *cmn.TracingConf, version string) *resource.Resource {
	serviceName := strings.TrimSpace(conf.ServiceName)
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	r, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(serviceName),
			attribute.String("version", version),
		),
	)
	return r
}

func IsEnabled() bool {
	return tp != nil
}

// Init is a no-op when tracing is not enabled
func Init(conf *cmn.TracingConf, version string) error {
	if conf == nil || !conf.Enabled {
		return nil
	}
	if conf.ExporterEndpoint == "" {
		return errors.New("tracing: exporter endpoint can't be empty")
	}
	exp, err := newExporter(conf)
	if err != nil {
		return err
	}
	tp = sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(conf.SamplerProbablity))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(newResource(conf, version)),
	)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)
	otel.SetTracerProvider(tp)
	return nil
}

// Shutdown flushes pending spans
func Shutdown(ctx context.Context) error {
	if tp == nil {
		return nil
	}
	err := tp.Shutdown(ctx)
	tp = nil
	return err
}

func ForceFlush(ctx context.Context) error {
	if tp == nil {
		return nil
	}
	return tp.ForceFlush(ctx)
}

func NewTraceableClient(client *http.Client) *http.Client {
	if IsEnabled() {
		client.Transport = otelhttp.NewTransport(client.Transport)
	}
	return client
}

// StartSpan starts a span with the global tracer (no-op unless enabled);
// the caller must End it
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records the error, if any, and ends the span
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
