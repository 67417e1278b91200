// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry installs the OpenTelemetry trace and meter providers.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrUnknownExporter indicates an exporter name that is not supported.
var ErrUnknownExporter = errors.New("unknown exporter")

// Trace exporters.
const (
	TraceNone   = "none"
	TraceStdout = "stdout"
	TraceOTLP   = "otlp"
)

// Metric exporters.
const (
	MetricsNone       = "none"
	MetricsPrometheus = "prometheus"
	MetricsStdout     = "stdout"
)

// Option configures Setup.
type Option func(*settings)

type settings struct {
	traces     string
	metrics    string
	endpoint   string
	insecure   bool
	writer     io.Writer
	registerer prometheus.Registerer
	version    string
}

// WithTraceExporter selects TraceNone, TraceStdout or TraceOTLP.
func WithTraceExporter(name string) Option {
	return func(s *settings) { s.traces = name }
}

// WithMetricExporter selects MetricsNone, MetricsPrometheus or
// MetricsStdout.
func WithMetricExporter(name string) Option {
	return func(s *settings) { s.metrics = name }
}

// WithOTLPEndpoint sets the collector address for TraceOTLP.
func WithOTLPEndpoint(endpoint string, insecure bool) Option {
	return func(s *settings) {
		s.endpoint = endpoint
		s.insecure = insecure
	}
}

// WithWriter sets the destination of the stdout exporters.
func WithWriter(w io.Writer) Option {
	return func(s *settings) { s.writer = w }
}

// WithRegisterer sets the Prometheus registry the metric exporter
// registers with.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(s *settings) { s.registerer = r }
}

// WithVersion sets the service.version resource attribute.
func WithVersion(v string) Option {
	return func(s *settings) { s.version = v }
}

// Telemetry owns the installed providers.
type Telemetry struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// Setup builds the providers and installs them globally.
//
// Description:
//
//	With TraceNone no tracer provider is installed and spans stay no-ops.
//	With MetricsNone no meter provider is installed. The stdout exporters
//	write to stderr unless WithWriter is given.
//
// Outputs:
//   - *Telemetry: Call Shutdown to flush exporters.
//   - error: ErrUnknownExporter or an exporter construction failure.
func Setup(ctx context.Context, opts ...Option) (*Telemetry, error) {
	s := settings{traces: TraceNone, metrics: MetricsNone, writer: os.Stderr, registerer: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(&s)
	}
	attrs := []attribute.KeyValue{attribute.String("service.name", "nglint")}
	if s.version != "" {
		attrs = append(attrs, attribute.String("service.version", s.version))
	}
	res := resource.NewSchemaless(attrs...)

	t := &Telemetry{}
	var err error
	if t.Tracer, err = tracerProvider(ctx, s, res); err != nil {
		return nil, err
	}
	if t.Meter, err = meterProvider(s, res); err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}
	if t.Tracer != nil {
		otel.SetTracerProvider(t.Tracer)
	}
	if t.Meter != nil {
		otel.SetMeterProvider(t.Meter)
	}
	return t, nil
}

func tracerProvider(ctx context.Context, s settings, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	var exp sdktrace.SpanExporter
	var err error
	switch s.traces {
	case TraceNone, "":
		return nil, nil
	case TraceStdout:
		exp, err = stdouttrace.New(stdouttrace.WithWriter(s.writer), stdouttrace.WithPrettyPrint())
	case TraceOTLP:
		opts := []otlptracegrpc.Option{}
		if s.endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(s.endpoint))
		}
		if s.insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err = otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("%w: trace %q", ErrUnknownExporter, s.traces)
	}
	if err != nil {
		return nil, fmt.Errorf("trace exporter %s: %w", s.traces, err)
	}
	return sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp), sdktrace.WithResource(res)), nil
}

func meterProvider(s settings, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	var reader sdkmetric.Reader
	switch s.metrics {
	case MetricsNone, "":
		return nil, nil
	case MetricsPrometheus:
		exp, err := otelprom.New(otelprom.WithRegisterer(s.registerer))
		if err != nil {
			return nil, fmt.Errorf("prometheus exporter: %w", err)
		}
		reader = exp
	case MetricsStdout:
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(s.writer))
		if err != nil {
			return nil, fmt.Errorf("stdout metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exp)
	default:
		return nil, fmt.Errorf("%w: metrics %q", ErrUnknownExporter, s.metrics)
	}
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res)), nil
}

// Shutdown flushes and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	if t.Tracer != nil {
		errs = append(errs, t.Tracer.Shutdown(ctx))
	}
	if t.Meter != nil {
		errs = append(errs, t.Meter.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
