// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const astTracerName = "nglint.ast"

var (
	// parseDuration measures source parse latency.
	//
	// Labels:
	//   - status: "success" or "error"
	parseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nglint",
			Subsystem: "ast",
			Name:      "parse_duration_seconds",
			Help:      "Duration of TypeScript source parses in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"status"},
	)

	// classesFound counts decorated and plain classes extracted.
	classesFound = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "nglint",
			Subsystem: "ast",
			Name:      "classes_total",
			Help:      "Total class declarations extracted from parsed sources.",
		},
	)
)

// startParseSpan opens a span for one source parse.
func startParseSpan(ctx context.Context, filePath string, size int) (context.Context, trace.Span) {
	return otel.Tracer(astTracerName).Start(ctx, "ast.Parse",
		trace.WithAttributes(
			attribute.String("file", filePath),
			attribute.Int("size_bytes", size),
		),
	)
}

// setParseSpanResult records the extraction summary on the span.
func setParseSpanResult(span trace.Span, classes, errs int) {
	span.SetAttributes(
		attribute.Int("classes", classes),
		attribute.Int("errors", errs),
	)
}

// recordParseMetrics records one parse outcome.
func recordParseMetrics(duration time.Duration, classes int, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	parseDuration.WithLabelValues(status).Observe(duration.Seconds())
	classesFound.Add(float64(classes))
}
