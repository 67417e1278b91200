// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("nglint.runner")

var (
	filesLinted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nglint",
		Subsystem: "runner",
		Name:      "files_total",
		Help:      "Files linted by outcome",
	}, []string{"status"})

	fileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "nglint",
		Subsystem: "runner",
		Name:      "file_duration_seconds",
		Help:      "Time to lint one file, parse included",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	fixesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nglint",
		Subsystem: "runner",
		Name:      "fixes_total",
		Help:      "Replacements applied or skipped by fix runs",
	}, []string{"outcome"})
)

func startFileSpan(ctx context.Context, path string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "runner.LintFile", trace.WithAttributes(attribute.String("file", path)))
}

func endFileSpan(span trace.Span, res *FileResult) {
	status := "ok"
	switch {
	case res.Err != nil:
		status = "error"
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
	case res.Cached:
		status = "cached"
	}
	span.SetAttributes(
		attribute.Int("failures", len(res.Failures)),
		attribute.Bool("cached", res.Cached),
	)
	span.End()
	filesLinted.WithLabelValues(status).Inc()
}
