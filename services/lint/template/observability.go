// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package template

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const templateTracerName = "nglint.template"

var (
	// templateParseDuration measures template parse latency.
	//
	// Labels:
	//   - status: "success" or "error"
	templateParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nglint",
			Subsystem: "template",
			Name:      "parse_duration_seconds",
			Help:      "Duration of template parses in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"status"},
	)
)

func startTemplateSpan(ctx context.Context, source string, size int) (context.Context, trace.Span) {
	return otel.Tracer(templateTracerName).Start(ctx, "template.Parse",
		trace.WithAttributes(
			attribute.String("source", source),
			attribute.Int("size_bytes", size),
		),
	)
}

func recordTemplateParse(duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	templateParseDuration.WithLabelValues(status).Observe(duration.Seconds())
}
