// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package styles

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const stylesTracerName = "nglint.styles"

var (
	// styleParseDuration measures stylesheet parse latency.
	//
	// Labels:
	//   - status: "success" or "error"
	styleParseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nglint",
			Subsystem: "styles",
			Name:      "parse_duration_seconds",
			Help:      "Duration of stylesheet parses in seconds.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"status"},
	)

	rulesParsed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "nglint",
		Subsystem: "styles",
		Name:      "rules_parsed_total",
		Help:      "Total CSS rules extracted from stylesheets.",
	})

	// transformDuration measures style transforms.
	//
	// Labels:
	//   - transformer: "sass"
	//   - status: "success" or "error"
	transformDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nglint",
			Subsystem: "styles",
			Name:      "transform_duration_seconds",
			Help:      "Duration of style transforms in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"transformer", "status"},
	)
)

func startStyleSpan(ctx context.Context, source string, size int) (context.Context, trace.Span) {
	return otel.Tracer(stylesTracerName).Start(ctx, "styles.Parse",
		trace.WithAttributes(
			attribute.String("source", source),
			attribute.Int("size_bytes", size),
		),
	)
}

func recordStyleParse(duration time.Duration, result Result) {
	status := "success"
	if result.Err != nil {
		status = "error"
	}
	styleParseDuration.WithLabelValues(status).Observe(duration.Seconds())
	if result.Sheet != nil {
		rulesParsed.Add(float64(len(result.Sheet.Rules)))
	}
}

func recordTransform(transformer string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	transformDuration.WithLabelValues(transformer, status).Observe(duration.Seconds())
}
