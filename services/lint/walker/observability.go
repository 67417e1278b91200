// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package walker

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const walkerTracerName = "nglint.walker"

var (
	// ruleDuration measures one rule pass over one file.
	//
	// Labels:
	//   - rule: Rule name
	ruleDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nglint",
			Subsystem: "walker",
			Name:      "rule_duration_seconds",
			Help:      "Duration of one rule pass over one file in seconds.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"rule"},
	)

	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nglint",
			Subsystem: "walker",
			Name:      "failures_total",
			Help:      "Total failures reported by rule.",
		},
		[]string{"rule"},
	)

	rulePanics = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nglint",
			Subsystem: "walker",
			Name:      "rule_panics_total",
			Help:      "Total recovered rule panics.",
		},
		[]string{"rule"},
	)

	// fragmentErrors counts templates and stylesheets that were skipped.
	//
	// Labels:
	//   - kind: "template", "style", "transform" or "resolve"
	fragmentErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nglint",
			Subsystem: "walker",
			Name:      "fragment_errors_total",
			Help:      "Total component fragments skipped because they could not be loaded or parsed.",
		},
		[]string{"kind"},
	)
)

// ruleLatency is recorded through the OTel meter so it reaches whichever
// meter provider the process installed.
var ruleLatency, _ = otel.Meter(walkerTracerName).Float64Histogram(
	"nglint.rule.duration",
	metric.WithDescription("Duration of one rule pass over one file."),
	metric.WithUnit("s"),
)

func startWalkSpan(ctx context.Context, path string, passes int) (context.Context, trace.Span) {
	return otel.Tracer(walkerTracerName).Start(ctx, "walker.Walk",
		trace.WithAttributes(
			attribute.String("file", path),
			attribute.Int("rules", passes),
		),
	)
}

func startRuleSpan(ctx context.Context, rule string) (context.Context, trace.Span) {
	return otel.Tracer(walkerTracerName).Start(ctx, "rule.Apply",
		trace.WithAttributes(attribute.String("rule", rule)),
	)
}

func recordRule(ctx context.Context, rule string, duration time.Duration, failures int, panicked bool) {
	ruleDuration.WithLabelValues(rule).Observe(duration.Seconds())
	if failures > 0 {
		failuresTotal.WithLabelValues(rule).Add(float64(failures))
	}
	if panicked {
		rulePanics.WithLabelValues(rule).Inc()
	}
	if ruleLatency != nil {
		ruleLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("rule", rule)))
	}
}
