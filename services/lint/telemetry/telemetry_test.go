// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_None(t *testing.T) {
	tel, err := Setup(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tel.Tracer)
	assert.Nil(t, tel.Meter)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetup_StdoutTrace(t *testing.T) {
	var buf bytes.Buffer
	tel, err := Setup(context.Background(), WithTraceExporter(TraceStdout), WithWriter(&buf), WithVersion("test"))
	require.NoError(t, err)

	_, span := otel.Tracer("nglint.test").Start(context.Background(), "unit")
	span.End()
	require.NoError(t, tel.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name": "unit"`)
}

func TestSetup_PrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	tel, err := Setup(context.Background(), WithMetricExporter(MetricsPrometheus), WithRegisterer(reg))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	counter, err := otel.Meter("nglint.test").Int64Counter("nglint.test.events")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "nglint_test_events_total")
}

func TestSetup_Unknown(t *testing.T) {
	_, err := Setup(context.Background(), WithTraceExporter("zipkin"))
	assert.True(t, errors.Is(err, ErrUnknownExporter))
	_, err = Setup(context.Background(), WithMetricExporter("statsd"))
	assert.True(t, errors.Is(err, ErrUnknownExporter))
}
