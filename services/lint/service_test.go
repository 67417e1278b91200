// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lint

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/AleutianAI/nglint/services/lint/config"
	"github.com/AleutianAI/nglint/services/lint/runner"
)

const testConfig = "rules:\n" +
	"  template-no-this: true\n" +
	"  template-no-call-expression: true\n" +
	"cache:\n  enabled: false\n" +
	"max_file_size: 4096\n"

const component = "@Component({\n" +
	"  selector: 'app-t',\n" +
	"  template: `<p>{{ this.title }}</p><p>{{ load() }}</p>`\n" +
	"})\n" +
	"export class TComponent {}\n"

func setupTestRouter(t *testing.T, opts ...RouterOption) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := config.Load(context.Background(), []byte(testConfig))
	require.NoError(t, err)
	r, err := runner.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	opts = append([]RouterOption{WithRouterLogger(logger)}, opts...)
	return NewRouter(NewHandlers(r, logger), opts...)
}

func postLint(t *testing.T, router http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/lint", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleLint(t *testing.T) {
	router := setupTestRouter(t)

	w := postLint(t, router, LintRequest{FileName: "t.component.ts", Content: component})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LintResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "t.component.ts", resp.FileName)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, resp.RequestID, w.Header().Get(RequestIDHeader))

	var names []string
	for _, f := range resp.Failures {
		names = append(names, f.RuleName)
	}
	assert.ElementsMatch(t, []string{"template-no-this", "template-no-call-expression"}, names)
}

func TestHandleLint_RuleSelection(t *testing.T) {
	router := setupTestRouter(t)

	w := postLint(t, router, LintRequest{
		FileName: "t.component.ts",
		Content:  component,
		Rules:    map[string][]any{"template-no-this": {}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LintResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "template-no-this", resp.Failures[0].RuleName)
	assert.NotEmpty(t, resp.Failures[0].Fix)
}

func TestHandleLint_Errors(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"missing content", map[string]any{"fileName": "a.ts"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"missing file name", map[string]any{"content": "x"}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown rule", LintRequest{FileName: "a.ts", Content: "x", Rules: map[string][]any{"no-such-rule": {}}}, http.StatusBadRequest, "UNKNOWN_RULE"},
		{"too large", LintRequest{FileName: "a.ts", Content: strings.Repeat("x", 5000)}, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postLint(t, router, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestRequestID_Propagated(t *testing.T) {
	router := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/lint/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestHandleRulesAndHealth(t *testing.T) {
	router := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/lint/rules", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Rules []struct {
			Name string `json:"ruleName"`
		} `json:"rules"`
		Enabled []string `json:"enabled"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Rules, 10)
	assert.ElementsMatch(t, []string{"template-no-this", "template-no-call-expression"}, list.Enabled)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/lint/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, runner.Version, health.Version)
	assert.Equal(t, 10, health.Rules)
}

func TestRateLimit(t *testing.T) {
	router := setupTestRouter(t, WithRateLimit(0.001, 1))

	body := LintRequest{FileName: "a.ts", Content: "const a = 1;"}
	assert.Equal(t, http.StatusOK, postLint(t, router, body).Code)
	w := postLint(t, router, body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// Health is not throttled.
	hw := httptest.NewRecorder()
	router.ServeHTTP(hw, httptest.NewRequest(http.MethodGet, "/v1/lint/health", nil))
	assert.Equal(t, http.StatusOK, hw.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	postLint(t, router, LintRequest{FileName: "a.ts", Content: "const a = 1;"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nglint_http_requests_total")
	assert.Contains(t, w.Body.String(), "nglint_runner_files_total")
}

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	router := setupTestRouter(t, WithTracerProvider(tp))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/lint/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	spans := recorder.Ended()
	require.NotEmpty(t, spans)
	assert.Contains(t, spans[0].Name(), "/v1/lint/health")
}
