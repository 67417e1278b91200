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
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// RegisterRoutes registers the /v1/lint endpoints.
//
// Description:
//
//	The router group should already carry the request id and tracing
//	middleware. limiter guards the lint endpoint only; health and rule
//	listing stay unthrottled.
//
// Endpoints:
//
//	POST /v1/lint        - Lint one file
//	GET  /v1/lint/rules  - List rules
//	GET  /v1/lint/health - Health check
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers, limiter *rate.Limiter) {
	lint := rg.Group("/lint")
	{
		lint.POST("", RateLimitMiddleware(limiter), handlers.HandleLint)
		lint.GET("/rules", handlers.HandleRules)
		lint.GET("/health", handlers.HandleHealth)
	}
}

// RouterOption configures NewRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	logger   *slog.Logger
	limiter  *rate.Limiter
	provider trace.TracerProvider
}

// WithRouterLogger sets the request logger.
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(o *routerOptions) { o.logger = logger }
}

// WithRateLimit throttles POST /v1/lint to rps requests per second with
// the given burst. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) RouterOption {
	return func(o *routerOptions) {
		if rps <= 0 {
			o.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		o.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithTracerProvider sets the provider otelgin records spans with. The
// global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) RouterOption {
	return func(o *routerOptions) { o.provider = tp }
}

// NewRouter builds the service engine: recovery, tracing, request ids,
// request logging, the lint routes and GET /metrics.
func NewRouter(handlers *Handlers, opts ...RouterOption) *gin.Engine {
	o := routerOptions{logger: slog.Default(), limiter: rate.NewLimiter(50, 100)}
	for _, opt := range opts {
		opt(&o)
	}

	var tracing []otelgin.Option
	if o.provider != nil {
		tracing = append(tracing, otelgin.WithTracerProvider(o.provider))
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("nglint", tracing...))
	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(o.logger))

	RegisterRoutes(router.Group("/v1"), handlers, o.limiter)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}
