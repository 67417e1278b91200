// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AleutianAI/nglint/services/lint"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		rps   float64
		burst int
		debug bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lint engine over HTTP",
		Long: `Serve POST /v1/lint, GET /v1/lint/rules, GET /v1/lint/health and
GET /metrics. Run with --metrics prometheus to include the OpenTelemetry
rule latency histogram in /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if debug {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}
			otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			))

			ctx := cmd.Context()
			cfg, err := a.loadConfig(ctx)
			if err != nil {
				return err
			}
			r, closeRunner, err := a.newRunner(cfg, false)
			if err != nil {
				return err
			}
			defer closeRunner()

			router := lint.NewRouter(lint.NewHandlers(r, a.logger),
				lint.WithRouterLogger(a.logger),
				lint.WithRateLimit(rps, burst))
			srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 10 * time.Second}

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			a.logger.Info("starting nglint server", slog.String("address", addr))

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			a.logger.Info("shutting down nglint server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":8080", "Listen address")
	flags.Float64Var(&rps, "rate", 50, "Lint requests per second; 0 disables limiting")
	flags.IntVar(&burst, "burst", 100, "Rate limiter burst")
	flags.BoolVar(&debug, "debug", false, "Enable gin debug mode")
	return cmd
}
