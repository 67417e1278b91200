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
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/nglint/services/lint/cache"
	"github.com/AleutianAI/nglint/services/lint/config"
	"github.com/AleutianAI/nglint/services/lint/runner"
	"github.com/AleutianAI/nglint/services/lint/telemetry"
)

// app holds the state shared by all commands.
type app struct {
	configPath   string
	logLevel     string
	traces       string
	metrics      string
	otlpEndpoint string
	otlpInsecure bool

	stderr io.Writer
	logger *slog.Logger
	tel    *telemetry.Telemetry
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nglint",
		Short: "Lint Angular components, templates and stylesheets",
		Long: `nglint checks Angular TypeScript sources together with their inline or
external templates and stylesheets.

Rules and file selection are read from .nglint.yaml; run "nglint init"
to create one.`,
		Version:       runner.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.start(cmd.Context(), cmd.Name() == "serve")
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", config.FileName, "Configuration file")
	flags.StringVar(&a.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	flags.StringVar(&a.traces, "trace", telemetry.TraceNone, "Trace exporter: none, stdout or otlp")
	flags.StringVar(&a.metrics, "metrics", telemetry.MetricsNone, "OpenTelemetry metric exporter: none, prometheus or stdout")
	flags.StringVar(&a.otlpEndpoint, "otlp-endpoint", "", "OTLP gRPC collector address (host:port)")
	flags.BoolVar(&a.otlpInsecure, "otlp-insecure", false, "Disable TLS for the OTLP exporter")

	cmd.AddCommand(
		newLintCmd(a),
		newRulesCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newInitCmd(a),
	)
	return cmd
}

// start installs the logger and telemetry. The serve command logs JSON.
func (a *app) start(ctx context.Context, jsonLogs bool) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return &exitStatus{code: exitError, err: fmt.Errorf("--log-level: %w", err)}
	}
	opts := &slog.HandlerOptions{Level: level}
	if jsonLogs {
		a.logger = slog.New(slog.NewJSONHandler(a.stderr, opts))
	} else {
		a.logger = slog.New(slog.NewTextHandler(a.stderr, opts))
	}
	slog.SetDefault(a.logger)

	tel, err := telemetry.Setup(ctx,
		telemetry.WithTraceExporter(a.traces),
		telemetry.WithMetricExporter(a.metrics),
		telemetry.WithOTLPEndpoint(a.otlpEndpoint, a.otlpInsecure),
		telemetry.WithWriter(a.stderr),
		telemetry.WithVersion(runner.Version),
	)
	if err != nil {
		return err
	}
	a.tel = tel
	return nil
}

func (a *app) shutdown(ctx context.Context) error {
	if a.tel == nil {
		return nil
	}
	return a.tel.Shutdown(ctx)
}

// loadConfig reads the configuration file, falling back to the embedded
// default when it does not exist.
func (a *app) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadFile(ctx, a.configPath)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("configuration loaded",
		slog.String("path", a.configPath),
		slog.Int("rules", len(cfg.EnabledRules())))
	return cfg, nil
}

// newRunner builds a runner for cfg, opening the result cache unless it
// is disabled. The returned func closes both.
func (a *app) newRunner(cfg *config.Config, noCache bool) (*runner.Runner, func(), error) {
	opts := []runner.Option{runner.WithLogger(a.logger)}
	var store *cache.Store
	if cfg.Cache.Enabled && !noCache {
		s, err := cache.Open(cfg.Cache.Dir, cache.WithLogger(a.logger))
		if err != nil {
			a.logger.Warn("result cache unavailable",
				slog.String("dir", cfg.Cache.Dir),
				slog.String("error", err.Error()))
		} else {
			store = s
			opts = append(opts, runner.WithCache(store))
		}
	}
	r, err := runner.New(cfg, opts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, err
	}
	closer := func() {
		if err := r.Close(); err != nil {
			a.logger.Warn("close runner", slog.String("error", err.Error()))
		}
		if store != nil {
			if err := store.Close(); err != nil {
				a.logger.Warn("close cache", slog.String("error", err.Error()))
			}
		}
	}
	return r, closer, nil
}
