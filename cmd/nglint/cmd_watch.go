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
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/nglint/services/lint/runner"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		format string
		color  string
	)
	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Lint again whenever a source, template or stylesheet changes",
		RunE: func(cmd *cobra.Command, paths []string) error {
			formatter, err := newFormatter(format, color)
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			r, closeRunner, err := a.newRunner(cfg, false)
			if err != nil {
				return err
			}
			defer closeRunner()

			if len(paths) == 0 {
				paths = []string{"."}
			}
			out := cmd.OutOrStdout()
			return r.Watch(cmd.Context(), paths, func(res *runner.Result) {
				if err := formatter.Format(out, res); err != nil {
					a.logger.Warn("write report", slog.String("error", err.Error()))
				}
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "stylish", "Output format: diff, json or stylish")
	cmd.Flags().StringVar(&color, "color", "auto", "Colorize stylish output: auto, always or never")
	return cmd
}
