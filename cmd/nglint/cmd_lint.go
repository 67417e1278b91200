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

	"github.com/charmbracelet/huh"
	"github.com/sourcegraph/go-diff/diff"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/nglint/services/lint/config"
	"github.com/AleutianAI/nglint/services/lint/report"
	"github.com/AleutianAI/nglint/services/lint/runner"
)

type lintOptions struct {
	format      string
	color       string
	fix         bool
	dryRun      bool
	interactive bool
	noCache     bool
	jobs        int
}

func newLintCmd(a *app) *cobra.Command {
	var opts lintOptions
	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Lint files, directories or globs",
		Long: `Lint the given files, directories or doublestar globs; the current
directory when none are given.

Exit status is 0 when no problems are found, 1 when problems are
reported and 2 when a file could not be linted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dryRun && !cmd.Flags().Changed("format") {
				opts.format = "diff"
			}
			return a.runLint(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&opts.format, "format", "f", "stylish", "Output format: diff, json or stylish")
	flags.StringVar(&opts.color, "color", "auto", "Colorize stylish output: auto, always or never")
	flags.BoolVar(&opts.fix, "fix", false, "Apply fixes to the files")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Compute fixes without writing them; implies --format diff")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "Confirm each file before writing fixes")
	flags.BoolVar(&opts.noCache, "no-cache", false, "Bypass the result cache")
	flags.IntVarP(&opts.jobs, "jobs", "j", 0, "Files linted concurrently; overrides the config")
	return cmd
}

func (a *app) runLint(ctx context.Context, out io.Writer, paths []string, opts lintOptions) error {
	formatter, err := newFormatter(opts.format, opts.color)
	if err != nil {
		return err
	}
	cfg, err := a.loadConfig(ctx)
	if err != nil {
		return err
	}
	cfg = withJobs(cfg, opts.jobs)

	r, closeRunner, err := a.newRunner(cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer closeRunner()

	if len(paths) == 0 {
		paths = []string{"."}
	}
	files, err := r.Expand(paths)
	if err != nil {
		return err
	}
	res, err := r.LintFiles(ctx, files)
	if err != nil {
		return err
	}

	if (opts.fix || opts.interactive) && !opts.dryRun && res.FixableCount() > 0 {
		fixOpts := runner.FixOptions{}
		if opts.interactive {
			fixOpts.Confirm = a.confirmFix
		}
		fixed, err := r.Fix(ctx, res, fixOpts)
		if err != nil {
			return err
		}
		written := 0
		for _, f := range fixed {
			if f.Written {
				written++
			}
		}
		if written > 0 {
			a.logger.Info("fixes written", slog.Int("files", written))
			if res, err = r.LintFiles(ctx, files); err != nil {
				return err
			}
		}
	}

	if err := formatter.Format(out, res); err != nil {
		return err
	}
	switch {
	case res.ErrorCount() > 0:
		return &exitStatus{code: exitError}
	case res.FailureCount() > 0:
		return errFailuresReported
	}
	return nil
}

// confirmFix shows the pending diff of one file and asks whether to
// write it.
func (a *app) confirmFix(e runner.FileEdit, _ string) bool {
	if fd := report.FileDiff(e.Path, e.Source, e.Replacements); fd != nil {
		if patch, err := diff.PrintFileDiff(fd); err == nil {
			fmt.Fprint(a.stderr, string(patch))
		}
	}

	apply := true
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Apply %d fix(es) to %s?", e.Failures, e.Path)).
		Affirmative("Apply").
		Negative("Skip").
		Value(&apply).
		Run()
	if err != nil {
		a.logger.Warn("fix prompt aborted", slog.String("file", e.Path), slog.String("error", err.Error()))
		return false
	}
	return apply
}

func newFormatter(format, color string) (report.Formatter, error) {
	var opts []report.Option
	switch color {
	case "always":
		opts = append(opts, report.WithColor(true))
	case "never":
		opts = append(opts, report.WithColor(false))
	case "auto", "":
	default:
		return nil, &exitStatus{code: exitError, err: fmt.Errorf("--color must be auto, always or never, got %q", color)}
	}
	return report.New(format, opts...)
}

// withJobs returns cfg with Jobs replaced when jobs is positive.
func withJobs(cfg *config.Config, jobs int) *config.Config {
	if jobs <= 0 {
		return cfg
	}
	c := *cfg
	c.Jobs = jobs
	return &c
}
