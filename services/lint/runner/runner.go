// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runner lints sets of files: it expands paths, runs the rule
// passes on a bounded worker pool, consults the result cache and applies
// fixes.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/nglint/services/lint/ast"
	"github.com/AleutianAI/nglint/services/lint/cache"
	"github.com/AleutianAI/nglint/services/lint/config"
	"github.com/AleutianAI/nglint/services/lint/failure"
	"github.com/AleutianAI/nglint/services/lint/rules"
	"github.com/AleutianAI/nglint/services/lint/styles"
	"github.com/AleutianAI/nglint/services/lint/walker"
)

// Version is part of every cache key.
const Version = "0.4.0"

// FileResult is the outcome of linting one file.
type FileResult struct {
	Path     string
	Source   string
	Failures []failure.Failure
	// Err is set when the file could not be read or parsed, or a rule
	// panicked. Failures of the remaining rules are still reported.
	Err    error
	Cached bool
	// Resources maps the external templates and stylesheets loaded by a
	// fresh lint to their content. Empty for cached results.
	Resources map[string]string
}

// Fixable counts failures carrying a fix.
func (f FileResult) Fixable() int {
	n := 0
	for _, fl := range f.Failures {
		if fl.HasFix() {
			n++
		}
	}
	return n
}

// Result is the outcome of one lint run.
type Result struct {
	RunID    string
	Files    []FileResult
	Duration time.Duration
}

// FailureCount returns the number of failures over all files.
func (r *Result) FailureCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Failures)
	}
	return n
}

// ErrorCount returns the number of files with an error.
func (r *Result) ErrorCount() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// FixableCount returns the number of failures carrying a fix.
func (r *Result) FixableCount() int {
	n := 0
	for _, f := range r.Files {
		n += f.Fixable()
	}
	return n
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithCache enables the result cache. The runner does not close it.
func WithCache(store *cache.Store) Option {
	return func(r *Runner) { r.cache = store }
}

// WithRegistry replaces the builtin rule registry.
func WithRegistry(reg *rules.Registry) Option {
	return func(r *Runner) { r.registry = reg }
}

// WithTransformer replaces the configured style transformer.
func WithTransformer(t styles.Transformer) Option {
	return func(r *Runner) { r.transformer = t }
}

// Runner lints files with one configuration.
//
// Thread Safety: Safe for concurrent use. Each lint uses its own walker.
type Runner struct {
	cfg         *config.Config
	registry    *rules.Registry
	passes      []walker.Pass
	parser      *ast.TypeScriptParser
	cache       *cache.Store
	transformer styles.Transformer
	closers     []io.Closer
	logger      *slog.Logger
	fingerprint string
}

// New creates a runner for cfg.
//
// Outputs:
//   - *Runner: The runner. Close it to stop a Sass process.
//   - error: Rule selection errors from the registry.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	r := &Runner{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = rules.Default()
	}
	passes, err := r.registry.Passes(cfg.Selection(), r.logger)
	if err != nil {
		return nil, fmt.Errorf("select rules: %w", err)
	}
	r.passes = passes
	r.parser = ast.NewTypeScriptParser(ast.WithMaxFileSize(cfg.MaxFileSize), ast.WithLogger(r.logger))
	if r.transformer == nil && cfg.Style.Transform == config.TransformSass {
		sass := styles.NewSassTransformer(
			styles.WithSassBinary(cfg.Style.SassBinary),
			styles.WithSassLogger(r.logger))
		r.transformer = sass
		r.closers = append(r.closers, sass)
	}
	r.fingerprint = cfg.Fingerprint()
	return r, nil
}

// Close releases the style transformer.
func (r *Runner) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Registry returns the rule registry.
func (r *Runner) Registry() *rules.Registry {
	return r.registry
}

// Config returns the configuration.
func (r *Runner) Config() *config.Config {
	return r.cfg
}

func (r *Runner) newWalker() *walker.Walker {
	return walker.New(walker.Config{
		Transformer:   r.transformer,
		Resolver:      walker.FileResolver{MaxSize: r.cfg.MaxFileSize},
		Directives:    r.cfg.AllDirectives(),
		Interpolation: r.cfg.InterpolationConfig(),
		Logger:        r.logger,
	})
}

// LintFiles lints paths on a worker pool bounded by the configured jobs.
//
// Description:
//
//	Per-file problems are reported in FileResult.Err and do not stop the
//	run. Results keep the order of paths.
//
// Outputs:
//   - *Result: One FileResult per path.
//   - error: Non-nil only when ctx is done.
func (r *Runner) LintFiles(ctx context.Context, paths []string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "runner.LintFiles")
	defer span.End()

	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Files: make([]FileResult, len(paths))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers())
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res.Files[i] = r.LintFile(gctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Duration = time.Since(start)
	r.logger.Debug("lint run finished",
		slog.String("run_id", res.RunID),
		slog.Int("files", len(paths)),
		slog.Int("failures", res.FailureCount()),
		slog.Duration("duration", res.Duration))
	return res, nil
}

// LintFile reads and lints one file.
func (r *Runner) LintFile(ctx context.Context, path string) FileResult {
	info, err := os.Stat(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	if r.cfg.MaxFileSize > 0 && info.Size() > r.cfg.MaxFileSize {
		return FileResult{Path: path, Err: fmt.Errorf("%w: %s is %d bytes", ast.ErrFileTooLarge, path, info.Size())}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	return r.Lint(ctx, path, content)
}

// Lint lints content as the file at path with the configured rules,
// consulting the cache when one is set.
func (r *Runner) Lint(ctx context.Context, path string, content []byte) FileResult {
	ctx, span := startFileSpan(ctx, path)
	res := FileResult{Path: path, Source: string(content)}
	defer func() { endFileSpan(span, &res) }()

	var key string
	if r.cache != nil {
		key = cache.Key(path, content, r.fingerprint, Version)
		fs, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			r.logger.Warn("cache lookup failed", slog.String("file", path), slog.String("error", err.Error()))
		}
		if ok {
			res.Failures, res.Cached = fs, true
			return res
		}
	}

	report, err := r.lint(ctx, path, content, r.passes)
	res.Failures, res.Err, res.Resources = report.Failures, err, resourceMap(report)
	if r.cache == nil || res.Err != nil {
		return res
	}
	// A missing template or stylesheet may appear later without the
	// source changing.
	if report.Unresolved > 0 {
		r.logger.Debug("result not cached: unresolved resources",
			slog.String("file", path), slog.Int("unresolved", report.Unresolved))
		return res
	}
	deps := make([]cache.Dependency, 0, len(report.Resources))
	for _, rs := range report.Resources {
		deps = append(deps, cache.NewDependency(rs.Path, rs.Code))
	}
	if err := r.cache.Put(ctx, key, res.Failures, deps...); err != nil {
		r.logger.Warn("cache store failed", slog.String("file", path), slog.String("error", err.Error()))
	}
	return res
}

// LintWith lints content with an explicit rule selection, bypassing the
// cache.
func (r *Runner) LintWith(ctx context.Context, path string, content []byte, selection map[string]rules.Options) (FileResult, error) {
	passes, err := r.registry.Passes(selection, r.logger)
	if err != nil {
		return FileResult{}, err
	}
	ctx, span := startFileSpan(ctx, path)
	res := FileResult{Path: path, Source: string(content)}
	defer func() { endFileSpan(span, &res) }()
	report, err := r.lint(ctx, path, content, passes)
	res.Failures, res.Err, res.Resources = report.Failures, err, resourceMap(report)
	return res, nil
}

func resourceMap(report *walker.Report) map[string]string {
	if len(report.Resources) == 0 {
		return nil
	}
	m := make(map[string]string, len(report.Resources))
	for _, rs := range report.Resources {
		m[rs.Path] = rs.Code
	}
	return m
}

// lint never returns a nil report.
func (r *Runner) lint(ctx context.Context, path string, content []byte, passes []walker.Pass) (*walker.Report, error) {
	start := time.Now()
	defer func() { fileDuration.Observe(time.Since(start).Seconds()) }()

	file, err := r.parser.Parse(ctx, content, path)
	if err != nil {
		return &walker.Report{}, fmt.Errorf("parse %s: %w", path, err)
	}
	report, err := r.newWalker().Walk(ctx, file, passes...)
	if err != nil {
		return &walker.Report{}, err
	}
	return report, errors.Join(report.Errors...)
}
