// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package walker drives rules over one source file: it extracts decorator
// metadata, loads and parses component templates and stylesheets, and runs
// every rule's hook chains and visitors.
package walker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/nglint/services/lint/ast"
	"github.com/AleutianAI/nglint/services/lint/expression"
	"github.com/AleutianAI/nglint/services/lint/failure"
	"github.com/AleutianAI/nglint/services/lint/metadata"
	"github.com/AleutianAI/nglint/services/lint/styles"
	"github.com/AleutianAI/nglint/services/lint/template"
	"github.com/AleutianAI/nglint/services/lint/text"
)

// ErrRulePanic wraps a panic recovered from a rule pass.
var ErrRulePanic = errors.New("rule panicked")

// Config holds the collaborators of a Walker. Zero fields get defaults.
type Config struct {
	TemplateParser template.Parser
	StyleParser    styles.Parser
	Transformer    styles.Transformer
	Resolver       Resolver

	// Directives are known in every template in addition to those
	// declared in the file being walked. Nil selects
	// metadata.DefaultDirectives.
	Directives    []metadata.DirectiveDeclaration
	Interpolation expression.InterpolationConfig

	Logger *slog.Logger
}

// Pass is one rule's hooks.
type Pass struct {
	Rule  string
	Hooks *Hooks
}

// Report is the outcome of walking one file.
type Report struct {
	Failures []failure.Failure
	// Errors holds recovered rule panics. The other rules still ran.
	Errors []error
	// Resources holds the external templates and stylesheets that were
	// loaded, in load order.
	Resources []Resolved
	// Unresolved counts templateUrl and styleUrls entries that could not
	// be loaded.
	Unresolved int
}

// Walker applies rule passes to source files.
//
// Description:
//
//	Each Walk extracts the metadata of every class once, then runs the
//	passes one after another. Component templates and stylesheets are
//	loaded and parsed at most once per file, on first use by a pass. A
//	fragment that cannot be resolved or parsed is logged, counted and
//	skipped. A panic inside a pass is recovered and reported in
//	Report.Errors without affecting other passes.
//
// Thread Safety: Not safe for concurrent use. Use one Walker per
// goroutine; the reference id sequence is reset per file.
type Walker struct {
	cfg    Config
	logger *slog.Logger
	refs   metadata.RefIDs
}

// New creates a walker.
func New(cfg Config) *Walker {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.TemplateParser == nil {
		cfg.TemplateParser = template.NewTreeSitterParser(template.WithParserLogger(cfg.Logger))
	}
	if cfg.StyleParser == nil {
		cfg.StyleParser = styles.NewTreeSitterParser(styles.WithParserLogger(cfg.Logger))
	}
	if cfg.Transformer == nil {
		cfg.Transformer = styles.Identity{}
	}
	if cfg.Resolver == nil {
		cfg.Resolver = FileResolver{MaxSize: ast.DefaultMaxFileSize}
	}
	if cfg.Directives == nil {
		cfg.Directives = metadata.DefaultDirectives()
	}
	return &Walker{cfg: cfg, logger: cfg.Logger}
}

// Walk runs passes over file.
//
// Inputs:
//   - ctx: Context for cancellation and tracing.
//   - file: Parsed source file.
//   - passes: Rule hooks, run in order.
//
// Outputs:
//   - *Report: Failures sorted by position, plus recovered rule panics.
//   - error: Non-nil only when ctx is done.
func (w *Walker) Walk(ctx context.Context, file *ast.SourceFile, passes ...Pass) (*Report, error) {
	ctx, span := startWalkSpan(ctx, file.Path, len(passes))
	defer span.End()

	w.refs.Reset()
	st := w.newFileState(ctx, file)
	report := &Report{}

	for _, pass := range passes {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "canceled")
			return report, fmt.Errorf("walk %s canceled: %w", file.Path, err)
		}
		fs, err := w.runPass(ctx, st, pass)
		report.Failures = append(report.Failures, fs...)
		if err != nil {
			report.Errors = append(report.Errors, err)
		}
	}

	failure.Sort(report.Failures)
	report.Resources, report.Unresolved = st.resources, st.unresolved
	span.SetAttributes(
		attribute.Int("failures", len(report.Failures)),
		attribute.Int("rule_errors", len(report.Errors)),
	)
	return report, nil
}

func (w *Walker) runPass(ctx context.Context, st *fileState, pass Pass) (fs []failure.Failure, err error) {
	ctx, span := startRuleSpan(ctx, pass.Rule)
	defer span.End()
	start := time.Now()

	c := &Context{
		ctx:  ctx,
		File: st.file,
		Rule: pass.Rule,
		logger: w.logger.With(
			slog.String("rule", pass.Rule),
			slog.String("file", st.file.Path)),
	}

	panicked := false
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			c.logger.Error("rule panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			span.SetStatus(codes.Error, "panic")
			fs = nil
			err = fmt.Errorf("%w: %s on %s: %v", ErrRulePanic, pass.Rule, st.file.Path, r)
		}
		recordRule(ctx, pass.Rule, time.Since(start), len(fs), panicked)
	}()

	hooks := pass.Hooks
	if hooks == nil {
		return nil, nil
	}
	for _, ci := range st.classes {
		if ci.meta != nil {
			var last func()
			if ci.meta.Kind == metadata.KindComponent && hooks.needsFragments() {
				last = func() { w.visitComponent(c, st, ci, hooks) }
			}
			runClassChain(hooks.classes[ci.meta.Kind], c, ci.meta, last)
		}
		for _, b := range ci.bindings {
			chain := hooks.inputs
			if b.Kind == metadata.BindingOutput {
				chain = hooks.outputs
			}
			runBindingChain(chain, c, b, ci.meta)
		}
	}
	span.SetAttributes(attribute.Int("failures", len(c.failures)))
	return c.failures, nil
}

func (w *Walker) visitComponent(c *Context, st *fileState, ci *classInfo, hooks *Hooks) {
	tf := st.template(ci)

	if len(hooks.templates) > 0 && tf.ok {
		tc := &TemplateContext{
			Context:       c,
			Meta:          ci.meta,
			Fragment:      tf.fragment,
			Nodes:         tf.nodes,
			Interpolation: w.interpolation(),
		}
		v := template.NewVisitor()
		hasVisitor := false
		for _, hook := range hooks.templates {
			if hv := hook(tc); hv != nil {
				v.Merge(hv)
				hasVisitor = true
			}
		}
		if hasVisitor {
			v.Walk(tf.nodes, template.WithParents())
		}
	}

	if len(hooks.styles) == 0 {
		return
	}
	for _, sf := range st.styles(ci) {
		if !sf.ok {
			continue
		}
		sc := &StyleContext{
			Context:     c,
			Meta:        ci.meta,
			Fragment:    sf.fragment,
			Transformed: sf.transformed,
			Sheet:       sf.sheet,
			Template:    tf.nodes,
			TemplateOK:  tf.ok,
		}
		v := styles.NewVisitor()
		for _, hook := range hooks.styles {
			v.Merge(hook(sc))
		}
		if !v.Empty() {
			v.Walk(sf.sheet)
		}
	}
}

// =============================================================================
// Per-file State
// =============================================================================

type classInfo struct {
	cls      *ast.ClassDecl
	meta     *metadata.DecoratorMetadata
	bindings []metadata.PropertyBinding

	templateDone bool
	tmpl         templateFragment
	stylesDone   bool
	sheets       []styleFragment
}

type templateFragment struct {
	fragment *Fragment
	nodes    []template.Node
	ok       bool
}

type styleFragment struct {
	fragment    *Fragment
	transformed *styles.Transformed
	sheet       *styles.Stylesheet
	ok          bool
}

type fileState struct {
	w          *Walker
	ctx        context.Context
	file       *ast.SourceFile
	classes    []*classInfo
	directives []metadata.DirectiveDeclaration
	resources  []Resolved
	unresolved int
}

func (w *Walker) interpolation() expression.InterpolationConfig {
	if w.cfg.Interpolation.IsZero() {
		return expression.DefaultInterpolation
	}
	return w.cfg.Interpolation
}

func (w *Walker) newFileState(ctx context.Context, file *ast.SourceFile) *fileState {
	st := &fileState{w: w, ctx: ctx, file: file}
	st.directives = append(st.directives, w.cfg.Directives...)
	for _, cls := range file.Classes {
		ci := &classInfo{cls: cls, bindings: metadata.PropertyBindings(cls)}
		if meta, ok := metadata.Extract(cls); ok {
			ci.meta = meta
			if (meta.Kind == metadata.KindComponent || meta.Kind == metadata.KindDirective) && meta.Selector != "" {
				st.directives = append(st.directives, meta.Declaration())
			}
		}
		st.classes = append(st.classes, ci)
	}
	return st
}

func (st *fileState) template(ci *classInfo) templateFragment {
	if ci.templateDone {
		return ci.tmpl
	}
	ci.templateDone = true

	src := ci.meta.Template
	if src == nil {
		src = ci.meta.TemplateURL
	}
	if src == nil {
		return ci.tmpl
	}
	frag, ok := st.load(src, "template")
	if !ok {
		return ci.tmpl
	}
	res := st.w.cfg.TemplateParser.Parse(st.ctx, frag.Code, template.ParseOptions{
		Directives:    st.directives,
		Interpolation: st.w.cfg.Interpolation,
		SourceName:    frag.FileName,
	})
	if !res.OK() {
		st.skip("template", frag, res.Err)
		return ci.tmpl
	}
	ci.tmpl = templateFragment{fragment: frag, nodes: res.Nodes, ok: true}
	return ci.tmpl
}

func (st *fileState) styles(ci *classInfo) []styleFragment {
	if ci.stylesDone {
		return ci.sheets
	}
	ci.stylesDone = true

	var sources []*metadata.Source
	for i := range ci.meta.Styles {
		sources = append(sources, &ci.meta.Styles[i])
	}
	for i := range ci.meta.StyleURLs {
		sources = append(sources, &ci.meta.StyleURLs[i])
	}
	for i, src := range sources {
		frag, ok := st.load(src, "style")
		if !ok {
			ci.sheets = append(ci.sheets, styleFragment{})
			continue
		}
		url := src.URL
		if url == "" {
			url = st.file.Path + "#styles[" + strconv.Itoa(i) + "]"
		}
		transformed, err := st.w.cfg.Transformer.Transform(st.ctx, frag.Code, url)
		if err != nil {
			st.skip("transform", frag, err)
			ci.sheets = append(ci.sheets, styleFragment{})
			continue
		}
		res := st.w.cfg.StyleParser.Parse(st.ctx, transformed.Code, frag.FileName)
		if !res.OK() {
			st.skip("style", frag, res.Err)
			ci.sheets = append(ci.sheets, styleFragment{})
			continue
		}
		ci.sheets = append(ci.sheets, styleFragment{
			fragment:    frag,
			transformed: transformed,
			sheet:       res.Sheet,
			ok:          true,
		})
	}
	return ci.sheets
}

// load turns a metadata source into a fragment, resolving URLs.
func (st *fileState) load(src *metadata.Source, kind string) (*Fragment, bool) {
	ref := st.w.refs.Next()
	if src.Inline {
		return &Fragment{
			Ref:      ref,
			FileName: st.file.Path,
			Code:     src.Code,
			Base:     src.Base,
			Inline:   true,
			Source:   src,
			lines:    st.file.Lines(),
		}, true
	}
	res, err := st.w.cfg.Resolver.Resolve(st.ctx, st.file.Path, src.URL)
	if err != nil {
		st.unresolved++
		fragmentErrors.WithLabelValues("resolve").Inc()
		st.w.logger.Warn("skipping unresolved "+kind,
			slog.String("file", st.file.Path),
			slog.String("url", src.URL),
			slog.String("error", err.Error()))
		return nil, false
	}
	st.resources = append(st.resources, res)
	return &Fragment{
		Ref:      ref,
		FileName: res.Path,
		Code:     res.Code,
		Source:   src,
		lines:    text.NewLineIndex(res.Code),
	}, true
}

func (st *fileState) skip(kind string, frag *Fragment, err error) {
	fragmentErrors.WithLabelValues(kind).Inc()
	st.w.logger.Warn("skipping unparsable "+kind,
		slog.String("file", frag.FileName),
		slog.String("fragment", frag.Ref),
		slog.String("error", err.Error()))
}
