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
	"log/slog"

	"github.com/AleutianAI/nglint/services/lint/ast"
	"github.com/AleutianAI/nglint/services/lint/expression"
	"github.com/AleutianAI/nglint/services/lint/failure"
	"github.com/AleutianAI/nglint/services/lint/metadata"
	"github.com/AleutianAI/nglint/services/lint/styles"
	"github.com/AleutianAI/nglint/services/lint/template"
	"github.com/AleutianAI/nglint/services/lint/text"
)

// Context is the state of one rule pass over one file.
type Context struct {
	ctx    context.Context
	File   *ast.SourceFile
	Rule   string
	logger *slog.Logger

	failures []failure.Failure
}

// Context returns the pass context.
func (c *Context) Context() context.Context {
	return c.ctx
}

// Logger returns the walker logger tagged with the rule and file.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// AddFailure records a failure at a span of the source file.
func (c *Context) AddFailure(span text.Span, message string, fix ...failure.Replacement) {
	c.failures = append(c.failures, failure.New(c.Rule, c.File.Path, span, c.File.Lines(), message, fix...))
}

// Failures returns the failures recorded so far.
func (c *Context) Failures() []failure.Failure {
	return c.failures
}

// Fragment is a template or stylesheet attached to a component, either
// inline in the source file or loaded from a URL.
type Fragment struct {
	// Ref identifies the fragment within one file walk.
	Ref string
	// FileName is the file failures inside the fragment are reported
	// against: the source file for inline fragments, the resolved path
	// otherwise.
	FileName string
	Code     string
	// Base is the offset of Code within FileName.
	Base   int
	Inline bool
	Source *metadata.Source

	lines *text.LineIndex
}

func (c *Context) addFragmentFailure(f *Fragment, span text.Span, message string, fix []failure.Replacement) {
	shifted := make([]failure.Replacement, len(fix))
	for i, r := range fix {
		shifted[i] = failure.Replacement{Start: r.Start + f.Base, End: r.End + f.Base, Text: r.Text}
	}
	c.failures = append(c.failures, failure.New(c.Rule, f.FileName, span.Shift(f.Base), f.lines, message, shifted...))
}

// TemplateContext is the state of one template visit.
type TemplateContext struct {
	*Context
	Meta     *metadata.DecoratorMetadata
	Fragment *Fragment
	Nodes    []template.Node
	// Interpolation holds the delimiters the template was parsed with.
	Interpolation expression.InterpolationConfig
}

// AddFailure records a failure at a span of the template text. Fix
// replacements are template-relative too.
func (tc *TemplateContext) AddFailure(span text.Span, message string, fix ...failure.Replacement) {
	tc.addFragmentFailure(tc.Fragment, span, message, fix)
}

// StyleContext is the state of one stylesheet visit.
type StyleContext struct {
	*Context
	Meta     *metadata.DecoratorMetadata
	Fragment *Fragment
	// Transformed holds the code Sheet was parsed from.
	Transformed *styles.Transformed
	Sheet       *styles.Stylesheet

	// Template is the parsed template of the component, nil when the
	// component has none or it failed to parse.
	Template []template.Node
	// TemplateOK reports whether Template is available.
	TemplateOK bool
}

// AddFailure records a failure at a span of the parsed stylesheet. Spans
// are mapped back through the transform source map when there is one.
func (sc *StyleContext) AddFailure(span text.Span, message string, fix ...failure.Replacement) {
	mapped := make([]failure.Replacement, len(fix))
	for i, r := range fix {
		s := sc.mapSpan(text.Span{Start: r.Start, End: r.End})
		mapped[i] = failure.Replacement{Start: s.Start, End: s.End, Text: r.Text}
	}
	sc.addFragmentFailure(sc.Fragment, sc.mapSpan(span), message, mapped)
}

func (sc *StyleContext) mapSpan(s text.Span) text.Span {
	if sc.Transformed == nil || sc.Transformed.Map == nil {
		return s
	}
	m := sc.Transformed.MapSpan(s)
	if m.Start < 0 || m.End < 0 {
		sc.logger.Warn("clamping unmapped style offset",
			slog.String("fragment", sc.Fragment.Ref),
			slog.Int("start", m.Start),
			slog.Int("end", m.End))
		m.Start = max(m.Start, 0)
		m.End = max(m.End, m.Start)
	}
	return m
}
