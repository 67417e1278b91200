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
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-sourcemap/sourcemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/nglint/services/lint/ast"
	"github.com/AleutianAI/nglint/services/lint/expression"
	"github.com/AleutianAI/nglint/services/lint/metadata"
	"github.com/AleutianAI/nglint/services/lint/styles"
	"github.com/AleutianAI/nglint/services/lint/template"
	"github.com/AleutianAI/nglint/services/lint/text"
)

const componentSource = "import { Component, Input, Output } from '@angular/core';\n" +
	"@Component({\n" +
	"  selector: 'app-x',\n" +
	"  template: `<div>{{ foo() }}</div>`,\n" +
	"  styles: ['.dead { color: red; }']\n" +
	"})\n" +
	"export class XComponent {\n" +
	"  @Input() name: string;\n" +
	"  @Output('changed') change = new EventEmitter();\n" +
	"}\n"

func parseFile(t *testing.T, src, path string) *ast.SourceFile {
	t.Helper()
	f, err := ast.NewTypeScriptParser().Parse(context.Background(), []byte(src), path)
	require.NoError(t, err)
	return f
}

func callHooks() *Hooks {
	return NewHooks().OnTemplate(func(tc *TemplateContext) *template.Visitor {
		ev := expression.NewVisitor().OnCall(func(w *expression.Walk, n expression.Node, next expression.Next) {
			tc.AddFailure(n.Span(), "call")
			next()
		})
		return template.NewVisitor().Expressions(ev)
	})
}

func TestWalk_TemplateOffsetsAreAbsolute(t *testing.T) {
	file := parseFile(t, componentSource, "x.component.ts")
	report, err := New(Config{}).Walk(context.Background(), file, Pass{Rule: "calls", Hooks: callHooks()})
	require.NoError(t, err)
	require.Empty(t, report.Errors)
	require.Len(t, report.Failures, 1)

	f := report.Failures[0]
	assert.Equal(t, "calls", f.RuleName)
	assert.Equal(t, "x.component.ts", f.FileName)
	assert.Equal(t, "foo()", f.Span.Slice(componentSource))
	assert.Equal(t, 3, f.Start.Line)
	assert.Equal(t, strings.Index(strings.Split(componentSource, "\n")[3], "foo()"), f.Start.Character)
}

func TestWalk_StyleOffsetsAreAbsolute(t *testing.T) {
	file := parseFile(t, componentSource, "x.component.ts")
	hooks := NewHooks().OnStyles(func(sc *StyleContext) *styles.Visitor {
		assert.True(t, sc.TemplateOK)
		return styles.NewVisitor().OnRule(func(w *styles.Walk, r *styles.Rule, next styles.Next) {
			sc.AddFailure(r.Span, "rule")
			next()
		})
	})
	report, err := New(Config{}).Walk(context.Background(), file, Pass{Rule: "css", Hooks: hooks})
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, ".dead { color: red; }", report.Failures[0].Span.Slice(componentSource))
}

func TestWalk_BindingsAndClassChains(t *testing.T) {
	file := parseFile(t, componentSource, "x.component.ts")
	var seen []string
	hooks := NewHooks().
		OnComponent(func(c *Context, m *metadata.DecoratorMetadata, next Next) {
			seen = append(seen, "component:"+m.ClassName)
			next()
		}).
		OnInput(func(c *Context, b metadata.PropertyBinding, m *metadata.DecoratorMetadata, next Next) {
			seen = append(seen, "input:"+b.BindingName)
			next()
		}).
		OnOutput(func(c *Context, b metadata.PropertyBinding, m *metadata.DecoratorMetadata, next Next) {
			seen = append(seen, "output:"+b.Name+"->"+b.BindingName)
			next()
		})
	_, err := New(Config{}).Walk(context.Background(), file, Pass{Rule: "r", Hooks: hooks})
	require.NoError(t, err)
	assert.Equal(t, []string{"component:XComponent", "input:name", "output:change->changed"}, seen)
}

func TestWalk_ComponentHandlerCanSkipTemplate(t *testing.T) {
	file := parseFile(t, componentSource, "x.component.ts")
	hooks := NewHooks().
		OnComponent(func(c *Context, m *metadata.DecoratorMetadata, next Next) {}).
		Merge(callHooks())
	report, err := New(Config{}).Walk(context.Background(), file, Pass{Rule: "r", Hooks: hooks})
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
}

func TestWalk_RulePanicIsIsolated(t *testing.T) {
	file := parseFile(t, componentSource, "x.component.ts")
	boom := NewHooks().OnComponent(func(c *Context, m *metadata.DecoratorMetadata, next Next) {
		c.AddFailure(text.NewSpan(0, 1), "before panic")
		panic("boom")
	})
	report, err := New(Config{}).Walk(context.Background(), file,
		Pass{Rule: "boom", Hooks: boom},
		Pass{Rule: "calls", Hooks: callHooks()},
	)
	require.NoError(t, err)
	require.Len(t, report.Errors, 1)
	assert.True(t, errors.Is(report.Errors[0], ErrRulePanic))
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "calls", report.Failures[0].RuleName)
}

func TestWalk_ExternalTemplate(t *testing.T) {
	src := "@Component({ selector: 'a', templateUrl: './a.html' })\nclass A {}\n"
	file := parseFile(t, src, filepath.Join("app", "a.ts"))
	html := "<p>\n  {{ load() }}\n</p>"
	resolver := MapResolver{filepath.Join("app", "a.html"): html}

	report, err := New(Config{Resolver: resolver}).Walk(context.Background(), file,
		Pass{Rule: "calls", Hooks: callHooks()},
		Pass{Rule: "calls-again", Hooks: callHooks()})
	require.NoError(t, err)
	assert.Equal(t, []Resolved{{Path: filepath.Join("app", "a.html"), Code: html}}, report.Resources)
	assert.Zero(t, report.Unresolved)
	require.Len(t, report.Failures, 2)
	f := report.Failures[0]
	assert.Equal(t, filepath.Join("app", "a.html"), f.FileName)
	assert.Equal(t, "load()", f.Span.Slice(html))
	assert.Equal(t, text.Position{Line: 1, Character: 5}, f.Start)
}

func TestWalk_UnresolvedTemplateIsSkipped(t *testing.T) {
	src := "@Component({ selector: 'a', templateUrl: './missing.html' })\nclass A {}\n"
	file := parseFile(t, src, "a.ts")
	report, err := New(Config{Resolver: MapResolver{}}).Walk(context.Background(), file, Pass{Rule: "calls", Hooks: callHooks()})
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Empty(t, report.Errors)
	assert.Empty(t, report.Resources)
	assert.Equal(t, 1, report.Unresolved)
}

func TestWalk_InvalidTemplateIsSkipped(t *testing.T) {
	src := "@Component({ selector: 'a', template: '<div [x]=\"a +\">{{ b() }}</div>' })\nclass A {}\n"
	file := parseFile(t, src, "a.ts")
	report, err := New(Config{}).Walk(context.Background(), file, Pass{Rule: "calls", Hooks: callHooks()})
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
}

func TestWalk_FragmentRefsResetPerFile(t *testing.T) {
	file := parseFile(t, componentSource, "x.component.ts")
	var refs []string
	hooks := NewHooks().OnTemplate(func(tc *TemplateContext) *template.Visitor {
		refs = append(refs, tc.Fragment.Ref)
		return nil
	})
	w := New(Config{})
	for i := 0; i < 2; i++ {
		_, err := w.Walk(context.Background(), file, Pass{Rule: "r", Hooks: hooks})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"1-ref", "1-ref"}, refs)
}

func TestWalk_FileDirectivesClassifyBindings(t *testing.T) {
	src := "@Directive({ selector: '[appTip]' })\nclass Tip { @Input() appTip: string; }\n" +
		"@Component({ selector: 'a', template: '<b [appTip]=\"x()\"></b>' })\nclass A {}\n"
	file := parseFile(t, src, "a.ts")
	var kinds []template.Kind
	hooks := NewHooks().OnTemplate(func(tc *TemplateContext) *template.Visitor {
		return template.NewVisitor().On(template.KindDirectiveProperty, func(w *template.Walk, n template.Node, next template.Next) {
			kinds = append(kinds, n.Kind())
			next()
		})
	})
	_, err := New(Config{}).Walk(context.Background(), file, Pass{Rule: "r", Hooks: hooks})
	require.NoError(t, err)
	assert.Equal(t, []template.Kind{template.KindDirectiveProperty}, kinds)
}

type unmappedTransformer struct{}

func (unmappedTransformer) Transform(_ context.Context, code, url string) (*styles.Transformed, error) {
	m, err := sourcemap.Parse(url, []byte(`{"version":3,"sources":["x"],"names":[],"mappings":""}`))
	if err != nil {
		return nil, err
	}
	return &styles.Transformed{Code: code, Source: code, Map: m}, nil
}

func TestWalk_UnmappedStyleOffsetsClampToFragmentStart(t *testing.T) {
	file := parseFile(t, componentSource, "x.component.ts")
	hooks := NewHooks().OnStyles(func(sc *StyleContext) *styles.Visitor {
		return styles.NewVisitor().OnRule(func(w *styles.Walk, r *styles.Rule, next styles.Next) {
			sc.AddFailure(r.Span, "rule")
		})
	})
	report, err := New(Config{Transformer: unmappedTransformer{}}).Walk(context.Background(), file, Pass{Rule: "css", Hooks: hooks})
	require.NoError(t, err)
	require.Len(t, report.Failures, 1)
	base := strings.Index(componentSource, ".dead")
	assert.Equal(t, text.NewSpan(base, base), report.Failures[0].Span)
}

func TestWalk_CanceledContext(t *testing.T) {
	file := parseFile(t, componentSource, "x.component.ts")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Config{}).Walk(ctx, file, Pass{Rule: "calls", Hooks: callHooks()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
