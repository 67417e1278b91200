// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/nglint/services/lint/ast"
	"github.com/AleutianAI/nglint/services/lint/failure"
	"github.com/AleutianAI/nglint/services/lint/walker"
)

func lint(t *testing.T, rule Rule, opts Options, src string) []failure.Failure {
	t.Helper()
	file, err := ast.NewTypeScriptParser().Parse(context.Background(), []byte(src), "app.component.ts")
	require.NoError(t, err)
	hooks, err := rule.Hooks(opts)
	require.NoError(t, err)
	report, err := walker.New(walker.Config{}).Walk(context.Background(), file, walker.Pass{Rule: rule.Metadata().Name, Hooks: hooks})
	require.NoError(t, err)
	require.Empty(t, report.Errors)
	return report.Failures
}

func slices(src string, fs []failure.Failure) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Span.Slice(src)
	}
	return out
}

func component(template string, extra ...string) string {
	return "@Component({\n" +
		"  selector: 'app-test',\n" +
		"  template: `" + template + "`,\n" +
		strings.Join(extra, "") +
		"})\n" +
		"export class TestComponent {}\n"
}

// =============================================================================
// Class Suffix Rules
// =============================================================================

func TestComponentClassSuffix(t *testing.T) {
	src := "@Component({ selector: 'app-foo', template: '' })\nexport class Foo {}\n"
	fs := lint(t, ComponentClassSuffix{}, nil, src)
	require.Len(t, fs, 1)
	assert.Equal(t, "Foo", fs[0].Span.Slice(src))
	assert.Equal(t, `The name of a component should be suffixed by "Component" (https://angular.io/guide/styleguide#style-02-03)`, fs[0].Message)

	src = "@Component({ selector: 'app-foo', template: '' })\nexport class FooView {}\n"
	assert.Empty(t, lint(t, ComponentClassSuffix{}, Options{true, "Page", "View"}, src))

	fs = lint(t, ComponentClassSuffix{}, Options{"Page", "View"}, strings.Replace(src, "FooView", "FooComponent", 1))
	require.Len(t, fs, 1)
	assert.Contains(t, fs[0].Message, `"Page" or "View"`)
}

func TestComponentClassSuffix_IgnoresOtherDecorators(t *testing.T) {
	src := "@Injectable()\nexport class Foo {}\n@Directive({ selector: '[x]' })\nexport class Bar {}\n"
	assert.Empty(t, lint(t, ComponentClassSuffix{}, nil, src))
}

func TestDirectiveClassSuffix(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		opts  Options
		fails bool
	}{
		{"default suffix", "@Directive({ selector: '[x]' })\nexport class HighlightDirective {}\n", nil, false},
		{"missing suffix", "@Directive({ selector: '[x]' })\nexport class Highlight {}\n", nil, true},
		{"validator allowed", "@Directive({ selector: '[x]' })\nexport class RequiredValidator implements Validator {}\n", nil, false},
		{"async validator allowed", "@Directive({ selector: '[x]' })\nexport class UniqueValidator implements OnInit, AsyncValidator {}\n", nil, false},
		{"validator needs interface", "@Directive({ selector: '[x]' })\nexport class RequiredValidator {}\n", nil, true},
		{"custom suffix", "@Directive({ selector: '[x]' })\nexport class HighlightDir {}\n", Options{"Dir"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := lint(t, DirectiveClassSuffix{}, tt.opts, tt.src)
			if tt.fails {
				require.Len(t, fs, 1)
				assert.Contains(t, fs[0].Message, "The name of a directive should be suffixed by")
			} else {
				assert.Empty(t, fs)
			}
		})
	}
}

// =============================================================================
// Binding Prefix Rules
// =============================================================================

const bindingSource = "@Component({ selector: 'app-b', template: '' })\n" +
	"export class BComponent {\n" +
	"  @Input() isEnabled: boolean;\n" +
	"  @Input() issue: string;\n" +
	"  @Input('canEdit') editable: boolean;\n" +
	"  @Input() is: boolean;\n" +
	"  @Output() onChange = new EventEmitter();\n" +
	"  @Output() onion = new EventEmitter();\n" +
	"  @Output() on = new EventEmitter();\n" +
	"  @Output() saved = new EventEmitter();\n" +
	"}\n"

func TestNoInputPrefix(t *testing.T) {
	fs := lint(t, NoInputPrefix{}, Options{"is", "can"}, bindingSource)
	require.Len(t, fs, 2)
	assert.Contains(t, fs[0].Span.Slice(bindingSource), "isEnabled")
	assert.Contains(t, fs[1].Span.Slice(bindingSource), "is: boolean")
	assert.Equal(t, `@Inputs should not be prefixed by "is" or "can"`, fs[0].Message)
}

func TestNoInputPrefix_RequiresOptions(t *testing.T) {
	_, err := NoInputPrefix{}.Hooks(nil)
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

func TestNoOutputPrefix(t *testing.T) {
	fs := lint(t, NoOutputPrefix{}, Options{"on"}, bindingSource)
	require.Len(t, fs, 2)
	assert.Contains(t, fs[0].Span.Slice(bindingSource), "onChange")
	assert.Contains(t, fs[1].Span.Slice(bindingSource), "on = new")
	assert.Equal(t, "@Outputs should not match the prefix pattern on (https://angular.io/guide/styleguide#style-05-16)", fs[0].Message)

	fs = lint(t, NoOutputPrefix{}, Options{"(on|sav)"}, bindingSource)
	assert.Len(t, fs, 2, "saved continues with a lowercase letter")
}

func TestNoOutputPrefix_InvalidPattern(t *testing.T) {
	_, err := NoOutputPrefix{}.Hooks(Options{"(on"})
	assert.True(t, errors.Is(err, ErrInvalidOptions))

	_, err = NoOutputPrefix{}.Hooks(Options{"  "})
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

func TestNoOutputOnPrefix(t *testing.T) {
	fs := lint(t, NoOutputOnPrefix{}, nil, bindingSource)
	require.Len(t, fs, 2)
	assert.Contains(t, fs[0].Span.Slice(bindingSource), "onChange")
	assert.Contains(t, fs[1].Span.Slice(bindingSource), "on = new")
	assert.Contains(t, fs[0].Message, "should not be prefixed with 'on'")
}

// =============================================================================
// Relative URL Prefix
// =============================================================================

func TestRelativeURLPrefix(t *testing.T) {
	src := "@Component({\n" +
		"  selector: 'app-u',\n" +
		"  templateUrl: 'u.component.html',\n" +
		"  styleUrls: ['./u.component.css', '../shared.css', './/odd.css', dynamicUrl]\n" +
		"})\n" +
		"export class UComponent {}\n"
	fs := lint(t, RelativeURLPrefix{}, nil, src)
	assert.Equal(t, []string{"'u.component.html'", "'../shared.css'", "'.//odd.css'"}, slices(src, fs))
	for _, f := range fs {
		assert.Equal(t, relativeURLMessage, f.Message)
	}

	ok := strings.Replace(src, "'u.component.html'", "'./u.component.html'", 1)
	ok = strings.Replace(ok, "'../shared.css', './/odd.css', ", "", 1)
	assert.Empty(t, lint(t, RelativeURLPrefix{}, nil, ok))
}

// =============================================================================
// Template Rules
// =============================================================================

func TestTemplateNoCallExpression(t *testing.T) {
	src := component(`<div [title]="a()" (click)="b()" [ngClass]="k()">{{ c() }} {{ $any(x) }} {{ obj.$any(y) }} {{ f(g()) }}</div>`)
	fs := lint(t, TemplateNoCallExpression{}, nil, src)
	assert.Equal(t, []string{"a()", "k()", "c()", "obj.$any(y)", "f(g())", "g()"}, slices(src, fs))
	assert.Equal(t, "Avoid calling expressions in templates", fs[0].Message)

	src = component(`{{ this.$any(x) }} {{ $any(y) }} {{ obj.$any(z) }}`)
	assert.Equal(t, []string{"obj.$any(z)"}, slices(src, lint(t, TemplateNoCallExpression{}, nil, src)))
}

func TestTemplateNoThis(t *testing.T) {
	src := component(`<span>{{ this.foo }}</span><input [(ngModel)]="this.name"><b>{{ a.this.b }} {{ this?.c }} {{ isthis.d }}</b>`)
	fs := lint(t, TemplateNoThis{}, nil, src)
	assert.Equal(t, []string{"this.", "this.", "this?."}, slices(src, fs))
	for _, f := range fs {
		assert.True(t, f.HasFix())
	}

	fixed, skipped := failure.ApplyAll(src, fs)
	assert.Zero(t, skipped)
	assert.Contains(t, fixed, "<span>{{ foo }}</span>")
	assert.Contains(t, fixed, `[(ngModel)]="name"`)
	assert.Contains(t, fixed, "{{ a.this.b }} {{ c }} {{ isthis.d }}")
	assert.Empty(t, lint(t, TemplateNoThis{}, nil, fixed))
}

func TestTemplateNoThis_IgnoresProse(t *testing.T) {
	src := component(`<p>Read this. Then go.</p><p title="keep this.">See this. {{ this.x }} and this.</p>`)
	fs := lint(t, TemplateNoThis{}, nil, src)
	require.Len(t, fs, 1)
	assert.Equal(t, "this.", fs[0].Span.Slice(src))
	assert.Equal(t, strings.Index(src, "this.x"), fs[0].Span.Start)
}

func TestThisPrefixes(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"this.a", []string{"this."}},
		{"this !.a", []string{"this !."}},
		{"x . this.a", nil},
		{"_this.a", nil},
		{"this", nil},
		{"f(this.a, this.b)", []string{"this.", "this."}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var got []string
			for _, s := range thisPrefixes(tt.in) {
				got = append(got, s.Slice(tt.in))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplatePreferPropertyBinding(t *testing.T) {
	src := component(`<img src="{{ url }}" alt="a {{ b }}" title="{{ x }}{{ y }}" [id]="z">`)
	fs := lint(t, TemplatePreferPropertyBinding{}, nil, src)
	require.Len(t, fs, 2)
	assert.Equal(t, []string{`src="{{ url }}"`, `alt="a {{ b }}"`}, slices(src, fs))
	assert.Equal(t, "Use property binding instead of interpolations", fs[0].Message)
	require.True(t, fs[0].HasFix())
	assert.False(t, fs[1].HasFix())

	fixed, _ := failure.ApplyAll(src, fs)
	assert.Contains(t, fixed, `<img [src]="url" alt="a {{ b }}"`)
}

// =============================================================================
// No Unused CSS
// =============================================================================

func TestNoUnusedCSS(t *testing.T) {
	src := component(`<div><h1 class="title">x</h1></div>`,
		"  styles: [`div h1 { color: red; } div h2 { color: blue; } :host { display: block; } h2::after, .title:hover { top: 0; }`]\n")
	fs := lint(t, NoUnusedCSS{}, nil, src)
	require.Len(t, fs, 1)
	assert.Equal(t, "div h2 { color: blue; }", fs[0].Span.Slice(src))
	assert.Equal(t, "Unused styles", fs[0].Message)

	fixed, _ := failure.ApplyAll(src, fs)
	assert.Contains(t, fixed, "div h1 { color: red; } :host")
	assert.Empty(t, lint(t, NoUnusedCSS{}, nil, fixed))
}

func TestNoUnusedCSS_Idempotent(t *testing.T) {
	src := component(`<section><p class="lead">x</p></section>`,
		"  styles: [`section p { color: red; } .missing, section .gone { top: 0; } ul li { margin: 0; }`]\n")
	first := lint(t, NoUnusedCSS{}, nil, src)
	require.Len(t, first, 2)
	for _, f := range first {
		assert.True(t, f.HasFix())
	}
	second := lint(t, NoUnusedCSS{}, nil, src)
	assert.Equal(t, first, second)
}

func TestNoUnusedCSS_SkipsWithoutEncapsulation(t *testing.T) {
	src := component(`<div></div>`,
		"  styles: ['.missing { color: red; }'],\n",
		"  encapsulation: ViewEncapsulation.None\n")
	assert.Empty(t, lint(t, NoUnusedCSS{}, nil, src))

	withEncapsulation := strings.Replace(src, "ViewEncapsulation.None", "ViewEncapsulation.Emulated", 1)
	assert.Len(t, lint(t, NoUnusedCSS{}, nil, withEncapsulation), 1)
}

func TestNoUnusedCSS_DynamicClassesCountAsUsed(t *testing.T) {
	src := component(`<div [ngClass]="cls" [class.bar]="on"></div>`,
		"  styles: ['.foo { color: red; } .bar { color: blue; } #x { top: 0 }']\n")
	fs := lint(t, NoUnusedCSS{}, nil, src)
	assert.Equal(t, []string{"#x { top: 0 }"}, slices(src, fs))
}
