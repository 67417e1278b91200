// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package selector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/nglint/services/lint/styles"
	"github.com/AleutianAI/nglint/services/lint/template"
)

const referenceTemplate = `<div class="foo" id="main">
  <h1>Hello</h1>
  <section [class.bar]="on"><p>text</p></section>
  <ng-container *ngIf="x"><span class="inner"></span></ng-container>
  <input type="text">
</div>`

func newMatcher(t *testing.T, tpl string) *Matcher {
	t.Helper()
	res := template.NewTreeSitterParser().Parse(context.Background(), tpl, template.ParseOptions{})
	require.NoError(t, res.Err)
	return NewMatcher(res.Nodes)
}

func sel(t *testing.T, s string) *styles.Selector {
	t.Helper()
	sels := styles.SplitSelectors(s, 0)
	require.Len(t, sels, 1)
	return sels[0]
}

func TestMatcher_ReferenceTemplate(t *testing.T) {
	m := newMatcher(t, referenceTemplate)
	tests := []struct {
		selector string
		used     bool
	}{
		{"div h1", true},
		{"div h2", false},
		{"div > h1", true},
		{"DIV H1", true},
		{"div > span", true},
		{"section > span", false},
		{".bar", true},
		{".bar p", true},
		{"section.bar", true},
		{".baz", false},
		{".foo.inner", false},
		{"#main", true},
		{"#other", false},
		{"input[type=text]", true},
		{"input[type=radio]", false},
		{"h1 + section", true},
		{"h1 ~ input", true},
		{"section + h1", false},
		{"div:first-child", true},
		{"p:empty", false},
		{"span:empty", true},
		{"h1:hover", true},
		{"h2:focus", false},
		{"h1::after", true},
		{"h2::before", false},
		{"h1:before", true},
		{"h2:first-letter", false},
		{":host", true},
		{":host(.active)", true},
		{":host-context(.dark)", true},
		{":host h1", true},
		{":host > h1", false},
		{":host > div", true},
		{":host(.x) h2", false},
		{":host-context(.dark) span", true},
		{".foo /deep/ .anything", true},
		{".foo >>> .anything", true},
		{".foo ::ng-deep .x", true},
		{"h2 ::ng-deep .x", false},
		{"::ng-deep .x", true},
		{"::selection", true},
		{"& .x", true},
		{"[[broken", true},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			assert.Equal(t, tt.used, m.IsUsed(sel(t, tt.selector)))
		})
	}
}

func TestMatcher_PseudoElementsNeverChangeVerdict(t *testing.T) {
	m := newMatcher(t, referenceTemplate)
	for _, base := range []string{"div h1", "div h2", ".bar p", "#other"} {
		want := m.IsUsed(sel(t, base))
		for _, suffix := range []string{"::after", "::before", "::first-line", ":first-letter", "::selection", "::part(x)"} {
			assert.Equal(t, want, m.IsUsed(sel(t, base+suffix)), base+suffix)
		}
	}
}

func TestMatcher_DynamicBindings(t *testing.T) {
	tests := []struct {
		name     string
		tpl      string
		selector string
		used     bool
	}{
		{"attr id binding skips ids", `<div [attr.id]="x"></div>`, "#foo", true},
		{"attr binding skips attributes", `<div [attr.data-x]="x"></div>`, "[data-y]", true},
		{"attr binding does not skip classes", `<div [attr.data-x]="x"></div>`, ".a", false},
		{"id property", `<div [id]="x"></div>`, "#x", true},
		{"interpolated id", `<div id="{{ x }}"></div>`, "#x", true},
		{"ngClass", `<div [ngClass]="x"></div>`, ".a", true},
		{"class property", `<div [class]="x"></div>`, ".a", true},
		{"className property", `<div [className]="x"></div>`, ".a", true},
		{"interpolated class", `<div class="a {{ b }}"></div>`, ".zzz", true},
		{"class binding is static", `<div [class.a]="x"></div>`, ".b", false},
		{"no dynamic ids", `<div id="a"></div>`, "#b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMatcher(t, tt.tpl)
			assert.Equal(t, tt.used, m.IsUsed(sel(t, tt.selector)))
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		selector string
		text     string
		always   bool
	}{
		{"div h1::after", "div h1", false},
		{"a:hover > b:nth-child(2)", "a > b:nth-child(2)", false},
		{":host > .x", HostTag + " > .x", false},
		{".a /deep/ .b", ".a", false},
		{".a > /deep/ .b", ".a", false},
		{":hover .x", "* .x", false},
		{":host", "", true},
		{"::ng-deep .x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			n := Normalize(sel(t, tt.selector))
			assert.Equal(t, tt.always, n.Always)
			assert.Equal(t, tt.text, n.Text)
		})
	}
}

func TestDocument_TransparentContainers(t *testing.T) {
	m := newMatcher(t, `<ng-template><p></p></ng-template><ng-container><b></b></ng-container>`)
	root := m.Document().Root
	var names []string
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		names = append(names, c.Data)
	}
	assert.Equal(t, []string{"p", "b"}, names)
	assert.True(t, m.IsUsed(sel(t, "p + b")))
}
