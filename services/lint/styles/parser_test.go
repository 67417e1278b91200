// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package styles

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSheet(t *testing.T, src string) *Stylesheet {
	t.Helper()
	res := NewTreeSitterParser().Parse(context.Background(), src, "test.css")
	require.NoError(t, res.Err)
	require.True(t, res.OK())
	return res.Sheet
}

func selectorTexts(r *Rule) []string {
	var out []string
	for _, s := range r.Selectors {
		out = append(out, s.Text)
	}
	return out
}

func TestParse_RulesAndSpans(t *testing.T) {
	src := "div h1 { color: red; }\n.a, .b > p {\n  margin: 0;\n}\n"
	sheet := parseSheet(t, src)
	require.Len(t, sheet.Rules, 2)

	first := sheet.Rules[0]
	assert.Equal(t, []string{"div h1"}, selectorTexts(first))
	assert.Equal(t, "div h1 { color: red; }", first.Span.Slice(src))
	assert.Equal(t, "{ color: red; }", first.BlockSpan.Slice(src))

	second := sheet.Rules[1]
	assert.Equal(t, []string{".a", ".b > p"}, selectorTexts(second))
	for _, s := range second.Selectors {
		assert.Equal(t, s.Text, s.Span.Slice(src))
	}
}

func TestParse_AtRules(t *testing.T) {
	src := "@media (max-width: 600px) { .small { display: none; } }\n@keyframes spin { from { opacity: 0; } }\n"
	sheet := parseSheet(t, src)
	require.Len(t, sheet.Rules, 1)
	r := sheet.Rules[0]
	assert.Equal(t, []string{".small"}, selectorTexts(r))
	assert.Equal(t, []string{"@media (max-width: 600px)"}, r.AtRules)
}

func TestParse_DeepCombinators(t *testing.T) {
	src := ".a /deep/ .b { x: y; }\n>>> .c { x: y; }\n:host ::ng-deep .d { x: y; }\n"
	sheet := parseSheet(t, src)
	require.Len(t, sheet.Rules, 3)

	assert.Equal(t, []string{".a /deep/ .b"}, selectorTexts(sheet.Rules[0]))
	assert.Equal(t, []string{">>> .c"}, selectorTexts(sheet.Rules[1]))
	assert.Equal(t, ">>> .c { x: y; }", sheet.Rules[1].Span.Slice(src))

	parts := sheet.Rules[2].Selectors[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, PartPseudoClass, parts[0].Kind)
	assert.True(t, parts[1].IsDeep())
	assert.Equal(t, DeepNg, parts[1].Value)
	assert.Equal(t, PartClass, parts[2].Kind)
}

func TestParse_SyntaxError(t *testing.T) {
	res := NewTreeSitterParser().Parse(context.Background(), ".a { color: red; ", "bad.css")
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, ErrStyleParse))
	assert.False(t, res.OK())
}

func TestParse_Empty(t *testing.T) {
	sheet := parseSheet(t, "")
	assert.Empty(t, sheet.Rules)
}

func TestTokenizeSelector(t *testing.T) {
	type part struct {
		kind  PartKind
		value string
	}
	tests := []struct {
		sel  string
		want []part
	}{
		{"div.item#main", []part{{PartTag, "div"}, {PartClass, "item"}, {PartID, "main"}}},
		{"ul > li + li ~ a", []part{
			{PartTag, "ul"}, {PartCombinator, ">"}, {PartTag, "li"}, {PartCombinator, "+"},
			{PartTag, "li"}, {PartCombinator, "~"}, {PartTag, "a"},
		}},
		{"a[href^='http'] span", []part{
			{PartTag, "a"}, {PartAttribute, "href^='http'"}, {PartCombinator, " "}, {PartTag, "span"},
		}},
		{"p::first-line", []part{{PartTag, "p"}, {PartPseudoElement, "first-line"}}},
		{"p:before", []part{{PartTag, "p"}, {PartPseudoElement, "before"}}},
		{"button:hover", []part{{PartTag, "button"}, {PartPseudoClass, "hover"}}},
		{"*", []part{{PartUniversal, "*"}}},
		{"& .x", []part{{PartNesting, "&"}, {PartCombinator, " "}, {PartClass, "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			var got []part
			for _, p := range tokenizeSelector(tt.sel, 0) {
				got = append(got, part{p.Kind, p.Value})
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenizeSelector_PseudoArgs(t *testing.T) {
	parts := tokenizeSelector(":host-context(.dark, .x) h1", 10)
	require.Len(t, parts, 3)
	assert.Equal(t, "host-context", parts[0].Value)
	assert.Equal(t, ".dark, .x", parts[0].Arg)
	assert.Equal(t, 10, parts[0].Span.Start)
	assert.Equal(t, 34, parts[0].Span.End)
}

func TestSplitSelectors_NestedCommas(t *testing.T) {
	sels := SplitSelectors(" :is(a, b) , [data-x=\"1,2\"]", 5)
	require.Len(t, sels, 2)
	assert.Equal(t, ":is(a, b)", sels[0].Text)
	assert.Equal(t, 6, sels[0].Span.Start)
	assert.Equal(t, `[data-x="1,2"]`, sels[1].Text)
}
