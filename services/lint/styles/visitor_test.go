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
	"strings"
	"testing"

	"github.com/bep/godartsass/v2"
	"github.com/go-sourcemap/sourcemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/nglint/services/lint/text"
)

func TestVisitor_RuleUsedAggregatesSelectors(t *testing.T) {
	sheet := parseSheet(t, ".used, .dead { a: b; }\n.dead2 { a: b; }\n")

	var unused []string
	v := NewVisitor().
		OnSelector(func(w *Walk, s *Selector, next SelectorNext) bool {
			if strings.HasPrefix(s.Text, ".dead") {
				return false
			}
			return next()
		}).
		OnRule(func(w *Walk, r *Rule, next Next) {
			next()
			if !w.RuleUsed(r) {
				unused = append(unused, r.Selectors[0].Text)
			}
		})
	w := v.Walk(sheet)

	assert.Equal(t, []string{".dead2"}, unused)
	assert.True(t, w.Used(sheet.Rules[0].Selectors[0]))
	assert.False(t, w.Used(sheet.Rules[0].Selectors[1]))
}

func TestVisitor_RuleHandlerCanSkip(t *testing.T) {
	sheet := parseSheet(t, ".a { x: y; }")
	visited := 0
	v := NewVisitor().
		OnRule(func(w *Walk, r *Rule, next Next) {}).
		OnSelector(func(w *Walk, s *Selector, next SelectorNext) bool {
			visited++
			return false
		})
	w := v.Walk(sheet)
	assert.Zero(t, visited)
	assert.True(t, w.RuleUsed(sheet.Rules[0]))
}

func TestVisitor_MergeOrder(t *testing.T) {
	sheet := parseSheet(t, ".a { x: y; }")
	var calls []string
	a := NewVisitor().OnSelector(func(w *Walk, s *Selector, next SelectorNext) bool {
		calls = append(calls, "a")
		return next()
	})
	b := NewVisitor().OnSelector(func(w *Walk, s *Selector, next SelectorNext) bool {
		calls = append(calls, "b")
		return next()
	})
	assert.True(t, NewVisitor().Empty())
	NewVisitor().Merge(a, nil, b).Walk(sheet)
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestIdentityTransform(t *testing.T) {
	out, err := Identity{}.Transform(context.Background(), ".a{}", "x.css")
	require.NoError(t, err)
	assert.Equal(t, ".a{}", out.Code)
	assert.Nil(t, out.Map)
	assert.Equal(t, 3, out.MapOffset(3))
}

func TestTransformed_MapOffset(t *testing.T) {
	// Generated line 1 column 0 maps to source line 2 column 2.
	raw := `{"version":3,"sources":["a.scss"],"names":[],"mappings":"AACE"}`
	m, err := sourcemap.Parse("a.scss", []byte(raw))
	require.NoError(t, err)

	out := &Transformed{Code: ".a{}", Source: "// c\n  .a{}", Map: m}
	assert.Equal(t, 7, out.MapOffset(0))
	assert.Equal(t, text.NewSpan(7, 7), out.MapSpan(text.NewSpan(0, 0)))
}

func TestSassSyntax(t *testing.T) {
	assert.Equal(t, godartsass.SourceSyntaxSASS, sassSyntax("a.SASS"))
	assert.Equal(t, godartsass.SourceSyntaxSCSS, sassSyntax("a.scss"))
	assert.Equal(t, godartsass.SourceSyntaxSCSS, sassSyntax("inline"))
	assert.Equal(t, godartsass.SourceSyntaxCSS, sassSyntax("a.css"))
}
