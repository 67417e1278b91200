// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package failure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/nglint/services/lint/text"
)

func TestDelete_ClampsNegativeStart(t *testing.T) {
	r := Delete(-1, 5)
	assert.Equal(t, 0, r.Start)
	assert.Equal(t, 4, r.End)
	assert.Equal(t, "", r.Text)

	r = Delete(-10, 5)
	assert.Equal(t, Replacement{Start: 0, End: 0}, r)
}

func TestNew_ResolvesPositions(t *testing.T) {
	src := "line one\nline two"
	li := text.NewLineIndex(src)
	f := New("rule", "a.ts", text.NewSpan(9, 13), li, "msg", Delete(9, 5))

	assert.Equal(t, text.Position{Line: 1, Character: 0}, f.Start)
	assert.Equal(t, text.Position{Line: 1, Character: 4}, f.End)
	assert.True(t, f.HasFix())
	assert.Equal(t, "a.ts", f.FileName)
}

func TestApply(t *testing.T) {
	t.Run("non overlapping", func(t *testing.T) {
		out, skipped := Apply("abcdef", []Replacement{
			Replace(4, 1, "E"),
			Delete(0, 2),
		})
		assert.Equal(t, "cdEf", out)
		assert.Empty(t, skipped)
	})

	t.Run("overlap is skipped", func(t *testing.T) {
		out, skipped := Apply("abcdef", []Replacement{
			Delete(1, 3),
			Replace(2, 1, "X"),
		})
		assert.Equal(t, "aef", out)
		require.Len(t, skipped, 1)
		assert.Equal(t, 2, skipped[0].Start)
	})

	t.Run("out of range is clamped", func(t *testing.T) {
		out, _ := Apply("abc", []Replacement{{Start: 2, End: 99, Text: "Z"}})
		assert.Equal(t, "abZ", out)
	})
}

func TestApplyAll(t *testing.T) {
	fs := []Failure{
		{Fix: []Replacement{Delete(0, 5)}},
		{Fix: []Replacement{Delete(10, 5)}},
		{},
	}
	out, dropped := ApplyAll("this.a || this.b", fs)
	assert.Equal(t, "a || b", out)
	assert.Equal(t, 0, dropped)
}

func TestSort(t *testing.T) {
	fs := []Failure{
		{FileName: "b.ts", Span: text.NewSpan(1, 2)},
		{FileName: "a.ts", Span: text.NewSpan(5, 6), RuleName: "z"},
		{FileName: "a.ts", Span: text.NewSpan(5, 6), RuleName: "a"},
		{FileName: "a.ts", Span: text.NewSpan(0, 1)},
	}
	Sort(fs)
	assert.Equal(t, 0, fs[0].Span.Start)
	assert.Equal(t, "a", fs[1].RuleName)
	assert.Equal(t, "z", fs[2].RuleName)
	assert.Equal(t, "b.ts", fs[3].FileName)
}
