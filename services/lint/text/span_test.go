// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineIndex_Position(t *testing.T) {
	li := NewLineIndex("ab\ncd\n\nef")

	tests := []struct {
		offset int
		want   Position
	}{
		{0, Position{0, 0}},
		{2, Position{0, 2}},
		{3, Position{1, 0}},
		{4, Position{1, 1}},
		{6, Position{2, 0}},
		{7, Position{3, 0}},
		{9, Position{3, 2}},
		{100, Position{3, 2}},
		{-4, Position{0, 0}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, li.Position(tt.offset), "offset %d", tt.offset)
	}
	assert.Equal(t, 4, li.Lines())
}

func TestLineIndex_Offset(t *testing.T) {
	li := NewLineIndex("ab\ncd\nef")
	assert.Equal(t, 4, li.Offset(Position{Line: 1, Character: 1}))
	assert.Equal(t, -1, li.Offset(Position{Line: 5}))
	assert.Equal(t, -1, li.Offset(Position{Line: 0, Character: -1}))
	for off := 0; off <= 8; off++ {
		assert.Equal(t, off, li.Offset(li.Position(off)))
	}
}

func TestSpan(t *testing.T) {
	s := NewSpan(2, 5)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, Span{12, 15}, s.Shift(10))
	assert.True(t, s.Contains(2))
	assert.False(t, s.Contains(5))
	assert.Equal(t, Span{1, 5}, s.Cover(Span{1, 3}))
	assert.Equal(t, "cde", s.Slice("abcdefg"))
	assert.Equal(t, "", Span{4, 2}.Slice("abcdef"))
	assert.Equal(t, "ef", Span{4, 10}.Slice("abcdef"))
}
