// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package text holds byte-offset spans and the offset to line/character
// mapping shared by every AST in the linter.
package text

import (
	"fmt"
	"sort"
)

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// NewSpan returns the span covering [start, end).
func NewSpan(start, end int) Span {
	return Span{Start: start, End: end}
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Shift moves the span by base bytes.
func (s Span) Shift(base int) Span {
	return Span{Start: s.Start + base, End: s.End + base}
}

// Contains reports whether offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Cover returns the smallest span containing both s and o.
func (s Span) Cover(o Span) Span {
	out := s
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

// Slice returns the text covered by the span, clamped to src.
func (s Span) Slice(src string) string {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > len(src) {
		end = len(src)
	}
	if start >= end {
		return ""
	}
	return src[start:end]
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Position is a zero-based line and character pair.
//
// Character counts bytes from the start of the line.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// LineIndex maps byte offsets to positions and back.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type LineIndex struct {
	starts []int
	size   int
}

// NewLineIndex builds the line table for src.
func NewLineIndex(src string) *LineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &LineIndex{starts: starts, size: len(src)}
}

// Position returns the line/character of offset. Offsets outside the
// source are clamped to its bounds.
func (li *LineIndex) Position(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > li.size {
		offset = li.size
	}
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	return Position{Line: line, Character: offset - li.starts[line]}
}

// Offset returns the byte offset of a position, or -1 when the line does
// not exist.
func (li *LineIndex) Offset(p Position) int {
	if p.Line < 0 || p.Line >= len(li.starts) || p.Character < 0 {
		return -1
	}
	off := li.starts[p.Line] + p.Character
	if off > li.size {
		off = li.size
	}
	return off
}

// Lines returns the number of lines in the source.
func (li *LineIndex) Lines() int {
	return len(li.starts)
}
