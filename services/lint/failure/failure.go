// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package failure defines lint findings and the textual fixes attached to them.
package failure

import (
	"sort"

	"github.com/AleutianAI/nglint/services/lint/text"
)

// Replacement replaces the bytes [Start, End) of a file with Text.
type Replacement struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Delete returns a replacement removing length bytes at start.
// A negative start is clamped to 0 and the length shrunk accordingly.
func Delete(start, length int) Replacement {
	return Replace(start, length, "")
}

// Replace returns a replacement of length bytes at start with s.
func Replace(start, length int, s string) Replacement {
	end := start + length
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}
	return Replacement{Start: start, End: end, Text: s}
}

// Length returns the number of replaced bytes.
func (r Replacement) Length() int {
	return r.End - r.Start
}

// Failure is one rule violation.
//
// Span holds absolute byte offsets in FileName; Start and End are the
// matching zero-based positions.
type Failure struct {
	RuleName string        `json:"ruleName"`
	FileName string        `json:"name"`
	Span     text.Span     `json:"span"`
	Start    text.Position `json:"startPosition"`
	End      text.Position `json:"endPosition"`
	Message  string        `json:"failure"`
	Fix      []Replacement `json:"fix,omitempty"`
}

// New builds a Failure and resolves its positions with li.
func New(rule, file string, span text.Span, li *text.LineIndex, message string, fix ...Replacement) Failure {
	if span.Start < 0 {
		span.Start = 0
	}
	if span.End < span.Start {
		span.End = span.Start
	}
	f := Failure{
		RuleName: rule,
		FileName: file,
		Span:     span,
		Message:  message,
	}
	if li != nil {
		f.Start = li.Position(span.Start)
		f.End = li.Position(span.End)
	}
	if len(fix) > 0 {
		f.Fix = append([]Replacement(nil), fix...)
	}
	return f
}

// HasFix reports whether the failure carries replacements.
func (f Failure) HasFix() bool {
	return len(f.Fix) > 0
}

// Sort orders failures by file, then start offset, then rule name.
func Sort(fs []Failure) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.FileName != b.FileName {
			return a.FileName < b.FileName
		}
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.Span.End != b.Span.End {
			return a.Span.End < b.Span.End
		}
		return a.RuleName < b.RuleName
	})
}
