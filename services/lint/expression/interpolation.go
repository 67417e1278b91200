// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package expression

import (
	"strings"

	"github.com/AleutianAI/nglint/services/lint/text"
)

// InterpolationConfig holds the interpolation delimiters.
type InterpolationConfig struct {
	Start string
	End   string
}

// DefaultInterpolation is `{{ }}`.
var DefaultInterpolation = InterpolationConfig{Start: "{{", End: "}}"}

// IsZero reports whether no delimiters are set.
func (c InterpolationConfig) IsZero() bool {
	return c.Start == "" || c.End == ""
}

// Segment is one `{{ expr }}` occurrence. Span covers the delimiters,
// ExprSpan only the expression text. Both are absolute.
type Segment struct {
	Span     text.Span
	ExprSpan text.Span
	Source   string
}

// SplitInterpolation finds the interpolation segments of src.
//
// Description:
//
//	Returns the literal strings between segments (always one more than
//	the segments) and the segments themselves. A start delimiter without
//	a matching end delimiter is kept as literal text.
func SplitInterpolation(src string, base int, cfg InterpolationConfig) ([]string, []Segment) {
	if cfg.IsZero() {
		cfg = DefaultInterpolation
	}
	var strs []string
	var segs []Segment
	pos := 0
	literalStart := 0
	for pos < len(src) {
		open := strings.Index(src[pos:], cfg.Start)
		if open < 0 {
			break
		}
		open += pos
		exprStart := open + len(cfg.Start)
		closeAt := indexOutsideQuotes(src[exprStart:], cfg.End)
		if closeAt < 0 {
			break
		}
		exprEnd := exprStart + closeAt
		strs = append(strs, src[literalStart:open])
		segs = append(segs, Segment{
			Span:     text.NewSpan(base+open, base+exprEnd+len(cfg.End)),
			ExprSpan: text.NewSpan(base+exprStart, base+exprEnd),
			Source:   src[exprStart:exprEnd],
		})
		pos = exprEnd + len(cfg.End)
		literalStart = pos
	}
	strs = append(strs, src[literalStart:])
	return strs, segs
}

// indexOutsideQuotes is strings.Index ignoring matches inside string
// literals.
func indexOutsideQuotes(s, sub string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case strings.HasPrefix(s[i:], sub):
			return i
		}
	}
	return -1
}

// ParseInterpolation parses text with embedded interpolation segments.
//
// Outputs:
//   - *Interpolation: Parsed node, nil when src has no segment.
//   - error: The first segment error. Blank segments are errors.
func ParseInterpolation(src string, base int, cfg InterpolationConfig) (*Interpolation, error) {
	strs, segs := SplitInterpolation(src, base, cfg)
	if len(segs) == 0 {
		return nil, nil
	}
	exprs := make([]Node, 0, len(segs))
	for _, seg := range segs {
		if strings.TrimSpace(seg.Source) == "" {
			return nil, &ParseError{
				Message: "Blank expressions are not allowed in interpolated strings",
				Input:   src,
				Offset:  seg.Span.Start,
			}
		}
		n, err := ParseBinding(seg.Source, seg.ExprSpan.Start)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, n)
	}
	return &Interpolation{
		node:        node{text.NewSpan(base, base+len(src))},
		Strings:     strs,
		Expressions: exprs,
	}, nil
}
