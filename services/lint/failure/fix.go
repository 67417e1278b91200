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
	"sort"
	"strings"
)

// Apply applies replacements to src.
//
// Description:
//
//	Replacements are sorted by start offset and applied left to right.
//	A replacement that overlaps one already accepted is skipped and
//	returned so callers can apply it in a later pass. Replacements
//	outside src are clamped to its bounds.
//
// Inputs:
//   - src: Original text.
//   - repls: Replacements with offsets into src. Not modified.
//
// Outputs:
//   - string: Text with the accepted replacements applied.
//   - []Replacement: Skipped replacements, in sorted order.
//
// Thread Safety: Pure function; safe for concurrent use.
func Apply(src string, repls []Replacement) (string, []Replacement) {
	accepted, skipped := Select(src, repls)
	if len(accepted) == 0 {
		return src, skipped
	}
	var b strings.Builder
	b.Grow(len(src))
	pos := 0
	for _, r := range accepted {
		b.WriteString(src[pos:r.Start])
		b.WriteString(r.Text)
		pos = r.End
	}
	b.WriteString(src[pos:])
	return b.String(), skipped
}

// Select sorts repls by start offset and splits them into the
// non-overlapping replacements Apply would make, clamped to src, and
// the ones it would skip.
func Select(src string, repls []Replacement) (accepted, skipped []Replacement) {
	sorted := append([]Replacement(nil), repls...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	pos := 0
	for _, r := range sorted {
		start, end := clamp(r.Start, len(src)), clamp(r.End, len(src))
		if end < start {
			end = start
		}
		if start < pos {
			skipped = append(skipped, r)
			continue
		}
		accepted = append(accepted, Replacement{Start: start, End: end, Text: r.Text})
		pos = end
	}
	return accepted, skipped
}

// ApplyAll applies the fixes of every failure in fs in a single pass.
// It returns the fixed text and the number of replacements dropped
// because they overlapped an earlier one.
func ApplyAll(src string, fs []Failure) (string, int) {
	var repls []Replacement
	for _, f := range fs {
		repls = append(repls, f.Fix...)
	}
	out, skipped := Apply(src, repls)
	return out, len(skipped)
}

func clamp(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
