// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"io"
	"sort"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/AleutianAI/nglint/services/lint/failure"
	"github.com/AleutianAI/nglint/services/lint/runner"
)

// diffContext is the number of unchanged lines around each hunk.
const diffContext = 3

// Diff renders the fixes of every file as a unified diff.
type Diff struct{}

// Each failure's replacements are shown against the file it is reported
// in, so fixes inside external templates and stylesheets get their own
// file diff.
func (Diff) Format(w io.Writer, res *runner.Result) error {
	edits, err := runner.Edits(res)
	if err != nil {
		return err
	}
	var fds []*diff.FileDiff
	for _, e := range edits {
		if fd := FileDiff(e.Path, e.Source, e.Replacements); fd != nil {
			fds = append(fds, fd)
		}
	}
	if len(fds) == 0 {
		return nil
	}
	out, err := diff.PrintMultiFileDiff(fds)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// FileDiff builds the unified diff of applying repls to src, or nil when
// nothing changes. Overlapping replacements are dropped as in Apply.
func FileDiff(path, src string, repls []failure.Replacement) *diff.FileDiff {
	accepted, _ := failure.Select(src, repls)
	if len(accepted) == 0 {
		return nil
	}
	lines, starts := splitLines(src)
	if len(lines) == 0 {
		lines, starts = []string{""}, []int{0}
	}
	lineOf := func(off int) int {
		i := sort.Search(len(starts), func(i int) bool { return starts[i] > off }) - 1
		return max(0, min(i, len(lines)-1))
	}
	lineEnd := func(l int) int {
		if l+1 < len(starts) {
			return starts[l+1]
		}
		return len(src)
	}

	// Group replacements whose context windows touch.
	type group struct {
		first, last int
		repls       []failure.Replacement
	}
	var groups []*group
	for _, r := range accepted {
		first, last := lineOf(r.Start), lineOf(max(r.Start, r.End-1))
		if n := len(groups); n > 0 && first <= groups[n-1].last+2*diffContext+1 {
			g := groups[n-1]
			g.last = max(g.last, last)
			g.repls = append(g.repls, r)
			continue
		}
		groups = append(groups, &group{first: first, last: last, repls: []failure.Replacement{r}})
	}

	fd := &diff.FileDiff{OrigName: "a/" + path, NewName: "b/" + path}
	delta := 0
	for _, g := range groups {
		regionStart, regionEnd := starts[g.first], lineEnd(g.last)
		region := src[regionStart:regionEnd]
		shifted := make([]failure.Replacement, len(g.repls))
		for i, r := range g.repls {
			shifted[i] = failure.Replacement{Start: r.Start - regionStart, End: r.End - regionStart, Text: r.Text}
		}
		replaced, _ := failure.Apply(region, shifted)
		if replaced == region {
			continue
		}
		newLines, _ := splitLines(replaced)

		ctxStart := max(0, g.first-diffContext)
		ctxEnd := min(len(lines)-1, g.last+diffContext)

		var body strings.Builder
		for l := ctxStart; l < g.first; l++ {
			writeLine(&body, ' ', lines[l])
		}
		for l := g.first; l <= g.last; l++ {
			writeLine(&body, '-', lines[l])
		}
		for _, l := range newLines {
			writeLine(&body, '+', l)
		}
		for l := g.last + 1; l <= ctxEnd; l++ {
			writeLine(&body, ' ', lines[l])
		}

		origCount := ctxEnd - ctxStart + 1
		newCount := (g.first - ctxStart) + len(newLines) + (ctxEnd - g.last)
		fd.Hunks = append(fd.Hunks, &diff.Hunk{
			OrigStartLine: int32(ctxStart + 1),
			OrigLines:     int32(origCount),
			NewStartLine:  int32(ctxStart + 1 + delta),
			NewLines:      int32(newCount),
			Body:          []byte(body.String()),
		})
		delta += newCount - origCount
	}
	if len(fd.Hunks) == 0 {
		return nil
	}
	return fd
}

// splitLines splits s into lines that keep their newline, with the byte
// offset each starts at.
func splitLines(s string) ([]string, []int) {
	var lines []string
	var starts []int
	for pos := 0; pos < len(s); {
		end := strings.IndexByte(s[pos:], '\n')
		if end < 0 {
			end = len(s)
		} else {
			end += pos + 1
		}
		lines = append(lines, s[pos:end])
		starts = append(starts, pos)
		pos = end
	}
	return lines, starts
}

func writeLine(b *strings.Builder, prefix byte, line string) {
	b.WriteByte(prefix)
	b.WriteString(line)
	if !strings.HasSuffix(line, "\n") {
		b.WriteByte('\n')
	}
}
