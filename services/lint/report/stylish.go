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
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/AleutianAI/nglint/services/lint/runner"
)

// Stylish renders failures grouped by file with 1-based positions.
type Stylish struct {
	color *bool
}

type stylishTheme struct {
	file, pos, rule, errText, summaryBad, summaryOK lipgloss.Style
}

func newTheme(w io.Writer, color bool) stylishTheme {
	r := lipgloss.NewRenderer(w)
	if !color {
		plain := r.NewStyle()
		return stylishTheme{plain, plain, plain, plain, plain, plain}
	}
	r.SetColorProfile(termenv.ANSI256)
	return stylishTheme{
		file:       r.NewStyle().Underline(true).Bold(true),
		pos:        r.NewStyle().Foreground(lipgloss.Color("240")),
		rule:       r.NewStyle().Foreground(lipgloss.Color("6")),
		errText:    r.NewStyle().Foreground(lipgloss.Color("1")),
		summaryBad: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		summaryOK:  r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
	}
}

func (s *Stylish) Format(w io.Writer, res *runner.Result) error {
	color := isTerminal(w)
	if s.color != nil {
		color = *s.color
	}
	th := newTheme(w, color)

	var b strings.Builder
	for _, f := range res.Files {
		if len(f.Failures) == 0 && f.Err == nil {
			continue
		}
		b.WriteString(th.file.Render(f.Path))
		b.WriteString("\n")
		if f.Err != nil {
			fmt.Fprintf(&b, "  %s\n", th.errText.Render("error: "+f.Err.Error()))
		}
		for _, fl := range f.Failures {
			pos := fmt.Sprintf("%d:%d", fl.Start.Line+1, fl.Start.Character+1)
			fmt.Fprintf(&b, "  %s  %s  %s\n", th.pos.Render(fmt.Sprintf("%-7s", pos)), fl.Message, th.rule.Render(fl.RuleName))
		}
		b.WriteString("\n")
	}

	failures, errs := res.FailureCount(), res.ErrorCount()
	switch {
	case failures == 0 && errs == 0:
		b.WriteString(th.summaryOK.Render(fmt.Sprintf("✓ %d files, no problems", len(res.Files))))
	default:
		summary := fmt.Sprintf("✖ %d %s in %d files", failures, plural(failures, "problem"), len(res.Files))
		if errs > 0 {
			summary += fmt.Sprintf(", %d %s", errs, plural(errs, "error"))
		}
		if fixable := res.FixableCount(); fixable > 0 {
			summary += fmt.Sprintf(" (%d fixable with --fix)", fixable)
		}
		b.WriteString(th.summaryBad.Render(summary))
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
