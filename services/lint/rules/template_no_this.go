// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"github.com/AleutianAI/nglint/services/lint/failure"
	"github.com/AleutianAI/nglint/services/lint/template"
	"github.com/AleutianAI/nglint/services/lint/text"
	"github.com/AleutianAI/nglint/services/lint/walker"
)

const templateNoThisMessage = "Avoid using 'this' in templates"

// TemplateNoThis reports `this.`, `this?.` and `this!.` receivers in
// bindings and interpolations. Static text is not code and is never
// scanned. The fix deletes the prefix.
type TemplateNoThis struct{}

func (TemplateNoThis) Metadata() Metadata {
	return Metadata{
		Name:               "template-no-this",
		Category:           CategoryMaintainability,
		Description:        "Disallows the explicit 'this' receiver in templates.",
		Rationale:          "Template expressions are evaluated against the component; an explicit 'this' is noise.",
		OptionsDescription: "Not configurable.",
		HasFix:             true,
		TypeScriptOnly:     true,
	}
}

func (TemplateNoThis) Hooks(Options) (*walker.Hooks, error) {
	return walker.NewHooks().OnTemplate(func(tc *walker.TemplateContext) *template.Visitor {
		// Both halves of `[(x)]` share the attribute span.
		linted := make(map[text.Span]bool)
		scan := func(span text.Span) {
			if linted[span] || span.End > len(tc.Fragment.Code) {
				return
			}
			linted[span] = true
			for _, m := range thisPrefixes(tc.Fragment.Code[span.Start:span.End]) {
				at := text.Span{Start: span.Start + m.Start, End: span.Start + m.End}
				tc.AddFailure(at, templateNoThisMessage, failure.Delete(at.Start, at.Len()))
			}
		}
		check := func(_ *template.Walk, n template.Node, next template.Next) {
			scan(n.Span())
			next()
		}
		// Only the interpolations of a text node are code.
		checkText := func(_ *template.Walk, n template.Node, next template.Next) {
			if bt, ok := n.(*template.BoundText); ok && bt.Value != nil {
				for _, e := range bt.Value.Expressions {
					scan(e.Span())
				}
			}
			next()
		}
		return template.NewVisitor().
			On(template.KindBoundText, checkText).
			On(template.KindBoundProperty, check).
			On(template.KindDirectiveProperty, check).
			On(template.KindBoundEvent, check)
	}), nil
}

// thisPrefixes finds `this` followed by optional whitespace, an optional
// `?` or `!`, and a dot. Occurrences inside a longer identifier or after
// a member access dot are skipped.
func thisPrefixes(s string) []text.Span {
	var out []text.Span
	for i := 0; i+4 <= len(s); i++ {
		if s[i:i+4] != "this" {
			continue
		}
		if i > 0 && isIdentByte(s[i-1]) {
			continue
		}
		if afterDot(s, i) {
			continue
		}
		j := i + 4
		for j < len(s) && isSpaceByte(s[j]) {
			j++
		}
		if j < len(s) && (s[j] == '?' || s[j] == '!') {
			j++
		}
		if j < len(s) && s[j] == '.' {
			out = append(out, text.Span{Start: i, End: j + 1})
			i = j
		}
	}
	return out
}

func afterDot(s string, i int) bool {
	for k := i - 1; k >= 0; k-- {
		if isSpaceByte(s[k]) {
			continue
		}
		return s[k] == '.'
	}
	return false
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
