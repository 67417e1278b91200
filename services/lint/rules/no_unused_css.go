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
	"github.com/AleutianAI/nglint/services/lint/selector"
	"github.com/AleutianAI/nglint/services/lint/styles"
	"github.com/AleutianAI/nglint/services/lint/walker"
)

// NoUnusedCSS reports style rules whose selectors match nothing in the
// component template. Components without view encapsulation or without a
// parsed template are skipped, as are nested rules.
type NoUnusedCSS struct{}

func (NoUnusedCSS) Metadata() Metadata {
	return Metadata{
		Name:               "no-unused-css",
		Category:           CategoryMaintainability,
		Description:        "Disallows having an unused CSS rule in the component's stylesheet.",
		OptionsDescription: "Not configurable.",
		HasFix:             true,
		TypeScriptOnly:     true,
	}
}

func (NoUnusedCSS) Hooks(Options) (*walker.Hooks, error) {
	return walker.NewHooks().OnStyles(func(sc *walker.StyleContext) *styles.Visitor {
		if !sc.TemplateOK || !sc.Meta.EncapsulationEnabled() {
			return nil
		}
		m := selector.NewMatcher(sc.Template, selector.WithLogger(sc.Logger()))
		return styles.NewVisitor().
			OnSelector(func(_ *styles.Walk, s *styles.Selector, next styles.SelectorNext) bool {
				return m.IsUsed(s) && next()
			}).
			OnRule(func(w *styles.Walk, r *styles.Rule, next styles.Next) {
				next()
				if r.Parent != nil || w.RuleUsed(r) {
					return
				}
				sc.AddFailure(r.Span, "Unused styles", failure.Delete(r.Span.Start-1, r.Span.Len()+1))
			})
	}), nil
}
