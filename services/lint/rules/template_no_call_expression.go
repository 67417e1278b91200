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
	"github.com/AleutianAI/nglint/services/lint/expression"
	"github.com/AleutianAI/nglint/services/lint/template"
	"github.com/AleutianAI/nglint/services/lint/walker"
)

// TemplateNoCallExpression reports calls in interpolations and property
// or directive bindings. Event handlers may call freely and `$any(x)` is
// exempt.
type TemplateNoCallExpression struct{}

func (TemplateNoCallExpression) Metadata() Metadata {
	return Metadata{
		Name:               "template-no-call-expression",
		Category:           CategoryMaintainability,
		Description:        "Disallows calling expressions in templates, except for output handlers.",
		Rationale:          "Calling expressions in templates causes them to run on every change detection cycle and may cause performance issues.",
		OptionsDescription: "Not configurable.",
		TypeScriptOnly:     true,
	}
}

func (TemplateNoCallExpression) Hooks(Options) (*walker.Hooks, error) {
	return walker.NewHooks().OnTemplate(func(tc *walker.TemplateContext) *template.Visitor {
		ev := expression.NewVisitor().OnCall(func(w *expression.Walk, n expression.Node, next expression.Next) {
			if w.Binding != expression.BindingEvent && !expression.IsExemptCall(n) {
				tc.AddFailure(n.Span(), "Avoid calling expressions in templates")
			}
			next()
		})
		return template.NewVisitor().Expressions(ev)
	}), nil
}
