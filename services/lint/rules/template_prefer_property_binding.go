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
	"regexp"

	"github.com/AleutianAI/nglint/services/lint/expression"
	"github.com/AleutianAI/nglint/services/lint/failure"
	"github.com/AleutianAI/nglint/services/lint/template"
	"github.com/AleutianAI/nglint/services/lint/walker"
)

// TemplatePreferPropertyBinding reports attributes whose value is a
// single interpolation. The fix rewrites `name="{{ expr }}"` to
// `[name]="expr"` when the attribute has exactly that shape.
type TemplatePreferPropertyBinding struct{}

func (TemplatePreferPropertyBinding) Metadata() Metadata {
	return Metadata{
		Name:               "template-prefer-property-binding",
		Category:           CategoryMaintainability,
		Description:        "Enforces the use of property binding instead of interpolations.",
		OptionsDescription: "Not configurable.",
		HasFix:             true,
		TypeScriptOnly:     true,
	}
}

func (TemplatePreferPropertyBinding) Hooks(Options) (*walker.Hooks, error) {
	return walker.NewHooks().OnTemplate(func(tc *walker.TemplateContext) *template.Visitor {
		assign := interpolationAssignment(tc.Interpolation)
		return template.NewVisitor().On(template.KindBoundProperty, func(_ *template.Walk, n template.Node, next template.Next) {
			prop := n.(*template.BoundProperty)
			interp, ok := prop.Value.(*expression.Interpolation)
			if ok && prop.Interpolated && len(interp.Expressions) == 1 {
				span := prop.Span()
				var fix []failure.Replacement
				if m := assign.FindStringSubmatch(tc.Fragment.Code[span.Start:span.End]); m != nil {
					fix = append(fix, failure.Replace(span.Start, span.Len(), "["+m[1]+`]="`+m[2]+`"`))
				}
				tc.AddFailure(span, "Use property binding instead of interpolations", fix...)
			}
			next()
		})
	}), nil
}

func interpolationAssignment(cfg expression.InterpolationConfig) *regexp.Regexp {
	if cfg.IsZero() {
		cfg = expression.DefaultInterpolation
	}
	return regexp.MustCompile(`^(.*)="` + regexp.QuoteMeta(cfg.Start) + `\s*(.*?)\s*` + regexp.QuoteMeta(cfg.End) + `"$`)
}
