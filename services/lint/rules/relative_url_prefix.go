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

	"github.com/AleutianAI/nglint/services/lint/ast"
	"github.com/AleutianAI/nglint/services/lint/metadata"
	"github.com/AleutianAI/nglint/services/lint/walker"
)

var relativeURLPattern = regexp.MustCompile(`^\./[^./|]`)

const relativeURLMessage = "The ./ prefix is standard syntax for relative URLs. (https://angular.io/styleguide#style-05-04)"

// RelativeURLPrefix requires string literal templateUrl and styleUrls
// entries to start with `./`.
type RelativeURLPrefix struct{}

func (RelativeURLPrefix) Metadata() Metadata {
	return Metadata{
		Name:               "relative-url-prefix",
		Category:           CategoryMaintainability,
		Description:        "The ./ prefix is standard syntax for relative URLs; don't depend on Angular's current ability to do without that prefix.",
		Rationale:          "A component relative URL requires no change when you move the component files, as long as the files stay together.",
		OptionsDescription: "Not configurable.",
		TypeScriptOnly:     true,
	}
}

func (RelativeURLPrefix) Hooks(Options) (*walker.Hooks, error) {
	return walker.NewHooks().OnComponent(func(c *walker.Context, m *metadata.DecoratorMetadata, next walker.Next) {
		cfg := m.Decorator.Arg(0)
		checkRelativeURL(c, cfg.Prop("templateUrl"))
		if urls := cfg.Prop("styleUrls"); urls != nil && urls.Kind == ast.ExprArray {
			for _, el := range urls.Elements {
				checkRelativeURL(c, el)
			}
		}
		next()
	}), nil
}

func checkRelativeURL(c *walker.Context, e *ast.Expr) {
	if e == nil || e.Kind != ast.ExprString || relativeURLPattern.MatchString(e.Value) {
		return
	}
	c.AddFailure(e.Span, relativeURLMessage)
}
