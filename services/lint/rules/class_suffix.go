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
	"fmt"
	"strings"

	"github.com/AleutianAI/nglint/services/lint/metadata"
	"github.com/AleutianAI/nglint/services/lint/walker"
)

const suffixStyleGuide = "https://angular.io/guide/styleguide#style-02-03"

var suffixSchema = map[string]any{
	"type":  "array",
	"items": map[string]any{"type": "string"},
}

// ComponentClassSuffix requires @Component class names to end with one of
// the configured suffixes.
type ComponentClassSuffix struct{}

func (ComponentClassSuffix) Metadata() Metadata {
	return Metadata{
		Name:               "component-class-suffix",
		Category:           CategoryStyle,
		Description:        `Classes decorated with @Component must have suffix "Component" (or custom) in their name.`,
		Rationale:          "Consistent conventions make it easy to quickly identify and reference assets of different types.",
		OptionsDescription: `Supply a list of allowed component suffixes. Defaults to "Component".`,
		OptionsSchema:      suffixSchema,
		OptionExamples:     []string{"true", `[true, "Component", "View"]`},
		TypeScriptOnly:     true,
		MaxOptions:         Unbounded,
	}
}

func (r ComponentClassSuffix) Hooks(opts Options) (*walker.Hooks, error) {
	suffixes := opts.Strings()
	if len(suffixes) == 0 {
		suffixes = []string{"Component"}
	}
	msg := fmt.Sprintf("The name of a component should be suffixed by %s (%s)", readableList(suffixes, "or"), suffixStyleGuide)
	return walker.NewHooks().OnComponent(func(c *walker.Context, m *metadata.DecoratorMetadata, next walker.Next) {
		if m.ClassName != "" && !hasAnySuffix(m.ClassName, suffixes) {
			c.AddFailure(m.Class.NameSpan, msg)
		}
		next()
	}), nil
}

// DirectiveClassSuffix requires @Directive class names to end with one of
// the configured suffixes. Classes implementing a `*Validator` interface
// may end with "Validator" instead.
type DirectiveClassSuffix struct{}

func (DirectiveClassSuffix) Metadata() Metadata {
	return Metadata{
		Name:               "directive-class-suffix",
		Category:           CategoryStyle,
		Description:        `Classes decorated with @Directive must have suffix "Directive" (or custom) in their name.`,
		Rationale:          "Consistent conventions make it easy to quickly identify and reference assets of different types.",
		OptionsDescription: `Supply a list of allowed directive suffixes. Defaults to "Directive".`,
		OptionsSchema:      suffixSchema,
		OptionExamples:     []string{"true", `[true, "Directive", "MySuffix"]`},
		TypeScriptOnly:     true,
		MaxOptions:         Unbounded,
	}
}

func (r DirectiveClassSuffix) Hooks(opts Options) (*walker.Hooks, error) {
	suffixes := opts.Strings()
	if len(suffixes) == 0 {
		suffixes = []string{"Directive"}
	}
	msg := fmt.Sprintf("The name of a directive should be suffixed by %s (%s)", readableList(suffixes, "or"), suffixStyleGuide)
	return walker.NewHooks().OnDirective(func(c *walker.Context, m *metadata.DecoratorMetadata, next walker.Next) {
		if m.ClassName == "" {
			next()
			return
		}
		allowed := suffixes
		if implementsValidator(m.Class.Implements) {
			allowed = append(append([]string(nil), suffixes...), "Validator")
		}
		if !hasAnySuffix(m.ClassName, allowed) {
			c.AddFailure(m.Class.NameSpan, msg)
		}
		next()
	}), nil
}

func hasAnySuffix(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func implementsValidator(ifaces []string) bool {
	for _, name := range ifaces {
		if i := strings.IndexByte(name, '<'); i >= 0 {
			name = name[:i]
		}
		if strings.HasSuffix(strings.TrimSpace(name), "Validator") {
			return true
		}
	}
	return false
}
