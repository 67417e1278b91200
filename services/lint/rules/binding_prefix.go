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
	"regexp"
	"strings"

	"github.com/AleutianAI/nglint/services/lint/metadata"
	"github.com/AleutianAI/nglint/services/lint/walker"
)

const outputStyleGuide = "https://angular.io/guide/styleguide#style-05-16"

// NoInputPrefix disallows @Input property names starting with one of the
// configured prefixes. A prefix only counts when the name equals it or
// continues with a character other than a-z.
type NoInputPrefix struct{}

func (NoInputPrefix) Metadata() Metadata {
	return Metadata{
		Name:               "no-input-prefix",
		Category:           CategoryMaintainability,
		Description:        "Input names should not be prefixed by the configured disallowed prefixes.",
		Rationale:          "HTML attributes are not prefixed. It's considered best not to prefix inputs.",
		OptionsDescription: "Options accept a string array of disallowed input prefixes.",
		OptionsSchema: map[string]any{
			"type":      "array",
			"items":     []any{map[string]any{"type": "string"}},
			"minLength": 1,
		},
		OptionExamples: []string{`[true, "can", "is", "should"]`},
		TypeScriptOnly: true,
		MinOptions:     1,
		MaxOptions:     Unbounded,
	}
}

func (r NoInputPrefix) Hooks(opts Options) (*walker.Hooks, error) {
	prefixes := opts.Strings()
	if len(prefixes) == 0 {
		return nil, invalidOptions(r.Metadata().Name, "at least one prefix is required")
	}
	msg := fmt.Sprintf("@Inputs should not be prefixed by %s", readableList(prefixes, "or"))
	return walker.NewHooks().OnInput(func(c *walker.Context, b metadata.PropertyBinding, _ *metadata.DecoratorMetadata, next walker.Next) {
		if hasBlockedPrefix(b.Name, prefixes) {
			c.AddFailure(b.Member.Span, msg)
		}
		next()
	}), nil
}

func hasBlockedPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if name == p {
			return true
		}
		if strings.HasPrefix(name, p) && len(name) > len(p) && !isLowerASCII(name[len(p)]) {
			return true
		}
	}
	return false
}

func isLowerASCII(c byte) bool {
	return c >= 'a' && c <= 'z'
}

// NoOutputPrefix disallows @Output property names matching a configured
// prefix pattern.
type NoOutputPrefix struct{}

func (NoOutputPrefix) Metadata() Metadata {
	return Metadata{
		Name:               "no-output-prefix",
		Category:           CategoryMaintainability,
		Description:        "Disallows output names to be prefixed with a configured pattern.",
		Rationale:          "It's considered best not to prefix Outputs. 'savedTheDay' is preferred over 'onSavedTheDay'.",
		OptionsDescription: "Options accept a string defining the prefix pattern, compiled as a regular expression.",
		OptionsSchema: map[string]any{
			"type":      "array",
			"items":     []any{map[string]any{"type": "string"}},
			"minLength": 1,
			"maxLength": 1,
		},
		OptionExamples: []string{`[true, "^on"]`, `[true, "^(on|yes)[A-Z]+"]`},
		TypeScriptOnly: true,
		MinOptions:     1,
		MaxOptions:     1,
	}
}

func (r NoOutputPrefix) Hooks(opts Options) (*walker.Hooks, error) {
	patterns := opts.Strings()
	if len(patterns) != 1 {
		return nil, invalidOptions(r.Metadata().Name, "exactly one non-empty pattern is required")
	}
	pattern := patterns[0]
	re, err := regexp.Compile("^" + pattern + "([^a-z]|$)")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOptions, r.Metadata().Name, err)
	}
	msg := fmt.Sprintf("@Outputs should not match the prefix pattern %s (%s)", pattern, outputStyleGuide)
	return walker.NewHooks().OnOutput(func(c *walker.Context, b metadata.PropertyBinding, _ *metadata.DecoratorMetadata, next walker.Next) {
		if re.MatchString(b.Name) {
			c.AddFailure(b.Member.Span, msg)
		}
		next()
	}), nil
}

// NoOutputOnPrefix disallows outputs named `on` or `onX`.
type NoOutputOnPrefix struct{}

func (NoOutputOnPrefix) Metadata() Metadata {
	return Metadata{
		Name:               "no-output-on-prefix",
		Category:           CategoryMaintainability,
		Description:        "Name events without the prefix on.",
		Rationale:          "Angular allows for an alternative syntax on-*. If the event itself was prefixed with on this would result in an on-onEvent binding expression.",
		OptionsDescription: "Not configurable.",
		TypeScriptOnly:     true,
	}
}

func (NoOutputOnPrefix) Hooks(Options) (*walker.Hooks, error) {
	msg := fmt.Sprintf("A directive output property should not be prefixed with 'on' (%s)", outputStyleGuide)
	return walker.NewHooks().OnOutput(func(c *walker.Context, b metadata.PropertyBinding, _ *metadata.DecoratorMetadata, next walker.Next) {
		if hasBlockedPrefix(b.Name, []string{"on"}) {
			c.AddFailure(b.Member.Span, msg)
		}
		next()
	}), nil
}
