// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package rules holds the lint rules and the registry that turns a rule
// selection into walker passes.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/AleutianAI/nglint/services/lint/walker"
)

var (
	// ErrUnknownRule indicates a rule name that is not registered.
	ErrUnknownRule = errors.New("unknown rule")

	// ErrDuplicateRule indicates a second registration under one name.
	ErrDuplicateRule = errors.New("duplicate rule")

	// ErrInvalidOptions indicates options a rule cannot use.
	ErrInvalidOptions = errors.New("invalid rule options")
)

// Category groups rules in listings.
type Category string

const (
	CategoryMaintainability Category = "maintainability"
	CategoryStyle           Category = "style"
	CategoryFunctionality   Category = "functionality"
)

// Unbounded is the MaxOptions value of rules without an upper limit.
const Unbounded = -1

// Metadata describes a rule. OptionsSchema is informational only; options
// are never validated against it.
type Metadata struct {
	Name               string         `json:"ruleName" yaml:"name"`
	Category           Category       `json:"type" yaml:"type"`
	Description        string         `json:"description" yaml:"description"`
	Rationale          string         `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	OptionsDescription string         `json:"optionsDescription" yaml:"optionsDescription"`
	OptionsSchema      map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
	OptionExamples     []string       `json:"optionExamples,omitempty" yaml:"optionExamples,omitempty"`
	HasFix             bool           `json:"hasFix" yaml:"hasFix"`
	TypeScriptOnly     bool           `json:"typescriptOnly" yaml:"typescriptOnly"`

	// MinOptions and MaxOptions bound the option count. A rule configured
	// outside the bounds is disabled.
	MinOptions int `json:"-" yaml:"-"`
	MaxOptions int `json:"-" yaml:"-"`
}

// Accepts reports whether n options fall within the rule's bounds.
func (m Metadata) Accepts(n int) bool {
	if n < m.MinOptions {
		return false
	}
	return m.MaxOptions == Unbounded || n <= m.MaxOptions
}

// Options are the configured arguments of a rule: strings and booleans.
type Options []any

// Strings returns the non-empty string options in order.
func (o Options) Strings() []string {
	var out []string
	for _, v := range o {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Rule is one lint check.
type Rule interface {
	Metadata() Metadata

	// Hooks returns the walker hooks implementing the rule for opts.
	Hooks(opts Options) (*walker.Hooks, error)
}

func invalidOptions(rule, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidOptions, rule, fmt.Sprintf(format, args...))
}

// readableList renders items as `"a", "b" or "c"`.
func readableList(items []string, connector string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return `"` + items[0] + `"`
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = `"` + s + `"`
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " " + connector + " " + quoted[len(quoted)-1]
}
