// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package styles parses component stylesheets into rules and selectors and
// walks them with handler chains.
package styles

import (
	"github.com/AleutianAI/nglint/services/lint/text"
)

// PartKind classifies one simple selector or combinator.
type PartKind int

const (
	PartTag PartKind = iota
	PartUniversal
	PartID
	PartClass
	PartAttribute
	PartPseudoClass
	PartPseudoElement
	PartCombinator
	// PartNesting is the `&` parent reference of nested rules.
	PartNesting
	PartOther
)

var partKindNames = [...]string{
	"tag", "universal", "id", "class", "attribute", "pseudo-class",
	"pseudo-element", "combinator", "nesting", "other",
}

func (k PartKind) String() string {
	if int(k) < len(partKindNames) {
		return partKindNames[k]
	}
	return "unknown"
}

// Combinator values.
const (
	Descendant     = " "
	Child          = ">"
	Adjacent       = "+"
	GeneralSibling = "~"
	DeepSlash      = "/deep/"
	DeepPiercing   = ">>>"
	DeepNg         = "::ng-deep"
)

// Part is one simple selector or combinator of a selector.
//
// Value holds the name without its sigil (`foo` for `.foo`, `hover` for
// `:hover`), the bracket contents for attributes, or the combinator itself.
// Arg holds the parenthesized argument of functional pseudo selectors.
type Part struct {
	Kind  PartKind
	Value string
	Arg   string
	Span  text.Span
}

// IsDeep reports whether p is a shadow-piercing combinator.
func (p Part) IsDeep() bool {
	if p.Kind != PartCombinator {
		return false
	}
	return p.Value == DeepSlash || p.Value == DeepPiercing || p.Value == DeepNg
}

// Selector is one comma-separated selector of a rule.
type Selector struct {
	Text  string
	Span  text.Span
	Parts []Part
}

// Rule is a qualified rule: a selector list and its declaration block.
type Rule struct {
	Selectors []*Selector
	// Span runs from the first selector to the closing brace.
	Span      text.Span
	BlockSpan text.Span
	// AtRules lists the enclosing at-rule preludes, outermost first.
	AtRules []string
	// Parent is the enclosing rule of a nested rule set.
	Parent *Rule
}

// Stylesheet is one parsed style fragment.
type Stylesheet struct {
	Source string
	Rules  []*Rule
}

// Result is the outcome of a style parse.
type Result struct {
	Sheet *Stylesheet
	Err   error
}

// OK reports whether the parse succeeded.
func (r Result) OK() bool {
	return r.Err == nil && r.Sheet != nil
}
