// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package selector decides whether a component stylesheet selector can
// match anything in the component's template.
package selector

import (
	"strings"

	"github.com/AleutianAI/nglint/services/lint/styles"
)

// HostTag is the tag name of the synthetic element standing for the
// component host in a Document.
const HostTag = "nglint-host"

// Kinds is the set of simple selector kinds a normalized selector uses.
type Kinds struct {
	Class     bool
	ID        bool
	Attribute bool
}

// Normalized is a selector reduced to what can be evaluated statically
// against a template.
type Normalized struct {
	// Text is a selector cascadia can parse, or empty when Always is set.
	Text  string
	Kinds Kinds
	// Always reports that the selector counts as used without matching.
	Always bool
}

// structuralPseudo lists pseudo-classes that depend only on document
// structure and are kept during normalization.
var structuralPseudo = map[string]bool{
	"first-child":      true,
	"last-child":       true,
	"only-child":       true,
	"first-of-type":    true,
	"last-of-type":     true,
	"only-of-type":     true,
	"nth-child":        true,
	"nth-last-child":   true,
	"nth-of-type":      true,
	"nth-last-of-type": true,
	"empty":            true,
	"not":              true,
	"is":               true,
	"where":            true,
	"has":              true,
}

// Normalize reduces sel for static matching.
//
// Description:
//
//	Pseudo-elements are dropped. The selector is cut at the first
//	shadow-piercing combinator together with any combinator left dangling,
//	since whatever follows reaches into child components. A leading
//	`:host`, `:host(...)` or `:host-context(...)` compound becomes the
//	synthetic host element so child combinators keep their meaning; a
//	selector that is only the host is always used. Pseudo-classes that
//	depend on runtime state are dropped. Nesting references and unknown
//	syntax make the selector always used.
func Normalize(sel *styles.Selector) Normalized {
	parts := sel.Parts
	for i, p := range parts {
		if p.IsDeep() {
			parts = parts[:i]
			break
		}
	}
	for len(parts) > 0 && parts[len(parts)-1].Kind == styles.PartCombinator {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return Normalized{Always: true}
	}

	var compounds [][]styles.Part
	var combinators []string
	cur := []styles.Part{}
	for _, p := range parts {
		if p.Kind == styles.PartCombinator {
			compounds = append(compounds, cur)
			combinators = append(combinators, p.Value)
			cur = []styles.Part{}
			continue
		}
		cur = append(cur, p)
	}
	compounds = append(compounds, cur)

	var n Normalized
	var b strings.Builder
	for i, compound := range compounds {
		if i > 0 {
			if c := combinators[i-1]; c == styles.Descendant {
				b.WriteByte(' ')
			} else {
				b.WriteString(" " + c + " ")
			}
		}
		if isHostCompound(compound) {
			if i > 0 {
				return Normalized{Always: true}
			}
			if len(compounds) == 1 {
				return Normalized{Always: true}
			}
			b.WriteString(HostTag)
			continue
		}
		written := 0
		for _, p := range compound {
			switch p.Kind {
			case styles.PartNesting, styles.PartOther:
				return Normalized{Always: true}
			case styles.PartPseudoElement:
				continue
			case styles.PartPseudoClass:
				if !structuralPseudo[p.Value] {
					continue
				}
				b.WriteString(":" + p.Value)
				if p.Arg != "" {
					b.WriteString("(" + p.Arg + ")")
				}
			case styles.PartTag:
				b.WriteString(strings.ToLower(p.Value))
			case styles.PartUniversal:
				b.WriteString("*")
			case styles.PartClass:
				n.Kinds.Class = true
				b.WriteString("." + p.Value)
			case styles.PartID:
				n.Kinds.ID = true
				b.WriteString("#" + p.Value)
			case styles.PartAttribute:
				n.Kinds.Attribute = true
				b.WriteString("[" + lowerAttrName(p.Value) + "]")
			}
			written++
		}
		if written == 0 {
			b.WriteString("*")
		}
	}
	n.Text = b.String()
	if n.Text == "*" {
		// Only dropped parts remained, e.g. `::selection` or `:hover`.
		return Normalized{Always: true}
	}
	return n
}

func isHostCompound(compound []styles.Part) bool {
	for _, p := range compound {
		if p.Kind == styles.PartPseudoClass && (p.Value == "host" || p.Value == "host-context") {
			return true
		}
	}
	return false
}

// lowerAttrName lowercases the attribute name of an attribute selector
// body, leaving the operator and value untouched.
func lowerAttrName(body string) string {
	i := strings.IndexAny(body, "=~|^$*")
	if i < 0 {
		return strings.ToLower(body)
	}
	return strings.ToLower(body[:i]) + body[i:]
}
