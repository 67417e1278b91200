// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package template

import (
	"log/slog"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/AleutianAI/nglint/services/lint/metadata"
)

// directiveMatcher matches directive selectors against elements.
type directiveMatcher struct {
	directives []metadata.DirectiveDeclaration
	selectors  []cascadia.SelectorGroup
}

func newDirectiveMatcher(directives []metadata.DirectiveDeclaration, logger *slog.Logger) *directiveMatcher {
	m := &directiveMatcher{}
	for _, d := range directives {
		if strings.TrimSpace(d.Selector) == "" {
			continue
		}
		// Attribute names match case-insensitively, as in HTML.
		sel, err := cascadia.ParseGroup(strings.ToLower(d.Selector))
		if err != nil {
			logger.Debug("skipping directive with unsupported selector",
				slog.String("directive", d.Name),
				slog.String("selector", d.Selector),
				slog.String("error", err.Error()))
			continue
		}
		m.directives = append(m.directives, d)
		m.selectors = append(m.selectors, sel)
	}
	return m
}

// match returns the directives whose selector matches an element with
// the given tag and matchable attribute names/values.
func (m *directiveMatcher) match(tag string, attrs [][2]string) []metadata.DirectiveDeclaration {
	if len(m.directives) == 0 {
		return nil
	}
	n := &html.Node{Type: html.ElementNode, Data: strings.ToLower(tag)}
	for _, a := range attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: strings.ToLower(a[0]), Val: a[1]})
	}
	var out []metadata.DirectiveDeclaration
	for i, sel := range m.selectors {
		if sel.Match(n) {
			out = append(out, m.directives[i])
		}
	}
	return out
}

// bindDirectives moves property bindings consumed by a matched directive
// input from el.Inputs to el.DirectiveProperties.
func (b *builder) bindDirectives(el *Element, matchable [][2]string, microsyntax bool) {
	el.Directives = b.matcher.match(el.Name, matchable)
	if len(el.Directives) == 0 {
		return
	}
	kept := el.Inputs[:0]
	for _, in := range el.Inputs {
		owner := ""
		if in.Type == PropertyProperty {
			for _, d := range el.Directives {
				if d.HasInput(in.rawName) {
					owner = d.Name
					break
				}
			}
		}
		if owner == "" {
			kept = append(kept, in)
			continue
		}
		el.DirectiveProperties = append(el.DirectiveProperties, &DirectiveProperty{
			base:          in.base,
			DirectiveName: owner,
			Name:          in.rawName,
			Value:         in.Value,
			Source:        in.Source,
			KeySpan:       in.KeySpan,
			ValueSpan:     in.ValueSpan,
			Microsyntax:   microsyntax,
		})
	}
	el.Inputs = kept
}
