// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package selector

import (
	"log/slog"

	"github.com/andybalholm/cascadia"

	"github.com/AleutianAI/nglint/services/lint/styles"
	"github.com/AleutianAI/nglint/services/lint/template"
)

// Option configures a Matcher.
type Option func(*Matcher)

// WithLogger sets the logger for selectors that cannot be compiled.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// Matcher answers whether stylesheet selectors match a template.
//
// Thread Safety: Not safe for concurrent use. Create one per template.
type Matcher struct {
	doc    *Document
	logger *slog.Logger
	cache  map[string]bool
}

// NewMatcher builds the document mirror of nodes.
func NewMatcher(nodes []template.Node, opts ...Option) *Matcher {
	m := &Matcher{
		doc:    NewDocument(nodes),
		logger: slog.Default(),
		cache:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Document returns the template mirror.
func (m *Matcher) Document() *Document {
	return m.doc
}

// IsUsed reports whether sel can match an element of the template.
//
// Description:
//
//	The selector is normalized first. If it uses a selector kind that
//	some element sets dynamically it is assumed used. Otherwise it is
//	evaluated with CSS semantics against every element under the host.
//	Selectors that fail to compile count as used.
func (m *Matcher) IsUsed(sel *styles.Selector) bool {
	n := Normalize(sel)
	if n.Always {
		return true
	}
	if (n.Kinds.Class && m.doc.DynamicClass) ||
		(n.Kinds.ID && m.doc.DynamicID) ||
		(n.Kinds.Attribute && m.doc.DynamicAttribute) {
		return true
	}
	if used, ok := m.cache[n.Text]; ok {
		return used
	}
	used := m.match(n.Text)
	m.cache[n.Text] = used
	return used
}

func (m *Matcher) match(sel string) bool {
	group, err := cascadia.ParseGroup(sel)
	if err != nil {
		m.logger.Debug("treating uncompilable selector as used",
			slog.String("selector", sel),
			slog.String("error", err.Error()))
		return true
	}
	return cascadia.Query(m.doc.Root, group) != nil
}
