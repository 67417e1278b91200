// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package metadata extracts component, directive, pipe and injectable
// configuration from decorated classes.
package metadata

import (
	"strings"

	"github.com/AleutianAI/nglint/services/lint/ast"
	"github.com/AleutianAI/nglint/services/lint/text"
)

// =============================================================================
// Types
// =============================================================================

// Kind is the framework role of a decorated class.
type Kind int

const (
	KindComponent Kind = iota + 1
	KindDirective
	KindPipe
	KindInjectable
)

func (k Kind) String() string {
	switch k {
	case KindComponent:
		return "Component"
	case KindDirective:
		return "Directive"
	case KindPipe:
		return "Pipe"
	case KindInjectable:
		return "Injectable"
	default:
		return "Unknown"
	}
}

// kindByDecorator maps decorator names to kinds, in lookup priority order.
var kindByDecorator = []struct {
	name string
	kind Kind
}{
	{"Component", KindComponent},
	{"Directive", KindDirective},
	{"Pipe", KindPipe},
	{"Injectable", KindInjectable},
}

// Encapsulation is the view encapsulation mode of a component.
type Encapsulation int

const (
	// EncapsulationDefault means the property is absent.
	EncapsulationDefault Encapsulation = iota
	EncapsulationEmulated
	EncapsulationNone
	EncapsulationShadowDom
	EncapsulationNative
	// EncapsulationUnknown is any expression that is not a recognized
	// enum member access.
	EncapsulationUnknown
)

func (e Encapsulation) String() string {
	switch e {
	case EncapsulationDefault:
		return "Default"
	case EncapsulationEmulated:
		return "Emulated"
	case EncapsulationNone:
		return "None"
	case EncapsulationShadowDom:
		return "ShadowDom"
	case EncapsulationNative:
		return "Native"
	default:
		return "Unknown"
	}
}

// Source is a template or stylesheet fragment referenced by a decorator.
//
// For inline fragments Code is the literal text and Base the offset of its
// first byte in the host file. For URL references URL is set, Code is
// empty until resolved, and Span covers the URL literal.
type Source struct {
	Code   string
	URL    string
	Base   int
	Span   text.Span
	Inline bool
}

// Binding pairs a class property with its public binding name.
type Binding struct {
	Name        string
	BindingName string
	Span        text.Span
}

// DecoratorMetadata is the configuration of one decorated class.
//
// Thread Safety: Immutable after Extract returns.
type DecoratorMetadata struct {
	Kind      Kind
	ClassName string
	Class     *ast.ClassDecl
	Decorator *ast.Decorator

	Selector string
	ExportAs string
	Name     string

	Inputs  []Binding
	Outputs []Binding

	HostListeners  map[string]string
	HostProperties map[string]string
	HostAttributes map[string]string

	Template    *Source
	TemplateURL *Source
	Styles      []Source
	StyleURLs   []Source

	Encapsulation     Encapsulation
	EncapsulationExpr *ast.Expr
}

// EncapsulationEnabled reports whether component styles are scoped to the
// component. Only the `None` enum member disables scoping.
func (m *DecoratorMetadata) EncapsulationEnabled() bool {
	return m.Encapsulation != EncapsulationNone
}

// Declaration returns the directive declaration template parsing uses to
// classify bound properties of elements matching the selector.
func (m *DecoratorMetadata) Declaration() DirectiveDeclaration {
	d := DirectiveDeclaration{
		Name:     m.ClassName,
		Selector: m.Selector,
		ExportAs: m.ExportAs,
	}
	for _, in := range m.Inputs {
		d.Inputs = append(d.Inputs, in.BindingName)
	}
	for _, out := range m.Outputs {
		d.Outputs = append(d.Outputs, out.BindingName)
	}
	for _, pb := range PropertyBindings(m.Class) {
		if pb.Kind == BindingInput {
			d.Inputs = append(d.Inputs, pb.BindingName)
		} else {
			d.Outputs = append(d.Outputs, pb.BindingName)
		}
	}
	return d
}

// =============================================================================
// Extraction
// =============================================================================

// Extract reads the framework decorator of cls.
//
// Description:
//
//	Looks for @Component, @Directive, @Pipe or @Injectable, in that order,
//	and reads the first argument when it is an object literal. Missing or
//	malformed properties leave the matching field empty.
//
// Inputs:
//   - cls: Class declaration. Must not be nil.
//
// Outputs:
//   - *DecoratorMetadata: Extracted metadata, nil when no framework
//     decorator is present.
//   - bool: True when metadata was found.
func Extract(cls *ast.ClassDecl) (*DecoratorMetadata, bool) {
	for _, kd := range kindByDecorator {
		dec := cls.Decorator(kd.name)
		if dec == nil {
			continue
		}
		m := &DecoratorMetadata{
			Kind:           kd.kind,
			ClassName:      cls.Name,
			Class:          cls,
			Decorator:      dec,
			HostListeners:  map[string]string{},
			HostProperties: map[string]string{},
			HostAttributes: map[string]string{},
		}
		if cfg := dec.Arg(0); cfg != nil && cfg.Kind == ast.ExprObject {
			m.read(cfg)
		}
		return m, true
	}
	return nil, false
}

func (m *DecoratorMetadata) read(cfg *ast.Expr) {
	m.Selector, _ = cfg.Prop("selector").StringValue()
	m.ExportAs, _ = cfg.Prop("exportAs").StringValue()
	m.Name, _ = cfg.Prop("name").StringValue()
	m.Inputs = readBindings(cfg.Prop("inputs"))
	m.Outputs = readBindings(cfg.Prop("outputs"))
	m.readHost(cfg.Prop("host"))

	if m.Kind != KindComponent {
		return
	}

	if tpl := cfg.Prop("template"); tpl.IsStringLike() {
		m.Template = inlineSource(tpl)
	}
	if url := cfg.Prop("templateUrl"); url.IsStringLike() {
		m.TemplateURL = urlSource(url)
	}

	switch styles := cfg.Prop("styles"); {
	case styles == nil:
	case styles.IsStringLike():
		m.Styles = append(m.Styles, *inlineSource(styles))
	case styles.Kind == ast.ExprArray:
		for _, el := range styles.Elements {
			if el.IsStringLike() {
				m.Styles = append(m.Styles, *inlineSource(el))
			}
		}
	}
	for _, key := range []string{"styleUrls", "styleUrl"} {
		switch urls := cfg.Prop(key); {
		case urls == nil:
		case urls.IsStringLike():
			m.StyleURLs = append(m.StyleURLs, *urlSource(urls))
		case urls.Kind == ast.ExprArray:
			for _, el := range urls.Elements {
				if el.IsStringLike() {
					m.StyleURLs = append(m.StyleURLs, *urlSource(el))
				}
			}
		}
	}

	m.EncapsulationExpr = cfg.Prop("encapsulation")
	m.Encapsulation = encapsulationOf(m.EncapsulationExpr)
}

func (m *DecoratorMetadata) readHost(host *ast.Expr) {
	if host == nil || host.Kind != ast.ExprObject {
		return
	}
	for _, p := range host.Props {
		value, _ := p.Value.StringValue()
		switch {
		case strings.HasPrefix(p.Key, "(") && strings.HasSuffix(p.Key, ")"):
			m.HostListeners[p.Key[1:len(p.Key)-1]] = value
		case strings.HasPrefix(p.Key, "[") && strings.HasSuffix(p.Key, "]"):
			m.HostProperties[p.Key[1:len(p.Key)-1]] = value
		default:
			m.HostAttributes[p.Key] = value
		}
	}
}

// readBindings parses `inputs: ['name', 'name: alias']` arrays.
func readBindings(e *ast.Expr) []Binding {
	if e == nil || e.Kind != ast.ExprArray {
		return nil
	}
	out := make([]Binding, 0, len(e.Elements))
	for _, el := range e.Elements {
		s, ok := el.StringValue()
		if !ok {
			continue
		}
		name, alias := splitBinding(s)
		if name == "" {
			continue
		}
		out = append(out, Binding{Name: name, BindingName: alias, Span: el.Span})
	}
	return out
}

// splitBinding splits "name: alias" into its parts; alias defaults to name.
func splitBinding(s string) (string, string) {
	name, alias, found := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	alias = strings.TrimSpace(alias)
	if !found || alias == "" {
		alias = name
	}
	return name, alias
}

func inlineSource(e *ast.Expr) *Source {
	return &Source{
		Code:   e.Value,
		Base:   e.ValueSpan.Start,
		Span:   e.ValueSpan,
		Inline: true,
	}
}

func urlSource(e *ast.Expr) *Source {
	return &Source{
		URL:  e.Value,
		Span: e.Span,
	}
}

func encapsulationOf(e *ast.Expr) Encapsulation {
	if e == nil {
		return EncapsulationDefault
	}
	if e.Kind != ast.ExprMember {
		return EncapsulationUnknown
	}
	switch e.Value {
	case "Emulated":
		return EncapsulationEmulated
	case "None":
		return EncapsulationNone
	case "ShadowDom":
		return EncapsulationShadowDom
	case "Native":
		return EncapsulationNative
	default:
		return EncapsulationUnknown
	}
}
