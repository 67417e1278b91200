// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package template parses component templates into a node tree and walks
// it with ordered handler chains.
package template

import (
	"github.com/AleutianAI/nglint/services/lint/expression"
	"github.com/AleutianAI/nglint/services/lint/metadata"
	"github.com/AleutianAI/nglint/services/lint/text"
)

// Kind identifies a template node type.
type Kind int

const (
	KindElement Kind = iota + 1
	KindAttr
	KindReference
	KindBoundProperty
	KindBoundEvent
	KindBoundText
	KindText
	KindDirectiveProperty
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindAttr:
		return "Attr"
	case KindReference:
		return "Reference"
	case KindBoundProperty:
		return "BoundProperty"
	case KindBoundEvent:
		return "BoundEvent"
	case KindBoundText:
		return "BoundText"
	case KindText:
		return "Text"
	case KindDirectiveProperty:
		return "DirectiveProperty"
	default:
		return "Unknown"
	}
}

// Node is a template AST node. Spans are offsets into the template text.
// IDs are unique within one parse.
type Node interface {
	Kind() Kind
	Span() text.Span
	ID() int
}

type base struct {
	id   int
	span text.Span
}

func (b base) Span() text.Span { return b.span }
func (b base) ID() int         { return b.id }

// Element is an element with its classified attributes and children.
//
// Structural directives (`*ngIf`) wrap their host in a synthetic
// `ng-template` Element holding the directive bindings.
type Element struct {
	base
	Name      string
	StartSpan text.Span
	Synthetic bool

	Attrs               []*Attr
	Inputs              []*BoundProperty
	Outputs             []*BoundEvent
	References          []*Reference
	Variables           []Variable
	Directives          []metadata.DirectiveDeclaration
	DirectiveProperties []*DirectiveProperty
	Children            []Node
}

func (*Element) Kind() Kind { return KindElement }

// Attr returns the static attribute named name, or nil.
func (e *Element) Attr(name string) *Attr {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Attr is a static attribute.
type Attr struct {
	base
	Name      string
	Value     string
	NameSpan  text.Span
	ValueSpan text.Span
}

func (*Attr) Kind() Kind { return KindAttr }

// Reference is `#name` or `ref-name`.
type Reference struct {
	base
	Name  string
	Value string
}

func (*Reference) Kind() Kind { return KindReference }

// Variable is a template input variable from `let-x` or microsyntax.
type Variable struct {
	Name  string
	Value string
	Span  text.Span
}

// PropertyType is the target of a property binding.
type PropertyType int

const (
	PropertyProperty PropertyType = iota
	PropertyAttribute
	PropertyClass
	PropertyStyle
	PropertyAnimation
)

func (t PropertyType) String() string {
	switch t {
	case PropertyProperty:
		return "Property"
	case PropertyAttribute:
		return "Attribute"
	case PropertyClass:
		return "Class"
	case PropertyStyle:
		return "Style"
	case PropertyAnimation:
		return "Animation"
	default:
		return "Unknown"
	}
}

// BoundProperty is an element property binding: `[x]`, `bind-x`,
// `[attr.x]`, `[class.x]`, `[style.x.unit]`, `[@x]` or an interpolated
// attribute value.
type BoundProperty struct {
	base
	Name         string
	Type         PropertyType
	Unit         string
	Value        expression.Node
	Source       string
	KeySpan      text.Span
	ValueSpan    text.Span
	Interpolated bool

	rawName string
}

func (*BoundProperty) Kind() Kind { return KindBoundProperty }

// BoundEvent is `(x)`, `on-x` or the event half of `[(x)]`.
type BoundEvent struct {
	base
	Name      string
	Target    string
	Handler   expression.Node
	Source    string
	KeySpan   text.Span
	ValueSpan text.Span
	TwoWay    bool
}

func (*BoundEvent) Kind() Kind { return KindBoundEvent }

// BoundText is text containing interpolation.
type BoundText struct {
	base
	Value  *expression.Interpolation
	Source string
}

func (*BoundText) Kind() Kind { return KindBoundText }

// Text is static text.
type Text struct {
	base
	Value string
}

func (*Text) Kind() Kind { return KindText }

// DirectiveProperty is a binding consumed by a directive input.
type DirectiveProperty struct {
	base
	DirectiveName string
	Name          string
	Value         expression.Node
	Source        string
	KeySpan       text.Span
	ValueSpan     text.Span
	// Microsyntax is true for bindings created from `*dir` attributes.
	Microsyntax bool
}

func (*DirectiveProperty) Kind() Kind { return KindDirectiveProperty }
