// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast parses TypeScript sources into the class, decorator and
// member model the lint walker consumes.
package ast

import (
	"strings"

	"github.com/AleutianAI/nglint/services/lint/text"
)

// =============================================================================
// Source Model
// =============================================================================

// SourceFile is one parsed TypeScript file.
//
// Thread Safety: Immutable after Parse returns; safe for concurrent reads.
type SourceFile struct {
	// Path is the file path as given to Parse.
	Path string

	// Content is the raw source text.
	Content string

	// Hash is the hex SHA256 of Content.
	Hash string

	// Classes lists every class declaration in source order, including
	// classes nested in export statements and namespaces.
	Classes []*ClassDecl

	// Errors holds non-fatal parse diagnostics.
	Errors []string

	lines *text.LineIndex
}

// Lines returns the line index of the file content.
func (f *SourceFile) Lines() *text.LineIndex {
	if f.lines == nil {
		f.lines = text.NewLineIndex(f.Content)
	}
	return f.lines
}

// ClassDecl is a class declaration with its decorators and members.
type ClassDecl struct {
	Name       string
	NameSpan   text.Span
	Span       text.Span
	Abstract   bool
	Extends    string
	Implements []string
	Decorators []*Decorator
	Members    []*Member
}

// Decorator returns the first decorator named name, or nil.
func (c *ClassDecl) Decorator(name string) *Decorator {
	for _, d := range c.Decorators {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Decorator is one `@Name(args)` or `@Name` annotation.
type Decorator struct {
	// Name is the last segment of the decorator expression
	// (`Component` for `@ng.Component()`).
	Name string

	// QualifiedName is the full callee text.
	QualifiedName string

	Span text.Span

	// Called is true for `@Name(...)` forms.
	Called bool

	Args []*Expr
}

// Arg returns argument i or nil.
func (d *Decorator) Arg(i int) *Expr {
	if d == nil || i < 0 || i >= len(d.Args) {
		return nil
	}
	return d.Args[i]
}

// MemberKind classifies class members.
type MemberKind int

const (
	MemberField MemberKind = iota
	MemberMethod
	MemberGetter
	MemberSetter
)

func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberMethod:
		return "method"
	case MemberGetter:
		return "getter"
	case MemberSetter:
		return "setter"
	default:
		return "unknown"
	}
}

// Member is a property, method or accessor of a class.
type Member struct {
	Name       string
	NameSpan   text.Span
	Span       text.Span
	Kind       MemberKind
	Static     bool
	Decorators []*Decorator
}

// Decorator returns the first decorator on the member named name, or nil.
func (m *Member) Decorator(name string) *Decorator {
	for _, d := range m.Decorators {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// =============================================================================
// Decorator Argument Expressions
// =============================================================================

// ExprKind classifies decorator argument expressions.
type ExprKind int

const (
	ExprOther ExprKind = iota
	ExprString
	ExprTemplate
	ExprNumber
	ExprBool
	ExprNull
	ExprArray
	ExprObject
	ExprIdentifier
	ExprMember
	ExprCall
)

func (k ExprKind) String() string {
	switch k {
	case ExprString:
		return "string"
	case ExprTemplate:
		return "template"
	case ExprNumber:
		return "number"
	case ExprBool:
		return "bool"
	case ExprNull:
		return "null"
	case ExprArray:
		return "array"
	case ExprObject:
		return "object"
	case ExprIdentifier:
		return "identifier"
	case ExprMember:
		return "member"
	case ExprCall:
		return "call"
	default:
		return "other"
	}
}

// Expr is the subset of TypeScript expressions decorator metadata needs.
//
// Field use by kind:
//   - ExprString, ExprTemplate: Value is the raw text between the
//     delimiters and ValueSpan its location. Substitutions is true for
//     template literals containing `${...}`.
//   - ExprIdentifier: Value is the name.
//   - ExprMember: Value is the property name, Object the receiver.
//   - ExprCall: Object is the callee, Elements the arguments.
//   - ExprArray: Elements.
//   - ExprObject: Props.
type Expr struct {
	Kind          ExprKind
	Span          text.Span
	Text          string
	Value         string
	ValueSpan     text.Span
	Substitutions bool
	Object        *Expr
	Elements      []*Expr
	Props         []*Property
}

// Property is one key/value pair of an object literal.
type Property struct {
	Key     string
	KeySpan text.Span
	Value   *Expr
}

// Prop returns the value of key in an object literal, or nil.
func (e *Expr) Prop(key string) *Expr {
	if e == nil || e.Kind != ExprObject {
		return nil
	}
	for _, p := range e.Props {
		if p.Key == key {
			return p.Value
		}
	}
	return nil
}

// IsStringLike reports whether e is a string or template literal.
func (e *Expr) IsStringLike() bool {
	return e != nil && (e.Kind == ExprString || e.Kind == ExprTemplate)
}

// StringValue returns the literal text of a string or template literal.
func (e *Expr) StringValue() (string, bool) {
	if !e.IsStringLike() {
		return "", false
	}
	return e.Value, true
}

// QualifiedName renders identifiers and member chains as `a.b.c`.
// Other expressions yield "".
func (e *Expr) QualifiedName() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ExprIdentifier:
		return e.Value
	case ExprMember:
		left := e.Object.QualifiedName()
		if left == "" {
			return ""
		}
		return left + "." + e.Value
	default:
		return ""
	}
}

// LastName returns the final segment of an identifier or member chain.
func (e *Expr) LastName() string {
	name := e.QualifiedName()
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i+1:]
	}
	return name
}
