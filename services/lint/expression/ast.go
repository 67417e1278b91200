// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package expression parses and walks template binding expressions:
// interpolations, property bindings, event actions and structural
// directive microsyntax.
package expression

import (
	"github.com/AleutianAI/nglint/services/lint/text"
)

// Kind identifies an expression node type.
type Kind int

const (
	KindEmpty Kind = iota
	KindImplicitReceiver
	KindThisReceiver
	KindPropertyRead
	KindSafePropertyRead
	KindKeyedRead
	KindPropertyWrite
	KindKeyedWrite
	KindMethodCall
	KindSafeMethodCall
	KindFunctionCall
	KindLiteralPrimitive
	KindLiteralArray
	KindLiteralMap
	KindConditional
	KindBinary
	KindUnary
	KindPrefixNot
	KindNonNullAssert
	KindPipe
	KindChain
	KindInterpolation
)

var kindNames = map[Kind]string{
	KindEmpty:            "Empty",
	KindImplicitReceiver: "ImplicitReceiver",
	KindThisReceiver:     "ThisReceiver",
	KindPropertyRead:     "PropertyRead",
	KindSafePropertyRead: "SafePropertyRead",
	KindKeyedRead:        "KeyedRead",
	KindPropertyWrite:    "PropertyWrite",
	KindKeyedWrite:       "KeyedWrite",
	KindMethodCall:       "MethodCall",
	KindSafeMethodCall:   "SafeMethodCall",
	KindFunctionCall:     "FunctionCall",
	KindLiteralPrimitive: "LiteralPrimitive",
	KindLiteralArray:     "LiteralArray",
	KindLiteralMap:       "LiteralMap",
	KindConditional:      "Conditional",
	KindBinary:           "Binary",
	KindUnary:            "Unary",
	KindPrefixNot:        "PrefixNot",
	KindNonNullAssert:    "NonNullAssert",
	KindPipe:             "Pipe",
	KindChain:            "Chain",
	KindInterpolation:    "Interpolation",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "Unknown"
}

// Node is an expression AST node.
//
// Spans are offsets into the text the expression was parsed from, shifted
// by the base offset given to the parser.
type Node interface {
	Kind() Kind
	Span() text.Span
	Children() []Node
}

type node struct {
	span text.Span
}

func (n node) Span() text.Span { return n.span }

// Empty is a blank expression.
type Empty struct{ node }

func (*Empty) Kind() Kind       { return KindEmpty }
func (*Empty) Children() []Node { return nil }

// ImplicitReceiver is the component context of a bare identifier.
// Its span is empty and sits at the identifier.
type ImplicitReceiver struct{ node }

func (*ImplicitReceiver) Kind() Kind       { return KindImplicitReceiver }
func (*ImplicitReceiver) Children() []Node { return nil }

// ThisReceiver is an explicit `this`.
type ThisReceiver struct{ node }

func (*ThisReceiver) Kind() Kind       { return KindThisReceiver }
func (*ThisReceiver) Children() []Node { return nil }

// PropertyRead is `receiver.name`.
type PropertyRead struct {
	node
	Receiver Node
	Name     string
	NameSpan text.Span
}

func (*PropertyRead) Kind() Kind         { return KindPropertyRead }
func (n *PropertyRead) Children() []Node { return []Node{n.Receiver} }

// SafePropertyRead is `receiver?.name`.
type SafePropertyRead struct {
	node
	Receiver Node
	Name     string
	NameSpan text.Span
}

func (*SafePropertyRead) Kind() Kind         { return KindSafePropertyRead }
func (n *SafePropertyRead) Children() []Node { return []Node{n.Receiver} }

// KeyedRead is `receiver[key]`, or `receiver?.[key]` when Safe.
type KeyedRead struct {
	node
	Receiver Node
	Key      Node
	Safe     bool
}

func (*KeyedRead) Kind() Kind         { return KindKeyedRead }
func (n *KeyedRead) Children() []Node { return []Node{n.Receiver, n.Key} }

// PropertyWrite is `receiver.name = value`.
type PropertyWrite struct {
	node
	Receiver Node
	Name     string
	NameSpan text.Span
	Value    Node
}

func (*PropertyWrite) Kind() Kind         { return KindPropertyWrite }
func (n *PropertyWrite) Children() []Node { return []Node{n.Receiver, n.Value} }

// KeyedWrite is `receiver[key] = value`.
type KeyedWrite struct {
	node
	Receiver Node
	Key      Node
	Value    Node
}

func (*KeyedWrite) Kind() Kind         { return KindKeyedWrite }
func (n *KeyedWrite) Children() []Node { return []Node{n.Receiver, n.Key, n.Value} }

// MethodCall is `receiver.name(args)`; a bare `name(args)` has an
// ImplicitReceiver.
type MethodCall struct {
	node
	Receiver Node
	Name     string
	NameSpan text.Span
	Args     []Node
}

func (*MethodCall) Kind() Kind { return KindMethodCall }
func (n *MethodCall) Children() []Node {
	return append([]Node{n.Receiver}, n.Args...)
}

// SafeMethodCall is `receiver?.name(args)`.
type SafeMethodCall struct {
	node
	Receiver Node
	Name     string
	NameSpan text.Span
	Args     []Node
}

func (*SafeMethodCall) Kind() Kind { return KindSafeMethodCall }
func (n *SafeMethodCall) Children() []Node {
	return append([]Node{n.Receiver}, n.Args...)
}

// FunctionCall calls the value of an arbitrary expression: `fns[0](x)`,
// `(a || b)(x)`, `a?.()`.
type FunctionCall struct {
	node
	Target Node
	Args   []Node
	Safe   bool
}

func (*FunctionCall) Kind() Kind { return KindFunctionCall }
func (n *FunctionCall) Children() []Node {
	return append([]Node{n.Target}, n.Args...)
}

// LiteralPrimitive is a string, number, boolean, null or undefined literal.
// Value is a string, float64, bool or nil.
type LiteralPrimitive struct {
	node
	Value any
}

func (*LiteralPrimitive) Kind() Kind       { return KindLiteralPrimitive }
func (*LiteralPrimitive) Children() []Node { return nil }

// LiteralArray is `[a, b]`.
type LiteralArray struct {
	node
	Elements []Node
}

func (*LiteralArray) Kind() Kind         { return KindLiteralArray }
func (n *LiteralArray) Children() []Node { return n.Elements }

// MapKey is a key of a literal map.
type MapKey struct {
	Key    string
	Quoted bool
}

// LiteralMap is `{a: 1, 'b': 2}`.
type LiteralMap struct {
	node
	Keys   []MapKey
	Values []Node
}

func (*LiteralMap) Kind() Kind         { return KindLiteralMap }
func (n *LiteralMap) Children() []Node { return n.Values }

// Conditional is `cond ? yes : no`.
type Conditional struct {
	node
	Condition Node
	TrueExp   Node
	FalseExp  Node
}

func (*Conditional) Kind() Kind { return KindConditional }
func (n *Conditional) Children() []Node {
	return []Node{n.Condition, n.TrueExp, n.FalseExp}
}

// Binary is `left op right`.
type Binary struct {
	node
	Operation string
	Left      Node
	Right     Node
}

func (*Binary) Kind() Kind         { return KindBinary }
func (n *Binary) Children() []Node { return []Node{n.Left, n.Right} }

// Unary is `-x`, `+x` or `typeof x`.
type Unary struct {
	node
	Operator string
	Expr     Node
}

func (*Unary) Kind() Kind         { return KindUnary }
func (n *Unary) Children() []Node { return []Node{n.Expr} }

// PrefixNot is `!x`.
type PrefixNot struct {
	node
	Expr Node
}

func (*PrefixNot) Kind() Kind         { return KindPrefixNot }
func (n *PrefixNot) Children() []Node { return []Node{n.Expr} }

// NonNullAssert is `x!`.
type NonNullAssert struct {
	node
	Expr Node
}

func (*NonNullAssert) Kind() Kind         { return KindNonNullAssert }
func (n *NonNullAssert) Children() []Node { return []Node{n.Expr} }

// Pipe is `expr | name:arg1:arg2`.
type Pipe struct {
	node
	Expr     Node
	Name     string
	NameSpan text.Span
	Args     []Node
}

func (*Pipe) Kind() Kind { return KindPipe }
func (n *Pipe) Children() []Node {
	return append([]Node{n.Expr}, n.Args...)
}

// Chain is a `;`-separated sequence of actions.
type Chain struct {
	node
	Expressions []Node
}

func (*Chain) Kind() Kind         { return KindChain }
func (n *Chain) Children() []Node { return n.Expressions }

// Interpolation is text with embedded `{{ expr }}` segments.
// Strings has one more element than Expressions.
type Interpolation struct {
	node
	Strings     []string
	Expressions []Node
}

func (*Interpolation) Kind() Kind         { return KindInterpolation }
func (n *Interpolation) Children() []Node { return n.Expressions }
