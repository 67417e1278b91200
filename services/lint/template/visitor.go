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
	"github.com/AleutianAI/nglint/services/lint/expression"
)

// Next continues the handler chain. When the chain is exhausted the walk
// descends into the node's attributes, bindings, expressions and children.
type Next func()

// Handler handles one node. Returning without calling next stops the
// remaining handlers and the descent into that node's subtree.
type Handler func(w *Walk, n Node, next Next)

// Visitor is an ordered set of handler chains keyed by node kind plus the
// expression visitor run over every binding expression.
//
// Description:
//
//	Handler sets are composed by appending: each On call adds a handler
//	after those already registered for the kind, and Merge appends whole
//	visitors in order. The base behavior at the end of every chain is the
//	depth-first pre-order descent.
//
// Thread Safety: Build once, then safe for concurrent Walk calls.
type Visitor struct {
	chains map[Kind][]Handler
	expr   *expression.Visitor
}

// NewVisitor returns an empty visitor.
func NewVisitor() *Visitor {
	return &Visitor{
		chains: make(map[Kind][]Handler),
		expr:   expression.NewVisitor(),
	}
}

// On appends h to the chain for kind.
func (v *Visitor) On(kind Kind, h Handler) *Visitor {
	v.chains[kind] = append(v.chains[kind], h)
	return v
}

// Expressions appends ev's handlers to the expression visitor.
func (v *Visitor) Expressions(ev *expression.Visitor) *Visitor {
	v.expr.Merge(ev)
	return v
}

// Merge appends the chains of others after v's own.
func (v *Visitor) Merge(others ...*Visitor) *Visitor {
	for _, o := range others {
		if o == nil {
			continue
		}
		for k, hs := range o.chains {
			v.chains[k] = append(v.chains[k], hs...)
		}
		v.expr.Merge(o.expr)
	}
	return v
}

// WalkOption configures one traversal.
type WalkOption func(*Walk)

// WithParents records child to parent element links during the walk.
func WithParents() WalkOption {
	return func(w *Walk) {
		w.parents = newParents()
	}
}

// Walk visits nodes depth-first, pre-order, and returns the finished
// traversal so callers can inspect its parent table.
func (v *Visitor) Walk(nodes []Node, opts ...WalkOption) *Walk {
	w := &Walk{visitor: v}
	for _, opt := range opts {
		opt(w)
	}
	for _, n := range nodes {
		w.Visit(n)
	}
	return w
}

// Walk is the state of one traversal.
type Walk struct {
	visitor *Visitor
	parents *Parents
	stack   []*Element
}

// Parents returns the parent table, nil unless WithParents was given.
func (w *Walk) Parents() *Parents {
	return w.parents
}

// Element returns the innermost element enclosing the current node.
func (w *Walk) Element() *Element {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

// Visit dispatches n through its handler chain.
func (w *Walk) Visit(n Node) {
	if n == nil {
		return
	}
	if w.parents != nil {
		w.parents.set(n, w.Element())
	}
	chain := w.visitor.chains[n.Kind()]
	i := 0
	var next Next
	next = func() {
		if i < len(chain) {
			h := chain[i]
			i++
			h(w, n, next)
			return
		}
		w.VisitChildren(n)
	}
	next()
}

// VisitChildren runs the base descent for n without its handlers.
func (w *Walk) VisitChildren(n Node) {
	switch n := n.(type) {
	case *Element:
		w.stack = append(w.stack, n)
		for _, a := range n.Attrs {
			w.Visit(a)
		}
		for _, r := range n.References {
			w.Visit(r)
		}
		for _, in := range n.Inputs {
			w.Visit(in)
		}
		for _, out := range n.Outputs {
			w.Visit(out)
		}
		for _, dp := range n.DirectiveProperties {
			w.Visit(dp)
		}
		for _, c := range n.Children {
			w.Visit(c)
		}
		w.stack = w.stack[:len(w.stack)-1]
	case *BoundProperty:
		w.expression(n.Value, expression.BindingProperty)
	case *DirectiveProperty:
		w.expression(n.Value, expression.BindingDirective)
	case *BoundEvent:
		w.expression(n.Handler, expression.BindingEvent)
	case *BoundText:
		if n.Value != nil {
			w.expression(n.Value, expression.BindingInterpolation)
		}
	}
}

func (w *Walk) expression(e expression.Node, kind expression.BindingKind) {
	if e == nil || w.visitor.expr.Empty() {
		return
	}
	w.visitor.expr.Walk(e, kind)
}

// Parents maps node IDs to their enclosing element for one traversal.
type Parents struct {
	byID map[int]*Element
}

func newParents() *Parents {
	return &Parents{byID: make(map[int]*Element)}
}

func (p *Parents) set(n Node, parent *Element) {
	if parent != nil {
		p.byID[n.ID()] = parent
	}
}

// Parent returns the element enclosing n, or nil for roots and nodes not
// visited.
func (p *Parents) Parent(n Node) *Element {
	if p == nil || n == nil {
		return nil
	}
	return p.byID[n.ID()]
}

// Ancestors returns the enclosing elements of n, innermost first.
func (p *Parents) Ancestors(n Node) []*Element {
	var out []*Element
	for cur := p.Parent(n); cur != nil; cur = p.Parent(cur) {
		out = append(out, cur)
	}
	return out
}

// Elements calls fn for every element of nodes, depth-first, including
// synthetic template wrappers.
func Elements(nodes []Node, fn func(*Element)) {
	for _, n := range nodes {
		el, ok := n.(*Element)
		if !ok {
			continue
		}
		fn(el)
		Elements(el.Children, fn)
	}
}
