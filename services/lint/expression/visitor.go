// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package expression

// BindingKind is the template construct an expression came from.
type BindingKind int

const (
	BindingInterpolation BindingKind = iota
	BindingProperty
	BindingDirective
	BindingEvent
)

func (k BindingKind) String() string {
	switch k {
	case BindingInterpolation:
		return "interpolation"
	case BindingProperty:
		return "property"
	case BindingDirective:
		return "directive"
	case BindingEvent:
		return "event"
	default:
		return "unknown"
	}
}

// Next continues the handler chain. When the chain is exhausted it
// descends into the node's children.
type Next func()

// Handler handles one node. A handler that does not call next stops the
// remaining handlers and the descent into that node's subtree.
type Handler func(w *Walk, n Node, next Next)

// Visitor is an ordered set of handler chains keyed by node kind.
//
// Thread Safety: Build once, then safe for concurrent Walk calls.
type Visitor struct {
	chains map[Kind][]Handler
}

// NewVisitor returns an empty visitor.
func NewVisitor() *Visitor {
	return &Visitor{chains: make(map[Kind][]Handler)}
}

// On appends h to the chain for kind.
func (v *Visitor) On(kind Kind, h Handler) *Visitor {
	v.chains[kind] = append(v.chains[kind], h)
	return v
}

// OnCall appends h to the chains of every call node kind.
func (v *Visitor) OnCall(h Handler) *Visitor {
	return v.On(KindMethodCall, h).On(KindSafeMethodCall, h).On(KindFunctionCall, h)
}

// Merge appends the chains of others after v's own, preserving order.
func (v *Visitor) Merge(others ...*Visitor) *Visitor {
	for _, o := range others {
		if o == nil {
			continue
		}
		for k, hs := range o.chains {
			v.chains[k] = append(v.chains[k], hs...)
		}
	}
	return v
}

// Empty reports whether no handler is registered.
func (v *Visitor) Empty() bool {
	return v == nil || len(v.chains) == 0
}

// Walk visits root depth-first, pre-order.
func (v *Visitor) Walk(root Node, binding BindingKind) {
	if root == nil {
		return
	}
	w := &Walk{visitor: v, Binding: binding}
	w.Visit(root)
}

// Walk is the state of one traversal.
type Walk struct {
	visitor *Visitor
	// Binding is the construct the root expression belongs to.
	Binding BindingKind
	stack   []Node
}

// Visit dispatches n through its handler chain.
func (w *Walk) Visit(n Node) {
	if n == nil {
		return
	}
	var chain []Handler
	if w.visitor != nil {
		chain = w.visitor.chains[n.Kind()]
	}
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

// VisitChildren descends into the children of n without running n's
// own handlers.
func (w *Walk) VisitChildren(n Node) {
	w.stack = append(w.stack, n)
	for _, c := range n.Children() {
		w.Visit(c)
	}
	w.stack = w.stack[:len(w.stack)-1]
}

// Parent returns the node whose children are being visited, or nil at
// the root.
func (w *Walk) Parent() Node {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

// Depth returns the nesting depth of the current node.
func (w *Walk) Depth() int {
	return len(w.stack)
}

// IsExemptCall reports whether a call node is the `$any(...)` type-cast
// escape called on the component instance, either implicitly or through
// `this`.
func IsExemptCall(n Node) bool {
	switch c := n.(type) {
	case *MethodCall:
		return c.Name == "$any" && isImplicit(c.Receiver)
	case *SafeMethodCall:
		return c.Name == "$any" && isImplicit(c.Receiver)
	default:
		return false
	}
}

func isImplicit(n Node) bool {
	switch n.(type) {
	case *ImplicitReceiver, *ThisReceiver:
		return true
	}
	return false
}
