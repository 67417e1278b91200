// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package styles

// Next continues a rule handler chain. When the chain is exhausted the
// walk visits the rule's selectors.
type Next func()

// RuleHandler handles one rule. Returning without calling next skips the
// rule's selectors.
type RuleHandler func(w *Walk, r *Rule, next Next)

// SelectorNext continues a selector handler chain and returns the verdict
// of the remaining handlers. The end of the chain reports used.
type SelectorNext func() bool

// SelectorHandler decides whether one selector is used. A handler may
// answer directly or defer to next.
type SelectorHandler func(w *Walk, s *Selector, next SelectorNext) bool

// Visitor holds the rule and selector handler chains.
//
// Description:
//
//	A rule is used iff at least one of its selectors is used. Rule
//	handlers typically call next first and then consult RuleUsed to
//	report dead rules.
//
// Thread Safety: Build once, then safe for concurrent Walk calls.
type Visitor struct {
	rules     []RuleHandler
	selectors []SelectorHandler
}

// NewVisitor returns an empty visitor.
func NewVisitor() *Visitor {
	return &Visitor{}
}

// OnRule appends a rule handler.
func (v *Visitor) OnRule(h RuleHandler) *Visitor {
	v.rules = append(v.rules, h)
	return v
}

// OnSelector appends a selector handler.
func (v *Visitor) OnSelector(h SelectorHandler) *Visitor {
	v.selectors = append(v.selectors, h)
	return v
}

// Merge appends the chains of others after v's own.
func (v *Visitor) Merge(others ...*Visitor) *Visitor {
	for _, o := range others {
		if o == nil {
			continue
		}
		v.rules = append(v.rules, o.rules...)
		v.selectors = append(v.selectors, o.selectors...)
	}
	return v
}

// Empty reports whether no handler is registered.
func (v *Visitor) Empty() bool {
	return v == nil || (len(v.rules) == 0 && len(v.selectors) == 0)
}

// Walk visits every rule of sheet in source order, nested rules after
// their parent.
func (v *Visitor) Walk(sheet *Stylesheet) *Walk {
	w := &Walk{visitor: v, Sheet: sheet, used: make(map[*Selector]bool)}
	if sheet == nil {
		return w
	}
	for _, r := range sheet.Rules {
		w.Visit(r)
	}
	return w
}

// Walk is the state of one traversal.
type Walk struct {
	visitor *Visitor
	Sheet   *Stylesheet
	used    map[*Selector]bool
}

// Visit dispatches r through the rule chain.
func (w *Walk) Visit(r *Rule) {
	chain := w.visitor.rules
	i := 0
	var next Next
	next = func() {
		if i < len(chain) {
			h := chain[i]
			i++
			h(w, r, next)
			return
		}
		w.VisitSelectors(r)
	}
	next()
}

// VisitSelectors runs the selector chain over every selector of r.
func (w *Walk) VisitSelectors(r *Rule) {
	for _, s := range r.Selectors {
		w.used[s] = w.VisitSelector(s)
	}
}

// VisitSelector returns the verdict of the selector chain for s.
func (w *Walk) VisitSelector(s *Selector) bool {
	chain := w.visitor.selectors
	i := 0
	var next SelectorNext
	next = func() bool {
		if i < len(chain) {
			h := chain[i]
			i++
			return h(w, s, next)
		}
		return true
	}
	return next()
}

// Used reports the verdict recorded for s. Selectors not visited count as
// used.
func (w *Walk) Used(s *Selector) bool {
	used, ok := w.used[s]
	return !ok || used
}

// RuleUsed reports whether at least one selector of r is used.
func (w *Walk) RuleUsed(r *Rule) bool {
	for _, s := range r.Selectors {
		if w.Used(s) {
			return true
		}
	}
	return false
}
