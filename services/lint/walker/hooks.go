// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package walker

import (
	"github.com/AleutianAI/nglint/services/lint/metadata"
	"github.com/AleutianAI/nglint/services/lint/styles"
	"github.com/AleutianAI/nglint/services/lint/template"
)

// Next continues a hook chain.
type Next func()

// ClassHandler handles one decorated class. For components the end of the
// chain visits the template and styles, so a handler that does not call
// next skips them.
type ClassHandler func(c *Context, m *metadata.DecoratorMetadata, next Next)

// BindingHandler handles one @Input or @Output member. Meta is nil for
// classes without a framework decorator.
type BindingHandler func(c *Context, b metadata.PropertyBinding, meta *metadata.DecoratorMetadata, next Next)

// TemplateHook returns the visitor to run over one component template,
// or nil to skip it.
type TemplateHook func(tc *TemplateContext) *template.Visitor

// StyleHook returns the visitor to run over one component stylesheet, or
// nil to skip it.
type StyleHook func(sc *StyleContext) *styles.Visitor

// Hooks is the set of handler chains one rule registers with the walker.
type Hooks struct {
	classes   map[metadata.Kind][]ClassHandler
	inputs    []BindingHandler
	outputs   []BindingHandler
	templates []TemplateHook
	styles    []StyleHook
}

// NewHooks returns an empty hook set.
func NewHooks() *Hooks {
	return &Hooks{classes: make(map[metadata.Kind][]ClassHandler)}
}

func (h *Hooks) on(kind metadata.Kind, fn ClassHandler) *Hooks {
	h.classes[kind] = append(h.classes[kind], fn)
	return h
}

// OnComponent appends a @Component handler.
func (h *Hooks) OnComponent(fn ClassHandler) *Hooks { return h.on(metadata.KindComponent, fn) }

// OnDirective appends a @Directive handler.
func (h *Hooks) OnDirective(fn ClassHandler) *Hooks { return h.on(metadata.KindDirective, fn) }

// OnPipe appends a @Pipe handler.
func (h *Hooks) OnPipe(fn ClassHandler) *Hooks { return h.on(metadata.KindPipe, fn) }

// OnInjectable appends an @Injectable handler.
func (h *Hooks) OnInjectable(fn ClassHandler) *Hooks { return h.on(metadata.KindInjectable, fn) }

// OnInput appends an @Input handler.
func (h *Hooks) OnInput(fn BindingHandler) *Hooks {
	h.inputs = append(h.inputs, fn)
	return h
}

// OnOutput appends an @Output handler.
func (h *Hooks) OnOutput(fn BindingHandler) *Hooks {
	h.outputs = append(h.outputs, fn)
	return h
}

// OnTemplate appends a template hook.
func (h *Hooks) OnTemplate(fn TemplateHook) *Hooks {
	h.templates = append(h.templates, fn)
	return h
}

// OnStyles appends a stylesheet hook.
func (h *Hooks) OnStyles(fn StyleHook) *Hooks {
	h.styles = append(h.styles, fn)
	return h
}

// Merge appends the chains of others after h's own.
func (h *Hooks) Merge(others ...*Hooks) *Hooks {
	for _, o := range others {
		if o == nil {
			continue
		}
		for k, fns := range o.classes {
			h.classes[k] = append(h.classes[k], fns...)
		}
		h.inputs = append(h.inputs, o.inputs...)
		h.outputs = append(h.outputs, o.outputs...)
		h.templates = append(h.templates, o.templates...)
		h.styles = append(h.styles, o.styles...)
	}
	return h
}

func (h *Hooks) needsFragments() bool {
	return len(h.templates) > 0 || len(h.styles) > 0
}

func runClassChain(chain []ClassHandler, c *Context, m *metadata.DecoratorMetadata, last func()) {
	i := 0
	var next Next
	next = func() {
		if i < len(chain) {
			fn := chain[i]
			i++
			fn(c, m, next)
			return
		}
		if last != nil {
			last()
		}
	}
	next()
}

func runBindingChain(chain []BindingHandler, c *Context, b metadata.PropertyBinding, m *metadata.DecoratorMetadata) {
	i := 0
	var next Next
	next = func() {
		if i < len(chain) {
			fn := chain[i]
			i++
			fn(c, b, m, next)
		}
	}
	next()
}
