// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/AleutianAI/nglint/services/lint/walker"
)

// Registry holds rules by name.
//
// Thread Safety: Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry creates a registry holding rules.
//
// Outputs:
//   - *Registry: The registry.
//   - error: ErrDuplicateRule when two rules share a name.
func NewRegistry(rules ...Rule) (*Registry, error) {
	r := &Registry{rules: make(map[string]Rule)}
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Builtin returns every rule shipped with nglint.
func Builtin() []Rule {
	return []Rule{
		ComponentClassSuffix{},
		DirectiveClassSuffix{},
		NoInputPrefix{},
		NoOutputOnPrefix{},
		NoOutputPrefix{},
		NoUnusedCSS{},
		RelativeURLPrefix{},
		TemplateNoCallExpression{},
		TemplateNoThis{},
		TemplatePreferPropertyBinding{},
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the registry of builtin rules.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		r, err := NewRegistry(Builtin()...)
		if err != nil {
			panic(fmt.Sprintf("builtin rules: %v", err))
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Register adds rule.
func (r *Registry) Register(rule Rule) error {
	name := rule.Metadata().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, name)
	}
	r.rules[name] = rule
	return nil
}

// Get returns the rule named name.
func (r *Registry) Get(name string) (Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRule, name)
	}
	return rule, nil
}

// Metadata lists every rule's metadata sorted by name.
func (r *Registry) Metadata() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule.Metadata())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Passes builds walker passes for the selected rules, sorted by name.
//
// Description:
//
//	A rule whose option count is outside its bounds is disabled and
//	logged at debug level rather than reported as an error.
//
// Inputs:
//   - selected: Rule name to options.
//   - logger: Logger for disabled rules. Nil uses slog.Default.
//
// Outputs:
//   - []walker.Pass: One pass per enabled rule.
//   - error: ErrUnknownRule or ErrInvalidOptions.
func (r *Registry) Passes(selected map[string]Options, logger *slog.Logger) ([]walker.Pass, error) {
	if logger == nil {
		logger = slog.Default()
	}
	names := make([]string, 0, len(selected))
	for name := range selected {
		names = append(names, name)
	}
	sort.Strings(names)

	var passes []walker.Pass
	for _, name := range names {
		rule, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		opts := selected[name]
		if !rule.Metadata().Accepts(len(opts)) {
			logger.Debug("rule disabled by option count",
				slog.String("rule", name),
				slog.Int("options", len(opts)))
			continue
		}
		hooks, err := rule.Hooks(opts)
		if err != nil {
			return nil, err
		}
		passes = append(passes, walker.Pass{Rule: name, Hooks: hooks})
	}
	return passes, nil
}
