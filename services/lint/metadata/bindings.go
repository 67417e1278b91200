// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metadata

import (
	"github.com/AleutianAI/nglint/services/lint/ast"
)

// BindingKind distinguishes @Input from @Output members.
type BindingKind int

const (
	BindingInput BindingKind = iota
	BindingOutput
)

func (k BindingKind) String() string {
	if k == BindingOutput {
		return "Output"
	}
	return "Input"
}

// PropertyBinding is a member decorated with @Input or @Output.
type PropertyBinding struct {
	Kind        BindingKind
	Member      *ast.Member
	Decorator   *ast.Decorator
	Name        string
	BindingName string
}

// HasAlias reports whether the decorator renames the binding.
func (b PropertyBinding) HasAlias() bool {
	return b.BindingName != b.Name
}

// PropertyBindings returns the @Input and @Output members of cls in source
// order. The binding name is the first decorator argument when it is a
// string literal and the member name otherwise.
func PropertyBindings(cls *ast.ClassDecl) []PropertyBinding {
	if cls == nil {
		return nil
	}
	var out []PropertyBinding
	for _, m := range cls.Members {
		for _, d := range m.Decorators {
			var kind BindingKind
			switch d.Name {
			case "Input":
				kind = BindingInput
			case "Output":
				kind = BindingOutput
			default:
				continue
			}
			b := PropertyBinding{
				Kind:        kind,
				Member:      m,
				Decorator:   d,
				Name:        m.Name,
				BindingName: m.Name,
			}
			if arg := d.Arg(0); arg != nil {
				if alias, ok := arg.StringValue(); ok && alias != "" {
					b.BindingName = alias
				} else if arg.Kind == ast.ExprObject {
					if alias, ok := arg.Prop("alias").StringValue(); ok && alias != "" {
						b.BindingName = alias
					}
				}
			}
			out = append(out, b)
		}
	}
	return out
}
