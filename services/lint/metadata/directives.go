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
	"strconv"
)

// DirectiveDeclaration describes a directive visible to template parsing.
type DirectiveDeclaration struct {
	Name     string   `yaml:"name" json:"name"`
	Selector string   `yaml:"selector" json:"selector" validate:"required"`
	ExportAs string   `yaml:"export_as" json:"exportAs,omitempty"`
	Inputs   []string `yaml:"inputs" json:"inputs,omitempty"`
	Outputs  []string `yaml:"outputs" json:"outputs,omitempty"`
}

// HasInput reports whether the directive declares an input named name.
func (d DirectiveDeclaration) HasInput(name string) bool {
	for _, in := range d.Inputs {
		if in == name {
			return true
		}
	}
	return false
}

// DefaultDirectives returns the common structural and attribute
// directives every template can use.
func DefaultDirectives() []DirectiveDeclaration {
	return []DirectiveDeclaration{
		{Name: "NgIf", Selector: "[ngIf]", Inputs: []string{"ngIf", "ngIfThen", "ngIfElse"}},
		{Name: "NgForOf", Selector: "[ngFor][ngForOf]", Inputs: []string{"ngForOf", "ngForTrackBy", "ngForTemplate"}},
		{Name: "NgSwitch", Selector: "[ngSwitch]", Inputs: []string{"ngSwitch"}},
		{Name: "NgSwitchCase", Selector: "[ngSwitchCase]", Inputs: []string{"ngSwitchCase"}},
		{Name: "NgSwitchDefault", Selector: "[ngSwitchDefault]"},
		{Name: "NgClass", Selector: "[ngClass]", Inputs: []string{"klass", "ngClass"}},
		{Name: "NgStyle", Selector: "[ngStyle]", Inputs: []string{"ngStyle"}},
		{Name: "NgTemplateOutlet", Selector: "[ngTemplateOutlet]", Inputs: []string{"ngTemplateOutletContext", "ngTemplateOutlet"}},
		{Name: "NgModel", Selector: "[ngModel]:not([formControlName]):not([formControl])", ExportAs: "ngModel", Inputs: []string{"name", "disabled", "ngModel", "ngModelOptions"}, Outputs: []string{"ngModelChange"}},
	}
}

// RefIDs generates reference identifiers of the form "N-ref".
//
// Description:
//
//	Each walker owns one generator and resets it per file, so identifiers
//	are deterministic for a given input. The counter is an unbounded
//	uint64 and never wraps in practice.
//
// Thread Safety: Not safe for concurrent use; owned by a single walker.
type RefIDs struct {
	n uint64
}

// Next returns the next identifier.
func (r *RefIDs) Next() string {
	r.n++
	return strconv.FormatUint(r.n, 10) + "-ref"
}

// Reset restarts the sequence.
func (r *RefIDs) Reset() {
	r.n = 0
}
