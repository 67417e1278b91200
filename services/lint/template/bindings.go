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
	"strings"
)

// attrKind is the syntactic form of an attribute name.
type attrKind int

const (
	attrPlain attrKind = iota
	attrProperty
	attrEvent
	attrTwoWay
	attrReference
	attrVariable
	attrAnimation
	attrTemplate
)

// classifyAttr splits an attribute name into its binding form and key.
//
//	[x] bind-x       property
//	(x) on-x         event
//	[(x)] bindon-x   two-way
//	#x ref-x         reference
//	let-x            variable
//	@x               animation trigger
//	*x               structural directive
func classifyAttr(name string) (attrKind, string) {
	switch {
	case strings.HasPrefix(name, "*"):
		return attrTemplate, name[1:]
	case strings.HasPrefix(name, "[(") && strings.HasSuffix(name, ")]") && len(name) > 4:
		return attrTwoWay, name[2 : len(name)-2]
	case strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") && len(name) > 2:
		return attrProperty, name[1 : len(name)-1]
	case strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")") && len(name) > 2:
		return attrEvent, name[1 : len(name)-1]
	case strings.HasPrefix(name, "#") && len(name) > 1:
		return attrReference, name[1:]
	case strings.HasPrefix(name, "@") && len(name) > 1:
		return attrAnimation, name[1:]
	}
	for _, p := range []struct {
		prefix string
		kind   attrKind
	}{
		{"bindon-", attrTwoWay},
		{"bind-", attrProperty},
		{"on-", attrEvent},
		{"ref-", attrReference},
		{"let-", attrVariable},
	} {
		if strings.HasPrefix(name, p.prefix) && len(name) > len(p.prefix) {
			return p.kind, name[len(p.prefix):]
		}
	}
	return attrPlain, name
}

// domPropertyAliases maps attribute names to the DOM property they set.
var domPropertyAliases = map[string]string{
	"class":           "className",
	"for":             "htmlFor",
	"formaction":      "formAction",
	"innerHtml":       "innerHTML",
	"readonly":        "readOnly",
	"tabindex":        "tabIndex",
	"maxlength":       "maxLength",
	"colspan":         "colSpan",
	"rowspan":         "rowSpan",
	"contenteditable": "contentEditable",
}

// propertyTarget resolves a property binding key to its type, name and unit.
func propertyTarget(key string) (PropertyType, string, string) {
	if strings.HasPrefix(key, "@") {
		return PropertyAnimation, key[1:], ""
	}
	if strings.HasPrefix(key, "animate-") {
		return PropertyAnimation, key[len("animate-"):], ""
	}
	parts := strings.Split(key, ".")
	if len(parts) > 1 {
		switch parts[0] {
		case "attr":
			return PropertyAttribute, strings.Join(parts[1:], "."), ""
		case "class":
			return PropertyClass, strings.Join(parts[1:], "."), ""
		case "style":
			unit := ""
			if len(parts) > 2 {
				unit = parts[2]
			}
			return PropertyStyle, parts[1], unit
		}
	}
	if alias, ok := domPropertyAliases[key]; ok {
		return PropertyProperty, alias, ""
	}
	return PropertyProperty, key, ""
}

// eventTarget splits `window:resize` into target and name.
func eventTarget(key string) (string, string) {
	if target, name, ok := strings.Cut(key, ":"); ok {
		return target, name
	}
	return "", key
}
