// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package selector

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/AleutianAI/nglint/services/lint/template"
)

// Document is a static DOM mirror of a component template rooted at a
// synthetic host element.
//
// Description:
//
//	ng-container and ng-template elements are not rendered, so their
//	children are attached to the nearest rendered ancestor. An element's
//	class attribute merges its static classes with `[class.x]` binding
//	names; `[attr.x]` bindings add an empty attribute x. The dynamic flags
//	record whether any element sets classes, ids or attributes through
//	bindings whose values cannot be known statically.
type Document struct {
	Root *html.Node

	DynamicClass     bool
	DynamicID        bool
	DynamicAttribute bool
}

// NewDocument mirrors nodes.
func NewDocument(nodes []template.Node) *Document {
	d := &Document{Root: &html.Node{Type: html.ElementNode, Data: HostTag}}
	d.appendNodes(d.Root, nodes)
	return d
}

func (d *Document) appendNodes(parent *html.Node, nodes []template.Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *template.Element:
			d.scanDynamic(n)
			name := strings.ToLower(n.Name)
			if name == "ng-container" || name == "ng-template" {
				d.appendNodes(parent, n.Children)
				continue
			}
			el := &html.Node{Type: html.ElementNode, Data: name, Attr: mirrorAttrs(n)}
			parent.AppendChild(el)
			d.appendNodes(el, n.Children)
		case *template.Text:
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: n.Value})
		case *template.BoundText:
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: n.Source})
		}
	}
}

func mirrorAttrs(el *template.Element) []html.Attribute {
	var attrs []html.Attribute
	var classes []string
	for _, a := range el.Attrs {
		name := strings.ToLower(a.Name)
		if name == "class" {
			classes = append(classes, strings.Fields(a.Value)...)
			continue
		}
		attrs = append(attrs, html.Attribute{Key: name, Val: a.Value})
	}
	for _, in := range el.Inputs {
		switch in.Type {
		case template.PropertyClass:
			classes = append(classes, in.Name)
		case template.PropertyAttribute:
			attrs = append(attrs, html.Attribute{Key: strings.ToLower(in.Name)})
		}
	}
	if len(classes) > 0 {
		attrs = append(attrs, html.Attribute{Key: "class", Val: strings.Join(classes, " ")})
	}
	return attrs
}

func (d *Document) scanDynamic(el *template.Element) {
	for _, in := range el.Inputs {
		switch in.Type {
		case template.PropertyAttribute:
			d.DynamicAttribute = true
			if in.Name == "id" {
				d.DynamicID = true
			}
		case template.PropertyProperty:
			switch in.Name {
			case "className", "class", "ngClass":
				d.DynamicClass = true
			case "id":
				d.DynamicID = true
			}
		}
	}
	for _, dp := range el.DirectiveProperties {
		switch dp.Name {
		case "ngClass", "klass":
			d.DynamicClass = true
		case "id":
			d.DynamicID = true
		}
	}
}
