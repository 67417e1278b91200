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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/html"

	"github.com/AleutianAI/nglint/services/lint/expression"
	"github.com/AleutianAI/nglint/services/lint/metadata"
	"github.com/AleutianAI/nglint/services/lint/text"
)

// ErrTemplateParse wraps every template parse failure.
var ErrTemplateParse = errors.New("template parse failed")

// ParseOptions configures one template parse.
type ParseOptions struct {
	// Directives drive DirectiveProperty classification. Nil selects
	// metadata.DefaultDirectives.
	Directives []metadata.DirectiveDeclaration

	// Interpolation overrides the `{{ }}` delimiters.
	Interpolation expression.InterpolationConfig

	// SourceName labels the template in logs and errors.
	SourceName string
}

// Result is the outcome of a parse: either Nodes or Err.
type Result struct {
	Nodes []Node
	Err   error
}

// OK reports whether the parse succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Parser turns template text into nodes. Implementations never panic;
// failures are reported through Result.Err.
type Parser interface {
	Parse(ctx context.Context, src string, opts ParseOptions) Result
}

// ParserOption configures a TreeSitterParser.
type ParserOption func(*TreeSitterParser)

// WithParserLogger sets the logger for parse diagnostics.
func WithParserLogger(logger *slog.Logger) ParserOption {
	return func(p *TreeSitterParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// TreeSitterParser parses templates with the tree-sitter HTML grammar and
// classifies binding syntax on top of it.
//
// Description:
//
//	The HTML grammar supplies elements, attributes and their spans. Text
//	between child elements becomes Text or BoundText nodes, attribute names
//	are classified into static attributes, property and event bindings,
//	references and structural directives, and binding values are parsed
//	with the expression package.
//
// Thread Safety:
//
//	Safe for concurrent use. Each Parse call creates its own tree-sitter
//	parser instance.
type TreeSitterParser struct {
	logger *slog.Logger
}

// NewTreeSitterParser returns a parser with the given options.
func NewTreeSitterParser(opts ...ParserOption) *TreeSitterParser {
	p := &TreeSitterParser{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses src.
//
// Inputs:
//   - ctx: Context for cancellation and tracing.
//   - src: Template text.
//   - opts: Directives, delimiters and a source label.
//
// Outputs:
//   - Result: Nodes on success. Err wraps ErrTemplateParse when the
//     markup or any binding expression is invalid, or the context error.
func (p *TreeSitterParser) Parse(ctx context.Context, src string, opts ParseOptions) (result Result) {
	ctx, span := startTemplateSpan(ctx, opts.SourceName, len(src))
	defer span.End()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = Result{Err: fmt.Errorf("%w: %s: panic: %v", ErrTemplateParse, opts.SourceName, r)}
		}
		recordTemplateParse(time.Since(start), result.Err)
	}()

	if err := ctx.Err(); err != nil {
		return Result{Err: fmt.Errorf("template parse canceled: %w", err)}
	}

	directives := opts.Directives
	if directives == nil {
		directives = metadata.DefaultDirectives()
	}

	parser := sitter.NewParser()
	parser.SetLanguage(html.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, []byte(src))
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %s: %v", ErrTemplateParse, opts.SourceName, err)}
	}
	defer tree.Close()

	b := &builder{
		src:     src,
		opts:    opts,
		matcher: newDirectiveMatcher(directives, p.logger),
	}
	root := tree.RootNode()
	if root.HasError() {
		p.logger.Debug("template markup contains syntax errors",
			slog.String("source", opts.SourceName))
	}
	nodes := b.content(root, 0, len(src))

	if len(b.errs) > 0 {
		return Result{Err: fmt.Errorf("%w: %s: %w", ErrTemplateParse, opts.SourceName, errors.Join(b.errs...))}
	}
	return Result{Nodes: nodes}
}

// =============================================================================
// Tree Building
// =============================================================================

type builder struct {
	src     string
	opts    ParseOptions
	matcher *directiveMatcher
	nextID  int
	errs    []error
}

func (b *builder) id() int {
	b.nextID++
	return b.nextID
}

func (b *builder) fail(err error) {
	b.errs = append(b.errs, err)
}

// content builds the children of a container whose content spans
// [start, end). Text is taken from the gaps between child elements so its
// spans include surrounding whitespace exactly as written.
func (b *builder) content(container *sitter.Node, start, end int) []Node {
	var out []Node
	pos := start
	for _, child := range contentChildren(container) {
		cs, ce := int(child.StartByte()), int(child.EndByte())
		switch child.Type() {
		case "element", "script_element", "style_element":
			if t := b.textRun(pos, cs); t != nil {
				out = append(out, t)
			}
			if el := b.element(child); el != nil {
				out = append(out, el)
			}
			pos = ce
		case "comment", "doctype":
			if t := b.textRun(pos, cs); t != nil {
				out = append(out, t)
			}
			pos = ce
		}
	}
	if t := b.textRun(pos, end); t != nil {
		out = append(out, t)
	}
	return out
}

// contentChildren lists the children of n, flattening ERROR nodes and
// dropping tags.
func contentChildren(n *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "start_tag", "end_tag", "self_closing_tag":
		case "ERROR":
			out = append(out, contentChildren(child)...)
		default:
			out = append(out, child)
		}
	}
	return out
}

func (b *builder) textRun(start, end int) Node {
	if start >= end || end > len(b.src) {
		return nil
	}
	raw := b.src[start:end]
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	interp, err := expression.ParseInterpolation(raw, start, b.opts.Interpolation)
	if err != nil {
		b.fail(err)
		return nil
	}
	span := text.NewSpan(start, end)
	if interp != nil {
		return &BoundText{base: base{id: b.id(), span: span}, Value: interp, Source: raw}
	}
	return &Text{base: base{id: b.id(), span: span}, Value: raw}
}

// rawAttr is an attribute as written.
type rawAttr struct {
	name      string
	nameSpan  text.Span
	value     string
	valueSpan text.Span
	span      text.Span
}

func (b *builder) element(n *sitter.Node) Node {
	var tag, endTag *sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "start_tag", "self_closing_tag":
			if tag == nil {
				tag = child
			}
		case "end_tag":
			endTag = child
		}
	}
	if tag == nil {
		return nil
	}

	el := &Element{
		base:      base{id: b.id(), span: nodeSpan(n)},
		StartSpan: nodeSpan(tag),
	}
	var attrs []rawAttr
	for i := 0; i < int(tag.ChildCount()); i++ {
		child := tag.Child(i)
		switch child.Type() {
		case "tag_name":
			el.Name = b.slice(nodeSpan(child))
		case "attribute":
			attrs = append(attrs, b.rawAttr(child))
		}
	}
	if el.Name == "" {
		return nil
	}

	var templateAttr *rawAttr
	var matchable [][2]string
	for i := range attrs {
		a := attrs[i]
		kind, key := classifyAttr(a.name)
		if kind == attrTemplate {
			if templateAttr == nil {
				templateAttr = &attrs[i]
			}
			continue
		}
		matchable = append(matchable, b.addAttr(el, kind, key, a)...)
	}
	b.bindDirectives(el, matchable, false)

	if n.Type() == "element" {
		contentStart := int(tag.EndByte())
		contentEnd := int(n.EndByte())
		if endTag != nil {
			contentEnd = int(endTag.StartByte())
		}
		el.Children = b.content(n, contentStart, contentEnd)
	}

	if templateAttr != nil {
		return b.wrapTemplate(el, *templateAttr)
	}
	return el
}

func (b *builder) rawAttr(n *sitter.Node) rawAttr {
	a := rawAttr{span: nodeSpan(n)}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "attribute_name":
			a.nameSpan = nodeSpan(child)
			a.name = b.slice(a.nameSpan)
		case "attribute_value":
			a.valueSpan = nodeSpan(child)
			a.value = b.slice(a.valueSpan)
		case "quoted_attribute_value":
			s := nodeSpan(child)
			a.valueSpan = text.NewSpan(s.Start+1, s.End-1)
			if a.valueSpan.End < a.valueSpan.Start {
				a.valueSpan.End = a.valueSpan.Start
			}
			a.value = b.slice(a.valueSpan)
		}
	}
	if a.valueSpan == (text.Span{}) {
		a.valueSpan = text.NewSpan(a.span.End, a.span.End)
	}
	return a
}

// addAttr classifies one attribute onto el and returns the name/value
// pairs directive selectors can match.
func (b *builder) addAttr(el *Element, kind attrKind, key string, a rawAttr) [][2]string {
	switch kind {
	case attrReference:
		el.References = append(el.References, &Reference{
			base:  base{id: b.id(), span: a.span},
			Name:  key,
			Value: a.value,
		})
		return nil
	case attrVariable:
		el.Variables = append(el.Variables, Variable{Name: key, Value: a.value, Span: a.span})
		return nil
	case attrEvent:
		b.addEvent(el, key, a, false)
		return [][2]string{{key, a.value}}
	case attrTwoWay:
		b.addProperty(el, key, a, false)
		b.addEvent(el, key+"Change", a, true)
		return [][2]string{{key, a.value}, {key + "Change", a.value}}
	case attrProperty:
		b.addProperty(el, key, a, false)
		return [][2]string{{key, a.value}}
	case attrAnimation:
		b.addProperty(el, "@"+key, a, false)
		return nil
	}

	if strings.HasPrefix(a.name, "i18n") {
		return nil
	}
	if _, segs := expression.SplitInterpolation(a.value, a.valueSpan.Start, b.opts.Interpolation); len(segs) > 0 {
		b.addProperty(el, a.name, a, true)
		return [][2]string{{a.name, a.value}}
	}
	el.Attrs = append(el.Attrs, &Attr{
		base:      base{id: b.id(), span: a.span},
		Name:      a.name,
		Value:     a.value,
		NameSpan:  a.nameSpan,
		ValueSpan: a.valueSpan,
	})
	return [][2]string{{a.name, a.value}}
}

func (b *builder) addProperty(el *Element, key string, a rawAttr, interpolated bool) {
	typ, name, unit := propertyTarget(key)
	prop := &BoundProperty{
		base:         base{id: b.id(), span: a.span},
		Name:         name,
		Type:         typ,
		Unit:         unit,
		Source:       a.value,
		KeySpan:      a.nameSpan,
		ValueSpan:    a.valueSpan,
		Interpolated: interpolated,
		rawName:      key,
	}
	var err error
	if interpolated {
		var interp *expression.Interpolation
		interp, err = expression.ParseInterpolation(a.value, a.valueSpan.Start, b.opts.Interpolation)
		if interp != nil {
			prop.Value = interp
		}
	} else {
		prop.Value, err = expression.ParseBinding(a.value, a.valueSpan.Start)
	}
	if err != nil {
		b.fail(err)
		return
	}
	el.Inputs = append(el.Inputs, prop)
}

func (b *builder) addEvent(el *Element, key string, a rawAttr, twoWay bool) {
	target, name := eventTarget(key)
	source := a.value
	if twoWay {
		source = a.value + "=$event"
	}
	handler, err := expression.ParseAction(source, a.valueSpan.Start)
	if err != nil {
		b.fail(err)
		return
	}
	el.Outputs = append(el.Outputs, &BoundEvent{
		base:      base{id: b.id(), span: a.span},
		Name:      name,
		Target:    target,
		Handler:   handler,
		Source:    a.value,
		KeySpan:   a.nameSpan,
		ValueSpan: a.valueSpan,
		TwoWay:    twoWay,
	})
}

// wrapTemplate builds the synthetic ng-template for a `*dir` attribute.
func (b *builder) wrapTemplate(host *Element, a rawAttr) Node {
	key := strings.TrimPrefix(a.name, "*")
	bindings, err := expression.ParseTemplateBindings(key, a.nameSpan, a.value, a.valueSpan.Start)
	if err != nil {
		b.fail(err)
		return host
	}

	tpl := &Element{
		base:      base{id: b.id(), span: host.span},
		Name:      "ng-template",
		StartSpan: a.span,
		Synthetic: true,
		Children:  []Node{host},
	}
	var matchable [][2]string
	for _, tb := range bindings {
		switch {
		case tb.IsVariable:
			tpl.Variables = append(tpl.Variables, Variable{Name: tb.Key, Value: tb.VariableValue, Span: tb.Span})
		case tb.Value == nil:
			tpl.Attrs = append(tpl.Attrs, &Attr{
				base:      base{id: b.id(), span: tb.Span},
				Name:      tb.Key,
				NameSpan:  tb.KeySpan,
				ValueSpan: text.NewSpan(tb.KeySpan.End, tb.KeySpan.End),
			})
			matchable = append(matchable, [2]string{tb.Key, ""})
		default:
			vs := tb.Value.Span()
			tpl.Inputs = append(tpl.Inputs, &BoundProperty{
				base:      base{id: b.id(), span: tb.Span},
				Name:      tb.Key,
				Type:      PropertyProperty,
				Value:     tb.Value,
				Source:    b.slice(vs),
				KeySpan:   tb.KeySpan,
				ValueSpan: vs,
				rawName:   tb.Key,
			})
			matchable = append(matchable, [2]string{tb.Key, ""})
		}
	}
	b.bindDirectives(tpl, matchable, true)
	return tpl
}

func (b *builder) slice(s text.Span) string {
	return s.Slice(b.src)
}

func nodeSpan(n *sitter.Node) text.Span {
	return text.NewSpan(int(n.StartByte()), int(n.EndByte()))
}
