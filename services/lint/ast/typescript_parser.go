// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/AleutianAI/nglint/services/lint/text"
)

const (
	// maxExprDepth bounds recursion when converting decorator arguments.
	maxExprDepth = 32
)

// TypeScriptParserOption configures a TypeScriptParser instance.
type TypeScriptParserOption func(*TypeScriptParser)

// WithMaxFileSize sets the maximum file size the parser will accept.
//
// Parameters:
//   - bytes: Maximum file size in bytes. Must be positive.
//
// Example:
//
//	parser := NewTypeScriptParser(WithMaxFileSize(5 * 1024 * 1024)) // 5MB limit
func WithMaxFileSize(bytes int64) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		if bytes > 0 {
			p.maxFileSize = bytes
		}
	}
}

// WithLogger sets the logger used for parse warnings.
func WithLogger(logger *slog.Logger) TypeScriptParserOption {
	return func(p *TypeScriptParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// TypeScriptParser parses TypeScript sources into a SourceFile.
//
// Description:
//
//	TypeScriptParser uses tree-sitter to parse TypeScript source files and
//	extract class declarations, their decorators and their members. Each
//	Parse call creates its own tree-sitter parser instance internally.
//
// Thread Safety:
//
//	TypeScriptParser instances are safe for concurrent use. Multiple goroutines
//	may call Parse simultaneously on the same TypeScriptParser instance.
//
// Example:
//
//	parser := NewTypeScriptParser()
//	file, err := parser.Parse(ctx, []byte("@Component({selector: 'a'}) class A {}"), "a.ts")
//	if err != nil {
//	    return err
//	}
//	for _, cls := range file.Classes {
//	    fmt.Println(cls.Name)
//	}
type TypeScriptParser struct {
	maxFileSize int64
	logger      *slog.Logger
}

// NewTypeScriptParser creates a new TypeScriptParser with the given options.
//
// Inputs:
//   - opts: Optional configuration functions (WithMaxFileSize, WithLogger)
//
// Outputs:
//   - *TypeScriptParser: Configured parser instance, never nil
func NewTypeScriptParser(opts ...TypeScriptParserOption) *TypeScriptParser {
	p := &TypeScriptParser{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts class declarations from TypeScript source code.
//
// Description:
//
//	Parse uses tree-sitter to parse the provided source and collect every
//	class declaration with its decorators (including decorators attached to
//	the enclosing export statement) and members. The parser is
//	error-tolerant and returns partial results for syntactically invalid code.
//
// Inputs:
//   - ctx: Context for cancellation. Checked before and after parsing.
//   - content: Raw TypeScript source bytes. Must be valid UTF-8.
//   - filePath: Path of the file. `.tsx` selects the TSX grammar.
//
// Outputs:
//   - *SourceFile: Extracted classes. Never nil on success.
//   - error: Non-nil for complete failures:
//   - ErrFileTooLarge: Content exceeds maxFileSize
//   - ErrInvalidContent: Content is not valid UTF-8
//   - Context errors: Context was canceled or timed out
//
// Thread Safety:
//
//	This method is safe for concurrent use.
func (p *TypeScriptParser) Parse(ctx context.Context, content []byte, filePath string) (*SourceFile, error) {
	ctx, span := startParseSpan(ctx, filePath, len(content))
	defer span.End()

	start := time.Now()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	if int64(len(content)) > p.maxFileSize {
		recordParseMetrics(time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: size %d exceeds limit %d", ErrFileTooLarge, len(content), p.maxFileSize)
	}

	if len(content) > WarnFileSize {
		p.logger.Warn("parsing large file",
			slog.String("file", filePath),
			slog.Int("size_bytes", len(content)))
	}

	if !utf8.Valid(content) {
		recordParseMetrics(time.Since(start), 0, false)
		return nil, fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidContent)
	}

	hash := sha256.Sum256(content)

	parser := sitter.NewParser()
	if strings.HasSuffix(filePath, ".tsx") {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		recordParseMetrics(time.Since(start), 0, false)
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		recordParseMetrics(time.Since(start), 0, false)
		return nil, fmt.Errorf("parse canceled after tree-sitter: %w", err)
	}

	file := &SourceFile{
		Path:    filePath,
		Content: string(content),
		Hash:    hex.EncodeToString(hash[:]),
		Classes: make([]*ClassDecl, 0),
		Errors:  make([]string, 0),
	}

	root := tree.RootNode()
	if root == nil {
		file.Errors = append(file.Errors, "tree-sitter returned nil root node")
		return file, nil
	}
	if root.HasError() {
		file.Errors = append(file.Errors, "source contains syntax errors")
	}

	p.collectClasses(root, content, file)

	setParseSpanResult(span, len(file.Classes), len(file.Errors))
	recordParseMetrics(time.Since(start), len(file.Classes), true)

	return file, nil
}

// collectClasses walks statement containers looking for class declarations.
// Decorators of an export statement precede its class declaration as siblings.
func (p *TypeScriptParser) collectClasses(node *sitter.Node, content []byte, file *SourceFile) {
	var pending []*Decorator
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "decorator":
			if d := p.convertDecorator(child, content); d != nil {
				pending = append(pending, d)
			}
		case "class_declaration", "abstract_class_declaration":
			if cls := p.processClass(child, content, pending); cls != nil {
				file.Classes = append(file.Classes, cls)
			}
			pending = nil
		case "export_statement":
			p.collectClasses(child, content, file)
			pending = nil
		case "internal_module", "module", "statement_block", "ambient_declaration", "expression_statement":
			p.collectClasses(child, content, file)
			pending = nil
		default:
			if child.IsNamed() && child.Type() != "comment" {
				pending = nil
			}
		}
	}
	if len(pending) > 0 && node.Type() == "export_statement" {
		p.logger.Debug("decorators without class",
			slog.String("file", file.Path),
			slog.Int("count", len(pending)))
	}
}

// processClass extracts a class declaration.
func (p *TypeScriptParser) processClass(node *sitter.Node, content []byte, decorators []*Decorator) *ClassDecl {
	cls := &ClassDecl{
		Span:       nodeSpan(node),
		Abstract:   node.Type() == "abstract_class_declaration",
		Decorators: decorators,
	}

	var body *sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "decorator":
			if d := p.convertDecorator(child, content); d != nil {
				cls.Decorators = append(cls.Decorators, d)
			}
		case "type_identifier":
			cls.Name = nodeText(child, content)
			cls.NameSpan = nodeSpan(child)
		case "class_heritage":
			cls.Extends, cls.Implements = p.extractClassHeritage(child, content)
		case "class_body":
			body = child
		}
	}

	if cls.Name == "" {
		return nil
	}
	if body != nil {
		cls.Members = p.extractClassMembers(body, content)
	}
	return cls
}

// extractClassMembers extracts fields, methods and accessors from a class body.
// Method decorators are siblings preceding the method_definition; field
// decorators are children of the field node.
func (p *TypeScriptParser) extractClassMembers(body *sitter.Node, content []byte) []*Member {
	members := make([]*Member, 0, body.NamedChildCount())
	var pending []*Decorator
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "decorator":
			if d := p.convertDecorator(child, content); d != nil {
				pending = append(pending, d)
			}
		case "method_definition":
			if m := p.processMember(child, content, pending, true); m != nil {
				members = append(members, m)
			}
			pending = nil
		case "public_field_definition":
			if m := p.processMember(child, content, pending, false); m != nil {
				members = append(members, m)
			}
			pending = nil
		case "comment", ";":
		default:
			if child.IsNamed() {
				pending = nil
			}
		}
	}
	return members
}

// processMember extracts one method, accessor or field.
func (p *TypeScriptParser) processMember(node *sitter.Node, content []byte, decorators []*Decorator, method bool) *Member {
	m := &Member{
		Span:       nodeSpan(node),
		Kind:       MemberField,
		Decorators: append([]*Decorator(nil), decorators...),
	}
	if method {
		m.Kind = MemberMethod
	}

	nameNode := node.ChildByFieldName("name")
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "decorator":
			if d := p.convertDecorator(child, content); d != nil {
				m.Decorators = append(m.Decorators, d)
			}
		case "static":
			m.Static = true
		case "get":
			if method && !child.IsNamed() {
				m.Kind = MemberGetter
			}
		case "set":
			if method && !child.IsNamed() {
				m.Kind = MemberSetter
			}
		case "property_identifier", "private_property_identifier":
			if nameNode == nil {
				nameNode = child
			}
		}
	}

	if nameNode == nil {
		return nil
	}
	m.Name = strings.Trim(nodeText(nameNode, content), `"'`)
	m.NameSpan = nodeSpan(nameNode)
	return m
}

func (p *TypeScriptParser) extractClassHeritage(node *sitter.Node, content []byte) (extends string, implements []string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "extends_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				// Tree-sitter uses "identifier" for simple class names, "type_identifier" for type references
				switch gc.Type() {
				case "identifier", "type_identifier", "generic_type", "member_expression":
					extends = nodeText(gc, content)
				}
			}
		case "implements_clause":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "type_identifier", "nested_type_identifier":
					implements = append(implements, nodeText(gc, content))
				case "generic_type":
					if name := gc.ChildByFieldName("name"); name != nil {
						implements = append(implements, nodeText(name, content))
					} else {
						implements = append(implements, nodeText(gc, content))
					}
				}
			}
		}
	}
	return
}

// convertDecorator converts a decorator node.
//
// Description:
//
//	For `@Injectable` returns a decorator with no arguments; for
//	`@Component({...})` the callee name and converted arguments; for
//	`@ng.Component()` the name is the last member segment.
func (p *TypeScriptParser) convertDecorator(node *sitter.Node, content []byte) *Decorator {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		target := unwrapParens(child)
		d := &Decorator{Span: nodeSpan(node)}
		switch target.Type() {
		case "identifier", "member_expression":
			callee := p.convertExpr(target, content, 0)
			d.QualifiedName = callee.QualifiedName()
			d.Name = callee.LastName()
		case "call_expression":
			d.Called = true
			callee := p.convertExpr(target.ChildByFieldName("function"), content, 0)
			d.QualifiedName = callee.QualifiedName()
			d.Name = callee.LastName()
			d.Args = p.convertArgs(target.ChildByFieldName("arguments"), content, 0)
		default:
			continue
		}
		if d.Name == "" {
			return nil
		}
		return d
	}
	return nil
}

func (p *TypeScriptParser) convertArgs(node *sitter.Node, content []byte, depth int) []*Expr {
	if node == nil {
		return nil
	}
	args := make([]*Expr, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		args = append(args, p.convertExpr(child, content, depth+1))
	}
	return args
}

// convertExpr converts a tree-sitter expression into an Expr.
// Unknown node types become ExprOther with their text preserved.
func (p *TypeScriptParser) convertExpr(node *sitter.Node, content []byte, depth int) *Expr {
	if node == nil {
		return &Expr{Kind: ExprOther}
	}
	e := &Expr{
		Kind: ExprOther,
		Span: nodeSpan(node),
		Text: nodeText(node, content),
	}
	if depth > maxExprDepth {
		return e
	}

	switch node.Type() {
	case "string":
		e.Kind = ExprString
		e.ValueSpan = innerSpan(node)
		e.Value = string(content[e.ValueSpan.Start:e.ValueSpan.End])
	case "template_string":
		e.Kind = ExprTemplate
		e.ValueSpan = innerSpan(node)
		e.Value = string(content[e.ValueSpan.Start:e.ValueSpan.End])
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if node.NamedChild(i).Type() == "template_substitution" {
				e.Substitutions = true
			}
		}
	case "number":
		e.Kind = ExprNumber
		e.Value = e.Text
	case "true", "false":
		e.Kind = ExprBool
		e.Value = e.Text
	case "null", "undefined":
		e.Kind = ExprNull
	case "identifier", "property_identifier", "shorthand_property_identifier":
		e.Kind = ExprIdentifier
		e.Value = e.Text
	case "member_expression":
		e.Kind = ExprMember
		e.Object = p.convertExpr(node.ChildByFieldName("object"), content, depth+1)
		if prop := node.ChildByFieldName("property"); prop != nil {
			e.Value = nodeText(prop, content)
		}
	case "call_expression":
		e.Kind = ExprCall
		e.Object = p.convertExpr(node.ChildByFieldName("function"), content, depth+1)
		e.Elements = p.convertArgs(node.ChildByFieldName("arguments"), content, depth)
	case "array":
		e.Kind = ExprArray
		e.Elements = p.convertArgs(node, content, depth)
	case "object":
		e.Kind = ExprObject
		e.Props = p.convertProps(node, content, depth)
	case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression":
		if node.NamedChildCount() > 0 {
			return p.convertExpr(node.NamedChild(0), content, depth+1)
		}
	}
	return e
}

func (p *TypeScriptParser) convertProps(node *sitter.Node, content []byte, depth int) []*Property {
	props := make([]*Property, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "pair":
			key := child.ChildByFieldName("key")
			if key == nil {
				continue
			}
			props = append(props, &Property{
				Key:     propertyKey(key, content),
				KeySpan: nodeSpan(key),
				Value:   p.convertExpr(child.ChildByFieldName("value"), content, depth+1),
			})
		case "shorthand_property_identifier":
			props = append(props, &Property{
				Key:     nodeText(child, content),
				KeySpan: nodeSpan(child),
				Value:   p.convertExpr(child, content, depth+1),
			})
		case "method_definition":
			if name := child.ChildByFieldName("name"); name != nil {
				props = append(props, &Property{
					Key:     propertyKey(name, content),
					KeySpan: nodeSpan(name),
					Value:   &Expr{Kind: ExprOther, Span: nodeSpan(child), Text: nodeText(child, content)},
				})
			}
		}
	}
	return props
}

func propertyKey(node *sitter.Node, content []byte) string {
	switch node.Type() {
	case "string":
		s := innerSpan(node)
		return string(content[s.Start:s.End])
	default:
		return nodeText(node, content)
	}
}

func unwrapParens(node *sitter.Node) *sitter.Node {
	for node != nil && node.Type() == "parenthesized_expression" && node.NamedChildCount() > 0 {
		node = node.NamedChild(0)
	}
	return node
}

func nodeText(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

func nodeSpan(node *sitter.Node) text.Span {
	return text.NewSpan(int(node.StartByte()), int(node.EndByte()))
}

// innerSpan strips the one-byte delimiters of a string or template literal.
func innerSpan(node *sitter.Node) text.Span {
	s := nodeSpan(node)
	if s.Len() < 2 {
		return text.NewSpan(s.Start, s.Start)
	}
	return text.NewSpan(s.Start+1, s.End-1)
}
