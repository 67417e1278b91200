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

import (
	"errors"
	"fmt"

	"github.com/AleutianAI/nglint/services/lint/text"
)

// ErrSyntax is wrapped by every ParseError.
var ErrSyntax = errors.New("expression syntax error")

// ParseError describes the first syntax error in an expression.
type ParseError struct {
	Message string
	Input   string
	// Offset is the absolute offset of the error.
	Offset int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Parser Error: %s at offset %d in [%s]", e.Message, e.Offset, e.Input)
}

func (e *ParseError) Unwrap() error {
	return ErrSyntax
}

// ParseBinding parses a property binding or interpolation segment.
// Pipes are allowed, assignments and chains are not.
//
// base is added to every span so offsets stay relative to the enclosing
// template.
func ParseBinding(src string, base int) (Node, error) {
	p := newParser(src, base, false)
	return p.parseRoot()
}

// ParseAction parses an event handler body. Assignments and `;` chains
// are allowed, pipes are not.
func ParseAction(src string, base int) (Node, error) {
	p := newParser(src, base, true)
	return p.parseRoot()
}

type parser struct {
	src    string
	base   int
	action bool
	tokens []token
	index  int
	err    *ParseError
}

func newParser(src string, base int, action bool) *parser {
	return &parser{
		src:    src,
		base:   base,
		action: action,
		tokens: tokenize(src),
	}
}

// parseRoot parses the whole input. Blank input yields an Empty node.
func (p *parser) parseRoot() (Node, error) {
	if len(p.tokens) == 0 {
		return &Empty{node{text.NewSpan(p.base, p.base+len(p.src))}}, nil
	}
	n := p.parseChain()
	if p.err != nil {
		return nil, p.err
	}
	return n, nil
}

// =============================================================================
// Token helpers
// =============================================================================

func (p *parser) next() token {
	return p.peek(0)
}

func (p *parser) peek(offset int) token {
	i := p.index + offset
	if i < len(p.tokens) {
		return p.tokens[i]
	}
	return token{kind: tokError, index: len(p.src), end: len(p.src), str: "EOF"}
}

func (p *parser) atEOF() bool {
	return p.index >= len(p.tokens)
}

// inputIndex is the local offset of the next token.
func (p *parser) inputIndex() int {
	if p.atEOF() {
		return len(p.src)
	}
	return p.tokens[p.index].index
}

// lastEnd is the local end offset of the last consumed token.
func (p *parser) lastEnd() int {
	if p.index == 0 {
		return 0
	}
	return p.tokens[p.index-1].end
}

// span returns the absolute span from local start to the last consumed token.
func (p *parser) span(start int) text.Span {
	end := p.lastEnd()
	if end < start {
		end = start
	}
	return text.NewSpan(p.base+start, p.base+end)
}

func (p *parser) advance() {
	p.index++
}

func (p *parser) optionalCharacter(c byte) bool {
	if p.next().isCharacter(c) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) optionalOperator(op string) bool {
	if p.next().isOperator(op) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) optionalKeyword(kw string) bool {
	if p.next().isKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expectCharacter(c byte) {
	if p.optionalCharacter(c) {
		return
	}
	p.errorf("Missing expected %c", c)
}

func (p *parser) expectIdentifierOrKeyword() (string, text.Span) {
	t := p.next()
	if t.kind != tokIdentifier && t.kind != tokKeyword {
		if t.kind == tokPrivateIdentifier {
			p.errorf("Private identifiers are not supported. Unexpected private identifier: %s", t.str)
		} else {
			p.errorf("Unexpected token %s, expected identifier or keyword", p.describe(t))
		}
		return "", text.NewSpan(p.base+t.index, p.base+t.index)
	}
	p.advance()
	return t.str, text.NewSpan(p.base+t.index, p.base+t.end)
}

func (p *parser) describe(t token) string {
	if p.atEOF() {
		return "end of input"
	}
	return "'" + t.str + "'"
}

func (p *parser) errorf(format string, args ...any) {
	if p.err != nil {
		return
	}
	offset := p.inputIndex()
	if t := p.next(); t.kind == tokError && !p.atEOF() {
		format, args = "Lexer Error: %s", []any{t.str}
		offset = t.index
	}
	p.err = &ParseError{
		Message: fmt.Sprintf(format, args...),
		Input:   p.src,
		Offset:  p.base + offset,
	}
	// Stop consuming input.
	p.index = len(p.tokens)
}

// =============================================================================
// Grammar
// =============================================================================

func (p *parser) parseChain() Node {
	start := p.inputIndex()
	var exprs []Node
	for !p.atEOF() && p.err == nil {
		exprs = append(exprs, p.parsePipe())
		if p.optionalCharacter(';') {
			if !p.action {
				p.errorf("Binding expression cannot contain chained expression")
			}
			for p.optionalCharacter(';') {
			}
		} else if !p.atEOF() {
			p.errorf("Unexpected token %s", p.describe(p.next()))
		}
	}
	switch len(exprs) {
	case 0:
		return &Empty{node{p.span(start)}}
	case 1:
		return exprs[0]
	default:
		return &Chain{node: node{p.span(start)}, Expressions: exprs}
	}
}

func (p *parser) parsePipe() Node {
	start := p.inputIndex()
	result := p.parseExpression()
	if p.next().isOperator("|") {
		if p.action {
			p.errorf("Cannot have a pipe in an action expression")
			return result
		}
		for p.optionalOperator("|") {
			name, nameSpan := p.expectIdentifierOrKeyword()
			var args []Node
			for p.optionalCharacter(':') {
				args = append(args, p.parseExpression())
			}
			result = &Pipe{node: node{p.span(start)}, Expr: result, Name: name, NameSpan: nameSpan, Args: args}
		}
	}
	return result
}

func (p *parser) parseExpression() Node {
	return p.parseConditional()
}

func (p *parser) parseConditional() Node {
	start := p.inputIndex()
	cond := p.parseLogicalOr()
	if !p.optionalOperator("?") {
		return cond
	}
	yes := p.parsePipe()
	if !p.optionalCharacter(':') {
		p.errorf("Conditional expression requires all 3 expressions")
		return cond
	}
	no := p.parsePipe()
	return &Conditional{node: node{p.span(start)}, Condition: cond, TrueExp: yes, FalseExp: no}
}

func (p *parser) binaryLevel(ops []string, operand func() Node) Node {
	start := p.inputIndex()
	left := operand()
	for {
		matched := ""
		for _, op := range ops {
			if p.next().isOperator(op) {
				matched = op
				break
			}
		}
		if matched == "" {
			return left
		}
		p.advance()
		right := operand()
		left = &Binary{node: node{p.span(start)}, Operation: matched, Left: left, Right: right}
	}
}

func (p *parser) parseLogicalOr() Node {
	return p.binaryLevel([]string{"||"}, p.parseLogicalAnd)
}

func (p *parser) parseLogicalAnd() Node {
	return p.binaryLevel([]string{"&&"}, p.parseNullishCoalescing)
}

func (p *parser) parseNullishCoalescing() Node {
	return p.binaryLevel([]string{"??"}, p.parseEquality)
}

func (p *parser) parseEquality() Node {
	return p.binaryLevel([]string{"==", "!=", "===", "!=="}, p.parseRelational)
}

func (p *parser) parseRelational() Node {
	return p.binaryLevel([]string{"<", ">", "<=", ">="}, p.parseAdditive)
}

func (p *parser) parseAdditive() Node {
	return p.binaryLevel([]string{"+", "-"}, p.parseMultiplicative)
}

func (p *parser) parseMultiplicative() Node {
	return p.binaryLevel([]string{"*", "%", "/"}, p.parsePrefix)
}

func (p *parser) parsePrefix() Node {
	start := p.inputIndex()
	t := p.next()
	switch {
	case t.isOperator("+"), t.isOperator("-"):
		p.advance()
		expr := p.parsePrefix()
		return &Unary{node: node{p.span(start)}, Operator: t.str, Expr: expr}
	case t.isOperator("!"):
		p.advance()
		expr := p.parsePrefix()
		return &PrefixNot{node: node{p.span(start)}, Expr: expr}
	case t.isKeyword("typeof"):
		p.advance()
		expr := p.parsePrefix()
		return &Unary{node: node{p.span(start)}, Operator: "typeof", Expr: expr}
	}
	return p.parseCallChain()
}

func (p *parser) parseCallChain() Node {
	start := p.inputIndex()
	result := p.parsePrimary()
	for p.err == nil {
		switch {
		case p.optionalCharacter('.'):
			result = p.parseAccessMemberOrCall(result, start, false)
		case p.optionalOperator("?."):
			switch {
			case p.optionalCharacter('('):
				args := p.parseCallArguments()
				p.expectCharacter(')')
				result = &FunctionCall{node: node{p.span(start)}, Target: result, Args: args, Safe: true}
			case p.optionalCharacter('['):
				key := p.parsePipe()
				p.expectCharacter(']')
				result = &KeyedRead{node: node{p.span(start)}, Receiver: result, Key: key, Safe: true}
			default:
				result = p.parseAccessMemberOrCall(result, start, true)
			}
		case p.optionalCharacter('['):
			key := p.parsePipe()
			p.expectCharacter(']')
			if p.optionalOperator("=") {
				if !p.action {
					p.errorf("Bindings cannot contain assignments")
					return result
				}
				value := p.parseConditional()
				result = &KeyedWrite{node: node{p.span(start)}, Receiver: result, Key: key, Value: value}
			} else {
				result = &KeyedRead{node: node{p.span(start)}, Receiver: result, Key: key}
			}
		case p.optionalCharacter('('):
			args := p.parseCallArguments()
			p.expectCharacter(')')
			result = &FunctionCall{node: node{p.span(start)}, Target: result, Args: args}
		case p.optionalOperator("!"):
			result = &NonNullAssert{node: node{p.span(start)}, Expr: result}
		default:
			return result
		}
	}
	return result
}

func (p *parser) parsePrimary() Node {
	start := p.inputIndex()
	t := p.next()
	switch {
	case t.isCharacter('('):
		p.advance()
		result := p.parsePipe()
		p.expectCharacter(')')
		return result
	case t.isKeyword("null"):
		p.advance()
		return &LiteralPrimitive{node: node{p.span(start)}, Value: nil}
	case t.isKeyword("undefined"):
		p.advance()
		return &LiteralPrimitive{node: node{p.span(start)}, Value: nil}
	case t.isKeyword("true"), t.isKeyword("false"):
		p.advance()
		return &LiteralPrimitive{node: node{p.span(start)}, Value: t.str == "true"}
	case t.isKeyword("this"):
		p.advance()
		return &ThisReceiver{node{p.span(start)}}
	case t.isCharacter('['):
		p.advance()
		elements := p.parseExpressionList(']')
		p.expectCharacter(']')
		return &LiteralArray{node: node{p.span(start)}, Elements: elements}
	case t.isCharacter('{'):
		return p.parseLiteralMap()
	case t.kind == tokIdentifier:
		receiver := &ImplicitReceiver{node{text.NewSpan(p.base+start, p.base+start)}}
		return p.parseAccessMemberOrCall(receiver, start, false)
	case t.kind == tokNumber:
		p.advance()
		return &LiteralPrimitive{node: node{p.span(start)}, Value: t.num}
	case t.kind == tokString:
		p.advance()
		return &LiteralPrimitive{node: node{p.span(start)}, Value: t.str}
	case t.kind == tokPrivateIdentifier:
		p.errorf("Private identifiers are not supported. Unexpected private identifier: %s", t.str)
	case p.atEOF():
		p.errorf("Unexpected end of expression: %s", p.src)
	default:
		p.errorf("Unexpected token %s", p.describe(t))
	}
	return &Empty{node{p.span(start)}}
}

func (p *parser) parseExpressionList(terminator byte) []Node {
	var out []Node
	if p.next().isCharacter(terminator) {
		return out
	}
	for p.err == nil {
		out = append(out, p.parsePipe())
		if !p.optionalCharacter(',') {
			break
		}
	}
	return out
}

func (p *parser) parseLiteralMap() Node {
	start := p.inputIndex()
	p.expectCharacter('{')
	m := &LiteralMap{}
	if !p.optionalCharacter('}') {
		for p.err == nil {
			keyStart := p.inputIndex()
			t := p.next()
			quoted := t.kind == tokString
			var key string
			if quoted {
				p.advance()
				key = t.str
			} else {
				key, _ = p.expectIdentifierOrKeyword()
			}
			m.Keys = append(m.Keys, MapKey{Key: key, Quoted: quoted})
			if quoted || p.next().isCharacter(':') {
				p.expectCharacter(':')
				m.Values = append(m.Values, p.parsePipe())
			} else {
				// Shorthand `{a}` reads the property of the same name.
				span := p.span(keyStart)
				m.Values = append(m.Values, &PropertyRead{
					node:     node{span},
					Receiver: &ImplicitReceiver{node{text.NewSpan(span.Start, span.Start)}},
					Name:     key,
					NameSpan: span,
				})
			}
			if !p.optionalCharacter(',') {
				break
			}
		}
		p.expectCharacter('}')
	}
	m.span = p.span(start)
	return m
}

// parseAccessMemberOrCall parses the member after `.` or `?.`. start is
// the local offset where the receiver began.
func (p *parser) parseAccessMemberOrCall(receiver Node, start int, safe bool) Node {
	name, nameSpan := p.expectIdentifierOrKeyword()
	if p.err != nil {
		return receiver
	}

	if p.optionalCharacter('(') {
		args := p.parseCallArguments()
		p.expectCharacter(')')
		if safe {
			return &SafeMethodCall{node: node{p.span(start)}, Receiver: receiver, Name: name, NameSpan: nameSpan, Args: args}
		}
		return &MethodCall{node: node{p.span(start)}, Receiver: receiver, Name: name, NameSpan: nameSpan, Args: args}
	}

	if safe {
		if p.next().isOperator("=") {
			p.errorf("The '?.' operator cannot be used in the assignment")
			return receiver
		}
		return &SafePropertyRead{node: node{p.span(start)}, Receiver: receiver, Name: name, NameSpan: nameSpan}
	}

	if p.optionalOperator("=") {
		if !p.action {
			p.errorf("Bindings cannot contain assignments")
			return receiver
		}
		value := p.parseConditional()
		return &PropertyWrite{node: node{p.span(start)}, Receiver: receiver, Name: name, NameSpan: nameSpan, Value: value}
	}
	return &PropertyRead{node: node{p.span(start)}, Receiver: receiver, Name: name, NameSpan: nameSpan}
}

func (p *parser) parseCallArguments() []Node {
	if p.next().isCharacter(')') {
		return nil
	}
	var args []Node
	for p.err == nil {
		args = append(args, p.parsePipe())
		if !p.optionalCharacter(',') {
			break
		}
	}
	return args
}
