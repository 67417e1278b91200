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
	"strings"

	"github.com/AleutianAI/nglint/services/lint/text"
)

// TemplateBinding is one binding of a structural directive microsyntax
// such as `*ngFor="let item of items; index as i"`.
//
// Expression bindings have Value set and Key the directive input name
// (`ngForOf`). Variable bindings have IsVariable set, Key the local name
// and VariableValue the context property it reads (`$implicit` by default).
type TemplateBinding struct {
	Key           string
	KeySpan       text.Span
	Value         Node
	IsVariable    bool
	VariableValue string
	Span          text.Span
}

// ParseTemplateBindings parses the microsyntax value of `*templateKey`.
//
// Inputs:
//   - templateKey: Directive name without the `*`.
//   - keySpan: Absolute span of the attribute name.
//   - src: Attribute value.
//   - base: Absolute offset of src.
func ParseTemplateBindings(templateKey string, keySpan text.Span, src string, base int) ([]TemplateBinding, error) {
	p := newParser(src, base, false)
	var out []TemplateBinding

	out = append(out, p.parseDirectiveKeywordBindings(templateKey, keySpan, p.inputIndex())...)
	p.consumeStatementTerminator()
	for !p.atEOF() && p.err == nil {
		start := p.inputIndex()
		if p.optionalKeyword("let") {
			out = append(out, p.parseLetBinding(start))
		} else {
			key, span := p.expectTemplateBindingKey()
			if p.err != nil {
				break
			}
			if p.optionalKeyword("as") {
				name, nameSpan := p.expectTemplateBindingKey()
				out = append(out, TemplateBinding{
					Key:           name,
					KeySpan:       nameSpan,
					IsVariable:    true,
					VariableValue: key,
					Span:          p.span(start),
				})
			} else {
				full := templateKey + strings.ToUpper(key[:1]) + key[1:]
				p.optionalCharacter(':')
				out = append(out, p.parseDirectiveKeywordBindings(full, span, start)...)
			}
		}
		p.consumeStatementTerminator()
	}
	if p.err != nil {
		return nil, p.err
	}
	return out, nil
}

// parseDirectiveKeywordBindings parses `key expr [as alias]`.
func (p *parser) parseDirectiveKeywordBindings(key string, keySpan text.Span, start int) []TemplateBinding {
	var out []TemplateBinding
	b := TemplateBinding{Key: key, KeySpan: keySpan}
	if !p.atEOF() && !p.next().isKeyword("let") && !p.next().isCharacter(';') && !p.next().isCharacter(',') {
		b.Value = p.parsePipe()
	}
	b.Span = p.span(start)
	out = append(out, b)

	if p.next().isKeyword("as") {
		asStart := p.inputIndex()
		p.advance()
		name, nameSpan := p.expectTemplateBindingKey()
		out = append(out, TemplateBinding{
			Key:           name,
			KeySpan:       nameSpan,
			IsVariable:    true,
			VariableValue: key,
			Span:          p.span(asStart),
		})
	}
	return out
}

// parseLetBinding parses `let name [= value]` after the `let` keyword.
func (p *parser) parseLetBinding(start int) TemplateBinding {
	name, nameSpan := p.expectTemplateBindingKey()
	value := "$implicit"
	if p.optionalOperator("=") {
		value, _ = p.expectTemplateBindingKey()
	}
	return TemplateBinding{
		Key:           name,
		KeySpan:       nameSpan,
		IsVariable:    true,
		VariableValue: value,
		Span:          p.span(start),
	}
}

// expectTemplateBindingKey reads a key; dashed keys such as `ng-foo`
// are joined.
func (p *parser) expectTemplateBindingKey() (string, text.Span) {
	var b strings.Builder
	start := p.inputIndex()
	for {
		part, _ := p.expectIdentifierOrKeyword()
		if p.err != nil {
			return "", text.NewSpan(p.base+start, p.base+start)
		}
		b.WriteString(part)
		if !p.next().isOperator("-") {
			break
		}
		p.advance()
		b.WriteByte('-')
	}
	return b.String(), p.span(start)
}

func (p *parser) consumeStatementTerminator() {
	if !p.optionalCharacter(';') {
		p.optionalCharacter(',')
	}
}
