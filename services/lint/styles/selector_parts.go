// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package styles

import (
	"strings"

	"github.com/AleutianAI/nglint/services/lint/text"
)

var legacyPseudoElements = map[string]bool{
	"before":       true,
	"after":        true,
	"first-line":   true,
	"first-letter": true,
}

// SplitSelectors splits a selector list on top-level commas. Spans are
// offset by base and exclude surrounding whitespace.
func SplitSelectors(list string, base int) []*Selector {
	var out []*Selector
	depth := 0
	var quote byte
	start := 0
	emit := func(end int) {
		seg := list[start:end]
		lead := len(seg) - len(strings.TrimLeft(seg, " \t\r\n\f"))
		trimmed := strings.TrimSpace(seg)
		if trimmed == "" {
			return
		}
		s := base + start + lead
		out = append(out, &Selector{
			Text:  trimmed,
			Span:  text.NewSpan(s, s+len(trimmed)),
			Parts: tokenizeSelector(trimmed, s),
		})
	}
	for i := 0; i < len(list); i++ {
		c := list[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			emit(i)
			start = i + 1
		}
	}
	emit(len(list))
	return out
}

type selectorScanner struct {
	src   string
	base  int
	pos   int
	parts []Part
}

func tokenizeSelector(src string, base int) []Part {
	s := &selectorScanner{src: src, base: base}
	s.scan()
	return s.parts
}

func (s *selectorScanner) scan() {
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		start := s.pos
		switch {
		case isSpace(c):
			for s.pos < len(s.src) && isSpace(s.src[s.pos]) {
				s.pos++
			}
			if s.pos < len(s.src) && len(s.parts) > 0 {
				s.combinator(Descendant, start, s.pos)
			}
		case strings.HasPrefix(s.src[s.pos:], "/*"):
			end := strings.Index(s.src[s.pos+2:], "*/")
			if end < 0 {
				s.pos = len(s.src)
			} else {
				s.pos += end + 4
			}
		case strings.HasPrefix(s.src[s.pos:], DeepSlash):
			s.pos += len(DeepSlash)
			s.combinator(DeepSlash, start, s.pos)
		case strings.HasPrefix(s.src[s.pos:], DeepPiercing):
			s.pos += len(DeepPiercing)
			s.combinator(DeepPiercing, start, s.pos)
		case c == '>' || c == '+' || c == '~':
			s.pos++
			s.combinator(string(c), start, s.pos)
		case c == '.':
			s.pos++
			s.add(PartClass, s.ident(), start)
		case c == '#':
			s.pos++
			s.add(PartID, s.ident(), start)
		case c == '*':
			s.pos++
			s.add(PartUniversal, "*", start)
		case c == '&':
			s.pos++
			s.add(PartNesting, "&", start)
		case c == '[':
			end := s.matching(s.pos, '[', ']')
			if end < 0 {
				s.pos = len(s.src)
				s.add(PartOther, s.src[start:], start)
				continue
			}
			s.pos = end
			s.add(PartAttribute, strings.TrimSpace(s.src[start+1:end-1]), start)
		case c == ':':
			s.pseudo(start)
		case isIdentStart(c):
			s.add(PartTag, s.ident(), start)
		default:
			s.pos++
			s.add(PartOther, string(c), start)
		}
	}
	// A trailing descendant combinator only comes from trailing comments.
	if n := len(s.parts); n > 0 && s.parts[n-1].Kind == PartCombinator && s.parts[n-1].Value == Descendant {
		s.parts = s.parts[:n-1]
	}
}

func (s *selectorScanner) pseudo(start int) {
	element := strings.HasPrefix(s.src[s.pos:], "::")
	if element {
		s.pos += 2
	} else {
		s.pos++
	}
	name := s.ident()
	arg := ""
	if s.pos < len(s.src) && s.src[s.pos] == '(' {
		end := s.matching(s.pos, '(', ')')
		if end < 0 {
			s.pos = len(s.src)
			s.parts = append(s.parts, Part{Kind: PartOther, Value: s.src[start:], Span: s.span(start)})
			return
		}
		arg = strings.TrimSpace(s.src[s.pos+1 : end-1])
		s.pos = end
	}
	lower := strings.ToLower(name)
	switch {
	case element && lower == "ng-deep":
		s.combinator(DeepNg, start, s.pos)
	case element || legacyPseudoElements[lower]:
		s.parts = append(s.parts, Part{Kind: PartPseudoElement, Value: lower, Arg: arg, Span: s.span(start)})
	default:
		s.parts = append(s.parts, Part{Kind: PartPseudoClass, Value: lower, Arg: arg, Span: s.span(start)})
	}
}

// combinator appends a combinator, folding it into a pending descendant
// combinator produced by surrounding whitespace.
func (s *selectorScanner) combinator(value string, start, end int) {
	if n := len(s.parts); n > 0 && s.parts[n-1].Kind == PartCombinator {
		last := &s.parts[n-1]
		if value == Descendant {
			return
		}
		if last.Value == Descendant {
			last.Value = value
			last.Span = text.NewSpan(s.base+start, s.base+end)
			return
		}
	}
	s.parts = append(s.parts, Part{Kind: PartCombinator, Value: value, Span: text.NewSpan(s.base+start, s.base+end)})
}

func (s *selectorScanner) add(kind PartKind, value string, start int) {
	s.parts = append(s.parts, Part{Kind: kind, Value: value, Span: s.span(start)})
}

func (s *selectorScanner) span(start int) text.Span {
	return text.NewSpan(s.base+start, s.base+s.pos)
}

func (s *selectorScanner) ident() string {
	start := s.pos
	for s.pos < len(s.src) {
		c := s.src[s.pos]
		if c == '\\' && s.pos+1 < len(s.src) {
			s.pos += 2
			continue
		}
		if !isIdentPart(c) {
			break
		}
		s.pos++
	}
	return s.src[start:s.pos]
}

// matching returns the offset just past the bracket closing the one at
// open, or -1 when it is never closed.
func (s *selectorScanner) matching(open int, l, r byte) int {
	depth := 0
	var quote byte
	for i := open; i < len(s.src); i++ {
		c := s.src[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == l:
			depth++
		case c == r:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '-' || c == '\\' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
