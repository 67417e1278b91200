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
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokCharacter tokenKind = iota
	tokIdentifier
	tokPrivateIdentifier
	tokKeyword
	tokString
	tokOperator
	tokNumber
	tokError
)

// token is one lexeme. index and end are byte offsets into the input.
type token struct {
	kind  tokenKind
	index int
	end   int
	str   string
	num   float64
}

func (t token) isCharacter(c byte) bool {
	return t.kind == tokCharacter && len(t.str) == 1 && t.str[0] == c
}

func (t token) isOperator(op string) bool {
	return t.kind == tokOperator && t.str == op
}

func (t token) isKeyword(kw string) bool {
	return t.kind == tokKeyword && t.str == kw
}

var keywords = map[string]bool{
	"var": true, "let": true, "as": true, "null": true, "undefined": true,
	"true": true, "false": true, "if": true, "else": true, "this": true, "typeof": true,
}

// tokenize splits src into tokens. Lexical errors become tokError tokens
// and stop scanning.
func tokenize(src string) []token {
	l := &lexer{src: src}
	var out []token
	for {
		tok, ok := l.scan()
		if !ok {
			return out
		}
		out = append(out, tok)
		if tok.kind == tokError {
			return out
		}
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) peekAt(i int) byte {
	if i < len(l.src) {
		return l.src[i]
	}
	return 0
}

func (l *lexer) scan() (token, bool) {
	for l.pos < len(l.src) && isWhitespace(l.src[l.pos]) {
		l.pos++
	}
	if l.pos >= len(l.src) {
		return token{}, false
	}

	start := l.pos
	c := l.src[start]
	switch {
	case isIdentifierStart(c):
		return l.scanIdentifier(), true
	case isDigit(c):
		return l.scanNumber(start), true
	}

	switch c {
	case '.':
		if isDigit(l.peekAt(start + 1)) {
			return l.scanNumber(start), true
		}
		return l.char(start), true
	case '(', ')', '{', '}', '[', ']', ',', ':', ';':
		return l.char(start), true
	case '\'', '"':
		return l.scanString(c), true
	case '#':
		l.pos++
		if l.pos < len(l.src) && isIdentifierStart(l.src[l.pos]) {
			id := l.scanIdentifier()
			return token{kind: tokPrivateIdentifier, index: start, end: id.end, str: "#" + id.str}, true
		}
		return l.errorf(start, "Invalid character [#]"), true
	case '+', '-', '*', '/', '%', '^':
		return l.operator(start, string(c)), true
	case '?':
		switch l.peekAt(start + 1) {
		case '.':
			if !isDigit(l.peekAt(start + 2)) {
				return l.operator(start, "?."), true
			}
		case '?':
			return l.operator(start, "??"), true
		}
		return l.operator(start, "?"), true
	case '<', '>':
		if l.peekAt(start+1) == '=' {
			return l.operator(start, string(c)+"="), true
		}
		return l.operator(start, string(c)), true
	case '!', '=':
		op := string(c)
		if l.peekAt(start+1) == '=' {
			op += "="
			if l.peekAt(start+2) == '=' {
				op += "="
			}
		}
		return l.operator(start, op), true
	case '&', '|':
		if l.peekAt(start+1) == c {
			return l.operator(start, string(c)+string(c)), true
		}
		return l.operator(start, string(c)), true
	}

	return l.errorf(start, "Unexpected character [%c]", c), true
}

func (l *lexer) char(start int) token {
	l.pos = start + 1
	return token{kind: tokCharacter, index: start, end: l.pos, str: l.src[start:l.pos]}
}

func (l *lexer) operator(start int, op string) token {
	l.pos = start + len(op)
	return token{kind: tokOperator, index: start, end: l.pos, str: op}
}

func (l *lexer) errorf(start int, format string, args ...any) token {
	l.pos = len(l.src)
	return token{kind: tokError, index: start, end: start, str: fmt.Sprintf(format, args...)}
}

func (l *lexer) scanIdentifier() token {
	start := l.pos
	l.pos++
	for l.pos < len(l.src) && isIdentifierPart(l.src[l.pos]) {
		l.pos++
	}
	s := l.src[start:l.pos]
	kind := tokIdentifier
	if keywords[s] {
		kind = tokKeyword
	}
	return token{kind: kind, index: start, end: l.pos, str: s}
}

func (l *lexer) scanNumber(start int) token {
	l.pos = start
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if isDigit(c) || c == '.' || c == '_' {
			l.pos++
			continue
		}
		if c != 'e' && c != 'E' {
			break
		}
		l.pos++
		if n := l.peekAt(l.pos); n == '+' || n == '-' {
			l.pos++
		}
		if !isDigit(l.peekAt(l.pos)) {
			return l.errorf(start, "Invalid exponent")
		}
	}
	raw := strings.ReplaceAll(l.src[start:l.pos], "_", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return l.errorf(start, "Invalid number [%s]", raw)
	}
	return token{kind: tokNumber, index: start, end: l.pos, str: l.src[start:l.pos], num: v}
}

func (l *lexer) scanString(quote byte) token {
	start := l.pos
	l.pos++
	var b strings.Builder
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case quote:
			l.pos++
			return token{kind: tokString, index: start, end: l.pos, str: b.String()}
		case '\\':
			l.pos++
			if l.pos >= len(l.src) {
				return l.errorf(start, "Unterminated quote")
			}
			esc := l.src[l.pos]
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case 'v':
				b.WriteByte('\v')
			case 'f':
				b.WriteByte('\f')
			case 'u':
				if l.pos+4 >= len(l.src) {
					return l.errorf(start, "Invalid unicode escape")
				}
				r, err := strconv.ParseUint(l.src[l.pos+1:l.pos+5], 16, 32)
				if err != nil {
					return l.errorf(start, "Invalid unicode escape [\\u%s]", l.src[l.pos+1:l.pos+5])
				}
				b.WriteRune(rune(r))
				l.pos += 4
			default:
				b.WriteByte(esc)
			}
			l.pos++
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return l.errorf(start, "Unterminated quote")
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isIdentifierStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == '$'
}

func isIdentifierPart(c byte) bool {
	return isIdentifierStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
