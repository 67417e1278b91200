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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"

	"github.com/AleutianAI/nglint/services/lint/text"
)

// ErrStyleParse wraps every stylesheet parse failure.
var ErrStyleParse = errors.New("style parse failed")

// Parser turns stylesheet text into rules. Implementations never panic;
// failures are reported through Result.Err.
type Parser interface {
	Parse(ctx context.Context, src string, sourceName string) Result
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

// TreeSitterParser parses CSS with the tree-sitter CSS grammar.
//
// Description:
//
//	The grammar does not know the legacy shadow-piercing combinators, so
//	`/deep/` and `>>>` are blanked to spaces of the same length before
//	parsing. Offsets are unchanged and selector text is always read from
//	the original source. Selector lists are split and tokenized here so
//	every part keeps its exact offset.
//
// Thread Safety: Safe for concurrent use. Each Parse uses its own
// tree-sitter parser.
type TreeSitterParser struct {
	logger *slog.Logger
}

// NewTreeSitterParser creates a stylesheet parser.
func NewTreeSitterParser(opts ...ParserOption) *TreeSitterParser {
	p := &TreeSitterParser{logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse parses src.
//
// Outputs:
//   - Result: Sheet on success. Err wraps ErrStyleParse when the grammar
//     reports a syntax error, or carries the context error.
func (p *TreeSitterParser) Parse(ctx context.Context, src string, sourceName string) (result Result) {
	ctx, span := startStyleSpan(ctx, sourceName, len(src))
	defer span.End()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			result = Result{Err: fmt.Errorf("%w: %s: panic: %v", ErrStyleParse, sourceName, r)}
		}
		recordStyleParse(time.Since(start), result)
	}()

	if err := ctx.Err(); err != nil {
		return Result{Err: fmt.Errorf("style parse canceled: %w", err)}
	}

	parser := sitter.NewParser()
	parser.SetLanguage(css.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, []byte(maskDeepCombinators(src)))
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %s: %v", ErrStyleParse, sourceName, err)}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		p.logger.Debug("stylesheet contains syntax errors",
			slog.String("source", sourceName))
		return Result{Err: fmt.Errorf("%w: %s: syntax error", ErrStyleParse, sourceName)}
	}

	sheet := &Stylesheet{Source: src}
	b := &sheetBuilder{src: src, sheet: sheet}
	b.collect(root, nil, nil)
	return Result{Sheet: sheet}
}

// maskDeepCombinators replaces `/deep/` and `>>>` with spaces.
func maskDeepCombinators(src string) string {
	if !strings.Contains(src, DeepSlash) && !strings.Contains(src, DeepPiercing) {
		return src
	}
	r := strings.NewReplacer(DeepSlash, strings.Repeat(" ", len(DeepSlash)),
		DeepPiercing, strings.Repeat(" ", len(DeepPiercing)))
	return r.Replace(src)
}

type sheetBuilder struct {
	src   string
	sheet *Stylesheet
}

func (b *sheetBuilder) collect(n *sitter.Node, atRules []string, parent *Rule) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "rule_set":
			b.ruleSet(child, atRules, parent)
		case "media_statement", "supports_statement", "at_rule":
			block := childOfType(child, "block")
			if block == nil {
				continue
			}
			prelude := strings.TrimSpace(b.src[child.StartByte():block.StartByte()])
			b.collect(block, append(atRules[:len(atRules):len(atRules)], prelude), parent)
		}
	}
}

func (b *sheetBuilder) ruleSet(n *sitter.Node, atRules []string, parent *Rule) {
	selectors := childOfType(n, "selectors")
	block := childOfType(n, "block")
	if selectors == nil || block == nil {
		return
	}
	start := extendLeadingDeep(b.src, int(selectors.StartByte()))
	end := int(block.StartByte())
	rule := &Rule{
		Selectors: SplitSelectors(b.src[start:end], start),
		Span:      text.NewSpan(start, int(n.EndByte())),
		BlockSpan: text.NewSpan(int(block.StartByte()), int(block.EndByte())),
		AtRules:   atRules,
		Parent:    parent,
	}
	if len(rule.Selectors) == 0 {
		return
	}
	b.sheet.Rules = append(b.sheet.Rules, rule)
	b.collect(block, atRules, rule)
}

// extendLeadingDeep moves start back over a blanked deep combinator that
// opens the selector list.
func extendLeadingDeep(src string, start int) int {
	i := start
	for i > 0 && isSpace(src[i-1]) {
		i--
	}
	for _, deep := range []string{DeepSlash, DeepPiercing} {
		if i >= len(deep) && src[i-len(deep):i] == deep {
			return i - len(deep)
		}
	}
	return start
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() == typ {
			return c
		}
	}
	return nil
}
