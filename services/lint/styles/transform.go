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
	"path"
	"strings"
	"sync"
	"time"

	"github.com/bep/godartsass/v2"
	"github.com/go-sourcemap/sourcemap"

	"github.com/AleutianAI/nglint/services/lint/text"
)

// ErrStyleTransform wraps failures of a style transformer.
var ErrStyleTransform = errors.New("style transform failed")

// Transformer rewrites raw style source into CSS before parsing.
type Transformer interface {
	Transform(ctx context.Context, code, url string) (*Transformed, error)
}

// Transformed is transformer output. Map is nil when Code is Source.
type Transformed struct {
	Code   string
	Source string
	Map    *sourcemap.Consumer

	once      sync.Once
	codeLines *text.LineIndex
	srcLines  *text.LineIndex
}

// MapOffset translates an offset in Code to an offset in Source. It
// returns -1 when the source map has no mapping for the position.
func (t *Transformed) MapOffset(offset int) int {
	if t.Map == nil {
		return offset
	}
	t.once.Do(func() {
		t.codeLines = text.NewLineIndex(t.Code)
		t.srcLines = text.NewLineIndex(t.Source)
	})
	pos := t.codeLines.Position(offset)
	_, _, line, col, ok := t.Map.Source(pos.Line+1, pos.Character)
	if !ok {
		return -1
	}
	return t.srcLines.Offset(text.Position{Line: line - 1, Character: col})
}

// MapSpan translates both ends of s with MapOffset. The end never falls
// before the start.
func (t *Transformed) MapSpan(s text.Span) text.Span {
	start, end := t.MapOffset(s.Start), t.MapOffset(s.End)
	if end < start {
		end = start
	}
	return text.Span{Start: start, End: end}
}

// Identity returns styles unchanged.
type Identity struct{}

// Transform implements Transformer.
func (Identity) Transform(_ context.Context, code, _ string) (*Transformed, error) {
	return &Transformed{Code: code, Source: code}, nil
}

// SassOption configures a SassTransformer.
type SassOption func(*SassTransformer)

// WithSassBinary sets the path of the Dart Sass executable.
func WithSassBinary(binary string) SassOption {
	return func(t *SassTransformer) {
		if binary != "" {
			t.binary = binary
		}
	}
}

// WithSassTimeout bounds a single compilation.
func WithSassTimeout(d time.Duration) SassOption {
	return func(t *SassTransformer) {
		t.timeout = d
	}
}

// WithSassLogger sets the logger for compiler warnings.
func WithSassLogger(logger *slog.Logger) SassOption {
	return func(t *SassTransformer) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// SassTransformer compiles SCSS and indented Sass to CSS with the Dart Sass
// embedded protocol and keeps the source map.
//
// Description:
//
//	The compiler process starts on first use and is shared by all calls
//	until Close. Syntax is chosen from the url extension: `.sass` is the
//	indented syntax, `.css` plain CSS, anything else SCSS.
//
// Thread Safety: Safe for concurrent use.
type SassTransformer struct {
	binary  string
	timeout time.Duration
	logger  *slog.Logger

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
	closed     bool
}

// NewSassTransformer creates a transformer. No process is started yet.
func NewSassTransformer(opts ...SassOption) *SassTransformer {
	t := &SassTransformer{
		binary:  "sass",
		timeout: 30 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *SassTransformer) start() (*godartsass.Transpiler, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, fmt.Errorf("%w: transformer closed", ErrStyleTransform)
	}
	if t.transpiler != nil {
		return t.transpiler, nil
	}
	tr, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: t.binary,
		Timeout:                  t.timeout,
		LogEventHandler: func(e godartsass.LogEvent) {
			t.logger.Warn("sass compiler message",
				slog.String("message", e.Message))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: starting %s: %v", ErrStyleTransform, t.binary, err)
	}
	t.transpiler = tr
	return tr, nil
}

// Transform implements Transformer.
func (t *SassTransformer) Transform(ctx context.Context, code, url string) (*Transformed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	out, err := t.transform(code, url)
	recordTransform("sass", time.Since(start), err)
	return out, err
}

func (t *SassTransformer) transform(code, url string) (*Transformed, error) {
	tr, err := t.start()
	if err != nil {
		return nil, err
	}
	res, err := tr.Execute(godartsass.Args{
		Source:          code,
		URL:             url,
		OutputStyle:     godartsass.OutputStyleExpanded,
		SourceSyntax:    sassSyntax(url),
		EnableSourceMap: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStyleTransform, url, err)
	}
	out := &Transformed{Code: res.CSS, Source: code}
	if res.SourceMap == "" {
		return out, nil
	}
	m, err := sourcemap.Parse(url, []byte(res.SourceMap))
	if err != nil {
		t.logger.Debug("ignoring unreadable source map",
			slog.String("url", url),
			slog.String("error", err.Error()))
		return out, nil
	}
	out.Map = m
	return out, nil
}

// Close stops the compiler process.
func (t *SassTransformer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.transpiler == nil {
		return nil
	}
	err := t.transpiler.Close()
	t.transpiler = nil
	return err
}

func sassSyntax(url string) godartsass.SourceSyntax {
	switch strings.ToLower(path.Ext(url)) {
	case ".sass":
		return godartsass.SourceSyntaxSASS
	case ".css":
		return godartsass.SourceSyntaxCSS
	default:
		return godartsass.SourceSyntaxSCSS
	}
}
