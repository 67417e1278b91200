// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders lint results.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mattn/go-isatty"

	"github.com/AleutianAI/nglint/services/lint/runner"
)

// ErrUnknownFormat indicates a formatter name that is not registered.
var ErrUnknownFormat = errors.New("unknown format")

// Formatter writes a lint result.
type Formatter interface {
	Format(w io.Writer, res *runner.Result) error
}

// Option configures a formatter.
type Option func(*options)

type options struct {
	color *bool
}

// WithColor forces colored output on or off. By default color is used
// only when writing to a terminal.
func WithColor(on bool) Option {
	return func(o *options) { o.color = &on }
}

// Formats lists the formatter names.
func Formats() []string {
	names := []string{"stylish", "json", "diff"}
	sort.Strings(names)
	return names
}

// New returns the formatter named name.
func New(name string, opts ...Option) (Formatter, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	switch name {
	case "", "stylish":
		return &Stylish{color: o.color}, nil
	case "json":
		return JSON{Indent: true}, nil
	case "diff":
		return Diff{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
