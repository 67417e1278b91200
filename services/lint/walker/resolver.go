// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package walker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"
)

var (
	// ErrNotResolved indicates a templateUrl or styleUrls entry could not
	// be located.
	ErrNotResolved = errors.New("resource not resolved")

	// ErrResourceTooLarge indicates a referenced resource exceeds the
	// resolver's size limit.
	ErrResourceTooLarge = errors.New("resource too large")
)

// Resolved is the content of an external template or stylesheet.
type Resolved struct {
	Path string
	Code string
}

// Resolver loads resources referenced by templateUrl and styleUrls.
type Resolver interface {
	Resolve(ctx context.Context, fromFile, url string) (Resolved, error)
}

// FileResolver reads resources from disk relative to the referencing file.
type FileResolver struct {
	// MaxSize limits resource size in bytes. Zero means no limit.
	MaxSize int64
}

// Resolve implements Resolver.
func (r FileResolver) Resolve(ctx context.Context, fromFile, url string) (Resolved, error) {
	if err := ctx.Err(); err != nil {
		return Resolved{}, err
	}
	path := url
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(url))
	}
	info, err := os.Stat(path)
	if err != nil {
		return Resolved{}, fmt.Errorf("%w: %s: %v", ErrNotResolved, url, err)
	}
	if info.IsDir() {
		return Resolved{}, fmt.Errorf("%w: %s is a directory", ErrNotResolved, url)
	}
	if r.MaxSize > 0 && info.Size() > r.MaxSize {
		return Resolved{}, fmt.Errorf("%w: %s (%d bytes)", ErrResourceTooLarge, url, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Resolved{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if !utf8.Valid(data) {
		return Resolved{}, fmt.Errorf("%w: %s is not valid UTF-8", ErrNotResolved, url)
	}
	return Resolved{Path: path, Code: string(data)}, nil
}

// MapResolver serves resources from memory, keyed by the path FileResolver
// would compute.
type MapResolver map[string]string

// Resolve implements Resolver.
func (m MapResolver) Resolve(_ context.Context, fromFile, url string) (Resolved, error) {
	path := url
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(fromFile), filepath.FromSlash(url))
	}
	code, ok := m[path]
	if !ok {
		return Resolved{}, fmt.Errorf("%w: %s", ErrNotResolved, url)
	}
	return Resolved{Path: path, Code: code}, nil
}
