// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package runner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Expand turns command line paths into the sorted list of source files
// to lint.
//
// Description:
//
//	Directories are walked and their files filtered by the include and
//	exclude globs, matched against the slash path relative to the
//	directory. Arguments containing glob metacharacters are expanded with
//	doublestar. Files named explicitly only need a .ts or .tsx extension
//	and must not be excluded.
//
// Outputs:
//   - []string: Unique file paths, sorted.
//   - error: A missing path or an invalid glob.
func (r *Runner) Expand(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		p = filepath.Clean(p)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, p := range paths {
		if hasMeta(p) {
			matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expand %q: %w", p, err)
			}
			for _, m := range matches {
				if isSource(m) && !r.excluded(filepath.ToSlash(m)) {
					add(m)
				}
			}
			continue
		}

		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if isSource(p) && !r.excluded(filepath.ToSlash(filepath.Base(p))) {
				add(p)
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(p, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if rel != "." && r.excluded(rel+"/_") {
					return filepath.SkipDir
				}
				return nil
			}
			if isSource(path) && r.included(rel) && !r.excluded(rel) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *Runner) included(rel string) bool {
	if len(r.cfg.Include) == 0 {
		return true
	}
	return matchAny(r.cfg.Include, rel)
}

func (r *Runner) excluded(rel string) bool {
	return matchAny(r.cfg.Exclude, rel)
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

func isSource(p string) bool {
	ext := filepath.Ext(p)
	return ext == ".ts" || ext == ".tsx"
}
