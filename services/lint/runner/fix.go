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
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/AleutianAI/nglint/services/lint/failure"
)

// FixOptions controls Fix.
type FixOptions struct {
	// DryRun computes the fixed text without writing files.
	DryRun bool

	// Confirm, when set, is asked before each file is written.
	Confirm func(e FileEdit, fixed string) bool
}

// FixResult describes the fixes of one file.
type FixResult struct {
	Path  string
	Fixed string
	// Applied and Skipped count replacements; overlapping replacements
	// after the first are skipped.
	Applied int
	Skipped int
	Written bool
}

// FileEdit holds the replacements targeting one file on disk.
type FileEdit struct {
	Path string
	// Source is the content the replacement offsets refer to.
	Source       string
	Replacements []failure.Replacement
	// Failures counts the fixable failures contributing replacements.
	Failures int
}

// Edits groups the fixes in res by the file each failure is reported
// against.
//
// Description:
//
//	A failure inside an external template or stylesheet carries offsets
//	into that file, so its replacements are applied there and not to the
//	source file that references it. A template shared by several
//	components collects the replacements of all of them. Files with a
//	lint error are skipped.
//
// Outputs:
//   - []FileEdit: One entry per target file, in first-seen order.
//   - error: An external file could not be read.
func Edits(res *Result) ([]FileEdit, error) {
	var out []FileEdit
	index := make(map[string]int)
	for _, f := range res.Files {
		if f.Err != nil || f.Fixable() == 0 {
			continue
		}
		for _, fl := range f.Failures {
			if !fl.HasFix() {
				continue
			}
			target := fl.FileName
			if target == "" {
				target = f.Path
			}
			i, ok := index[target]
			if !ok {
				src, err := f.contentOf(target)
				if err != nil {
					return out, err
				}
				i = len(out)
				index[target] = i
				out = append(out, FileEdit{Path: target, Source: src})
			}
			out[i].Replacements = append(out[i].Replacements, fl.Fix...)
			out[i].Failures++
		}
	}
	return out, nil
}

// contentOf returns the linted content of path: the source itself, a
// resource loaded during the lint, or the file on disk for cached results
// whose dependencies were verified on lookup.
func (f FileResult) contentOf(path string) (string, error) {
	if path == f.Path {
		return f.Source, nil
	}
	if code, ok := f.Resources[path]; ok {
		return code, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("fix %s: %w", path, err)
	}
	return string(data), nil
}

// Fix applies the fixes in res to the files on disk.
//
// Description:
//
//	Replacements are grouped per target file by Edits. Those of one file
//	are applied in a single pass in offset order. A replacement
//	overlapping an earlier one is dropped; running lint again picks it
//	up. Files whose content changed since they were linted are left
//	alone.
//
// Outputs:
//   - []FixResult: One entry per file with at least one fix.
//   - error: The first read or write failure, or ctx's error.
func (r *Runner) Fix(ctx context.Context, res *Result, opts FixOptions) ([]FixResult, error) {
	edits, err := Edits(res)
	if err != nil {
		return nil, err
	}
	var out []FixResult
	for _, e := range edits {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		accepted, skipped := failure.Select(e.Source, e.Replacements)
		fixed, _ := failure.Apply(e.Source, accepted)
		fr := FixResult{Path: e.Path, Fixed: fixed, Applied: len(accepted), Skipped: len(skipped)}
		fixesApplied.WithLabelValues("applied").Add(float64(fr.Applied))
		fixesApplied.WithLabelValues("skipped").Add(float64(fr.Skipped))

		if !opts.DryRun && (opts.Confirm == nil || opts.Confirm(e, fixed)) {
			if err := writeIfUnchanged(e.Path, e.Source, fixed); err != nil {
				return out, err
			}
			fr.Written = true
			r.logger.Info("fixed file",
				slog.String("file", e.Path),
				slog.Int("applied", fr.Applied),
				slog.Int("skipped", fr.Skipped))
		}
		out = append(out, fr)
	}
	return out, nil
}

func writeIfUnchanged(path, original, fixed string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	current, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if string(current) != original {
		return fmt.Errorf("fix %s: file changed since lint", path)
	}
	return os.WriteFile(path, []byte(fixed), info.Mode().Perm())
}
