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
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for a burst of events to settle.
const DefaultDebounce = 150 * time.Millisecond

// watchedExt lists the extensions whose changes trigger a relint.
var watchedExt = map[string]bool{
	".ts": true, ".tsx": true,
	".html": true,
	".css":  true, ".scss": true, ".sass": true,
}

// Watch lints paths once, then again whenever a source, template or
// stylesheet under them changes, until ctx is done.
//
// Description:
//
//	A change to a .ts file relints that file. A change to a template or
//	stylesheet relints every source file in the same directory, since any
//	of them may reference it. Each lint is delivered to onResult.
//
// Outputs:
//   - error: Setup failures. A done ctx returns nil.
func (r *Runner) Watch(ctx context.Context, paths []string, onResult func(*Result)) error {
	files, err := r.Expand(paths)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer w.Close()

	for _, p := range paths {
		if err := addTree(w, p); err != nil {
			return err
		}
	}

	res, err := r.LintFiles(ctx, files)
	if err != nil {
		return nilIfDone(ctx, err)
	}
	onResult(res)

	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("watch error", slog.String("error", err.Error()))
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addTree(w, ev.Name); err != nil {
						r.logger.Warn("watch add failed", slog.String("dir", ev.Name), slog.String("error", err.Error()))
					}
					continue
				}
			}
			if !watchedExt[filepath.Ext(ev.Name)] || ev.Op == fsnotify.Chmod {
				continue
			}
			pending[filepath.Clean(ev.Name)] = true
			timer.Reset(DefaultDebounce)
		case <-timer.C:
			// Refresh the file list so created and deleted files are seen.
			if files, err = r.Expand(paths); err != nil {
				r.logger.Warn("watch expand failed", slog.String("error", err.Error()))
				continue
			}
			targets := affected(files, pending)
			clear(pending)
			if len(targets) == 0 {
				continue
			}
			res, err := r.LintFiles(ctx, targets)
			if err != nil {
				return nilIfDone(ctx, err)
			}
			onResult(res)
		}
	}
}

// affected selects the files to relint for a set of changed paths.
func affected(files []string, changed map[string]bool) []string {
	dirs := make(map[string]bool)
	for p := range changed {
		if !isSource(p) {
			dirs[filepath.Clean(filepath.Dir(p))] = true
		}
	}
	var out []string
	for _, f := range files {
		if changed[f] || dirs[filepath.Dir(f)] {
			out = append(out, f)
		}
	}
	return out
}

func addTree(w *fsnotify.Watcher, root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(root))
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (d.Name() == "node_modules" || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

func nilIfDone(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return nil
	}
	return err
}
