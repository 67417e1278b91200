// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"encoding/json"
	"io"

	"github.com/AleutianAI/nglint/services/lint/failure"
	"github.com/AleutianAI/nglint/services/lint/runner"
)

// JSON renders the result as one document.
type JSON struct {
	Indent bool
}

// Document is the JSON report shape.
type Document struct {
	RunID    string     `json:"runId"`
	Files    []FileJSON `json:"files"`
	Failures int        `json:"failureCount"`
	Errors   int        `json:"errorCount"`
	Fixable  int        `json:"fixableCount"`
}

// FileJSON is one file of a Document.
type FileJSON struct {
	Name     string            `json:"name"`
	Failures []failure.Failure `json:"failures"`
	Error    string            `json:"error,omitempty"`
	Cached   bool              `json:"cached,omitempty"`
}

// NewDocument builds the JSON document of res.
func NewDocument(res *runner.Result) Document {
	doc := Document{
		RunID:    res.RunID,
		Files:    make([]FileJSON, 0, len(res.Files)),
		Failures: res.FailureCount(),
		Errors:   res.ErrorCount(),
		Fixable:  res.FixableCount(),
	}
	for _, f := range res.Files {
		fj := FileJSON{Name: f.Path, Failures: f.Failures, Cached: f.Cached}
		if fj.Failures == nil {
			fj.Failures = []failure.Failure{}
		}
		if f.Err != nil {
			fj.Error = f.Err.Error()
		}
		doc.Files = append(doc.Files, fj)
	}
	return doc
}

func (j JSON) Format(w io.Writer, res *runner.Result) error {
	enc := json.NewEncoder(w)
	if j.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(NewDocument(res))
}
