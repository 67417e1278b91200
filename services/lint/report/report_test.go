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
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/nglint/services/lint/failure"
	"github.com/AleutianAI/nglint/services/lint/runner"
	"github.com/AleutianAI/nglint/services/lint/text"
)

const fixtureSource = "line one\nconst a = this.value;\nline three\nline four\n"

func fixtureResult() *runner.Result {
	li := text.NewLineIndex(fixtureSource)
	start := strings.Index(fixtureSource, "this.")
	return &runner.Result{
		RunID: "run-1",
		Files: []runner.FileResult{
			{
				Path:   "src/a.component.ts",
				Source: fixtureSource,
				Failures: []failure.Failure{
					failure.New("template-no-this", "src/a.component.ts", text.NewSpan(start, start+5), li,
						"Avoid using 'this' in templates", failure.Delete(start, 5)),
					failure.New("no-unused-css", "src/a.component.ts", text.NewSpan(0, 4), li, "Unused styles"),
				},
			},
			{Path: "src/clean.ts"},
			{Path: "src/broken.ts", Err: errors.New("boom")},
		},
	}
}

func TestNew(t *testing.T) {
	for _, name := range Formats() {
		f, err := New(name)
		require.NoError(t, err)
		assert.NotNil(t, f)
	}
	_, err := New("xml")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestStylish(t *testing.T) {
	var buf bytes.Buffer
	f, err := New("stylish", WithColor(false))
	require.NoError(t, err)
	require.NoError(t, f.Format(&buf, fixtureResult()))

	out := buf.String()
	assert.Contains(t, out, "src/a.component.ts\n")
	assert.Contains(t, out, "2:11")
	assert.Contains(t, out, "Avoid using 'this' in templates  template-no-this")
	assert.Contains(t, out, "error: boom")
	assert.NotContains(t, out, "src/clean.ts")
	assert.Contains(t, out, "✖ 2 problems in 3 files, 1 error (1 fixable with --fix)")
	assert.NotContains(t, out, "\x1b[", "no escape codes without color")
}

func TestStylish_Clean(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&Stylish{}).Format(&buf, &runner.Result{Files: []runner.FileResult{{Path: "a.ts"}}}))
	assert.Contains(t, buf.String(), "1 files, no problems")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON{Indent: true}.Format(&buf, fixtureResult()))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, 2, doc.Failures)
	assert.Equal(t, 1, doc.Errors)
	assert.Equal(t, 1, doc.Fixable)
	require.Len(t, doc.Files, 3)
	assert.Equal(t, "template-no-this", doc.Files[0].Failures[0].RuleName)
	assert.NotNil(t, doc.Files[1].Failures)
	assert.Equal(t, "boom", doc.Files[2].Error)
	assert.Contains(t, buf.String(), `"failures": []`)
}

func TestDiff(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Diff{}.Format(&buf, fixtureResult()))
	out := buf.String()
	assert.Contains(t, out, "--- a/src/a.component.ts")
	assert.Contains(t, out, "+++ b/src/a.component.ts")
	assert.Contains(t, out, "@@ -1,4 +1,4 @@")
	assert.Contains(t, out, "-const a = this.value;\n+const a = value;\n")
	assert.Contains(t, out, " line one\n")
	assert.NotContains(t, out, "clean.ts")
}

func TestDiff_ExternalTemplate(t *testing.T) {
	const src = "@Component({ templateUrl: './a.component.html' })\nexport class A {}\n"
	const html = "<p>{{ this.title }}</p>\n"
	start := strings.Index(html, "this.")
	res := &runner.Result{Files: []runner.FileResult{{
		Path:      "src/a.component.ts",
		Source:    src,
		Resources: map[string]string{"src/a.component.html": html},
		Failures: []failure.Failure{
			failure.New("template-no-this", "src/a.component.html", text.NewSpan(start, start+5),
				text.NewLineIndex(html), "Avoid using 'this' in templates", failure.Delete(start, 5)),
		},
	}}}

	var buf bytes.Buffer
	require.NoError(t, Diff{}.Format(&buf, res))
	out := buf.String()
	assert.Contains(t, out, "+++ b/src/a.component.html")
	assert.Contains(t, out, "-<p>{{ this.title }}</p>\n+<p>{{ title }}</p>\n")
	assert.NotContains(t, out, "a.component.ts")
}

func TestFileDiff_Hunks(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 20; i++ {
		b.WriteString("line ")
		b.WriteString(strings.Repeat("x", i))
		b.WriteString("\n")
	}
	src := b.String()
	first := strings.Index(src, "line x\n")
	last := strings.Index(src, "line "+strings.Repeat("x", 20))

	fd := FileDiff("f.ts", src, []failure.Replacement{
		failure.Delete(first, len("line x\n")),
		failure.Replace(last, 4, "LINE"),
	})
	require.NotNil(t, fd)
	require.Len(t, fd.Hunks, 2)

	h := fd.Hunks[0]
	assert.Equal(t, int32(1), h.OrigStartLine)
	assert.Equal(t, int32(4), h.OrigLines)
	assert.Equal(t, int32(3), h.NewLines)
	assert.True(t, strings.HasPrefix(string(h.Body), "-line x\n line xx\n"))

	h = fd.Hunks[1]
	assert.Equal(t, int32(17), h.OrigStartLine)
	assert.Equal(t, int32(16), h.NewStartLine)
	assert.Contains(t, string(h.Body), "+LINE "+strings.Repeat("x", 20)+"\n")
}

func TestFileDiff_NoChange(t *testing.T) {
	assert.Nil(t, FileDiff("f.ts", "abc", nil))
	assert.Nil(t, FileDiff("f.ts", "abc", []failure.Replacement{failure.Replace(0, 1, "a")}))
}
