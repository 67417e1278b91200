// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/nglint/services/lint/expression"
	"github.com/AleutianAI/nglint/services/lint/rules"
)

func TestDefault(t *testing.T) {
	ResetDefault()
	t.Cleanup(ResetDefault)

	cfg, err := Default(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TransformNone, cfg.Style.Transform)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.MaxFileSize)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, expression.DefaultInterpolation, cfg.InterpolationConfig())
	assert.Contains(t, cfg.EnabledRules(), "no-unused-css")
	assert.NotContains(t, cfg.EnabledRules(), "no-input-prefix")

	again, err := Default(context.Background())
	require.NoError(t, err)
	assert.Same(t, cfg, again)
}

func TestDefaultSelectionBuildsPasses(t *testing.T) {
	cfg, err := Load(context.Background(), nil)
	require.NoError(t, err)
	passes, err := rules.Default().Passes(cfg.Selection(), nil)
	require.NoError(t, err)
	assert.Len(t, passes, len(cfg.EnabledRules()))
}

func TestLoad_RuleForms(t *testing.T) {
	cfg, err := Load(context.Background(), []byte(`
rules:
  template-no-this: true
  no-unused-css: false
  no-input-prefix: [true, "is", "can"]
  no-output-prefix:
    options: ["on"]
  component-class-suffix: [false, "Page"]
`))
	require.NoError(t, err)

	assert.True(t, cfg.Rules["template-no-this"].Enabled)
	assert.False(t, cfg.Rules["no-unused-css"].Enabled)
	assert.Equal(t, []any{"is", "can"}, cfg.Rules["no-input-prefix"].Options)
	assert.True(t, cfg.Rules["no-output-prefix"].Enabled)
	assert.False(t, cfg.Rules["component-class-suffix"].Enabled)
	assert.Equal(t, []string{"no-input-prefix", "no-output-prefix", "template-no-this"}, cfg.EnabledRules())

	// Unset keys keep their defaults.
	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown rule", "rules:\n  no-such-rule: true\n"},
		{"bad transform", "style:\n  transform: less\n"},
		{"bad interpolation", "interpolation: ['{{']\n"},
		{"negative jobs", "jobs: -1\n"},
		{"bad glob", "include: ['src/[a']\n"},
		{"directive without selector", "directives:\n  - name: Foo\n"},
		{"not yaml", "rules: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), []byte(tt.yaml))
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFile(context.Background(), filepath.Join(dir, FileName))
	require.NoError(t, err, "missing file falls back to the default")
	assert.NotEmpty(t, cfg.Rules)

	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte("jobs: 3\ninterpolation: ['[[', ']]']\ndirectives:\n  - name: Tip\n    selector: '[tip]'\n    inputs: [tip]\n"), 0o644))
	cfg, err = LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers())
	assert.Equal(t, "[[", cfg.InterpolationConfig().Start)
	all := cfg.AllDirectives()
	assert.Equal(t, "Tip", all[len(all)-1].Name)
}

func TestFingerprint(t *testing.T) {
	a, err := Load(context.Background(), nil)
	require.NoError(t, err)
	b, err := Load(context.Background(), []byte("jobs: 7\n"))
	require.NoError(t, err)
	c, err := Load(context.Background(), []byte("rules:\n  template-no-this: true\n"))
	require.NoError(t, err)

	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "jobs do not affect results")
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
