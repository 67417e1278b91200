// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	meta := Default().Metadata()
	require.Len(t, meta, 10)
	for i := 1; i < len(meta); i++ {
		assert.Less(t, meta[i-1].Name, meta[i].Name)
	}

	rule, err := Default().Get("no-unused-css")
	require.NoError(t, err)
	assert.True(t, rule.Metadata().HasFix)

	_, err = Default().Get("no-such-rule")
	assert.True(t, errors.Is(err, ErrUnknownRule))
}

func TestNewRegistry_Duplicate(t *testing.T) {
	_, err := NewRegistry(TemplateNoThis{}, TemplateNoThis{})
	assert.True(t, errors.Is(err, ErrDuplicateRule))
}

func TestPasses(t *testing.T) {
	passes, err := Default().Passes(map[string]Options{
		"template-no-this":    nil,
		"no-input-prefix":     nil,
		"no-output-prefix":    {"on", "off"},
		"relative-url-prefix": nil,
	}, nil)
	require.NoError(t, err)
	require.Len(t, passes, 2, "rules outside their option bounds are disabled")
	assert.Equal(t, "relative-url-prefix", passes[0].Rule)
	assert.Equal(t, "template-no-this", passes[1].Rule)

	_, err = Default().Passes(map[string]Options{"nope": nil}, nil)
	assert.True(t, errors.Is(err, ErrUnknownRule))

	_, err = Default().Passes(map[string]Options{"no-output-prefix": {"(on"}}, nil)
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

func TestMetadataAccepts(t *testing.T) {
	m := NoOutputPrefix{}.Metadata()
	assert.False(t, m.Accepts(0))
	assert.True(t, m.Accepts(1))
	assert.False(t, m.Accepts(2))
	assert.True(t, ComponentClassSuffix{}.Metadata().Accepts(5))
	assert.True(t, TemplateNoThis{}.Metadata().Accepts(0))
}

func TestReadableList(t *testing.T) {
	assert.Equal(t, "", readableList(nil, "or"))
	assert.Equal(t, `"a"`, readableList([]string{"a"}, "or"))
	assert.Equal(t, `"a" or "b"`, readableList([]string{"a", "b"}, "or"))
	assert.Equal(t, `"a", "b" and "c"`, readableList([]string{"a", "b", "c"}, "and"))
}

func TestOptionsStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Options{true, "a", " ", 3, "b"}.Strings())
}
