// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package expression

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisitor_ChainOrderAndDescent(t *testing.T) {
	root, err := ParseBinding("a.b(c)", 0)
	require.NoError(t, err)

	var trace []string
	v := NewVisitor().
		On(KindMethodCall, func(w *Walk, n Node, next Next) {
			trace = append(trace, "first:before")
			next()
			trace = append(trace, "first:after")
		}).
		On(KindMethodCall, func(w *Walk, n Node, next Next) {
			trace = append(trace, "second")
			next()
		}).
		On(KindPropertyRead, func(w *Walk, n Node, next Next) {
			trace = append(trace, "read:"+n.(*PropertyRead).Name)
			next()
		})
	v.Walk(root, BindingProperty)

	assert.Equal(t, []string{"first:before", "second", "read:a", "read:c", "first:after"}, trace)
}

func TestVisitor_HaltingSkipsSubtree(t *testing.T) {
	root, err := ParseBinding("outer(inner())", 0)
	require.NoError(t, err)

	var calls []string
	v := NewVisitor().OnCall(func(w *Walk, n Node, next Next) {
		calls = append(calls, n.(*MethodCall).Name)
	})
	v.Walk(root, BindingInterpolation)
	assert.Equal(t, []string{"outer"}, calls)
}

func TestVisitor_MergeAndParent(t *testing.T) {
	root, err := ParseBinding("x.y", 0)
	require.NoError(t, err)

	var parents []Kind
	var bindings []BindingKind
	a := NewVisitor().On(KindImplicitReceiver, func(w *Walk, n Node, next Next) {
		parents = append(parents, w.Parent().Kind())
		bindings = append(bindings, w.Binding)
		next()
	})
	b := NewVisitor().On(KindImplicitReceiver, func(w *Walk, n Node, next Next) {
		parents = append(parents, KindEmpty)
		next()
	})
	merged := NewVisitor().Merge(a, nil, b)
	assert.False(t, merged.Empty())
	merged.Walk(root, BindingEvent)

	assert.Equal(t, []Kind{KindPropertyRead, KindEmpty}, parents)
	assert.Equal(t, []BindingKind{BindingEvent}, bindings)
	assert.True(t, NewVisitor().Empty())
}

func TestIsExemptCall(t *testing.T) {
	tests := []struct {
		src    string
		exempt bool
	}{
		{"$any(x)", true},
		{"$any(x).foo()", false},
		{"obj.$any(x)", false},
		{"this.$any(x)", true},
		{"this?.$any(x)", true},
		{"this.obj.$any(x)", false},
		{"foo()", false},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			n, err := ParseBinding(tt.src, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.exempt, IsExemptCall(n))
		})
	}
}
