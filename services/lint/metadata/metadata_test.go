// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package metadata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/nglint/services/lint/ast"
)

func parseClasses(t *testing.T, src string) []*ast.ClassDecl {
	t.Helper()
	file, err := ast.NewTypeScriptParser().Parse(context.Background(), []byte(src), "x.ts")
	require.NoError(t, err)
	return file.Classes
}

func TestExtract_Component(t *testing.T) {
	src := `
@Component({
  selector: 'app-foo',
  exportAs: 'foo',
  template: '<div></div>',
  styles: [` + "`div { color: red; }`" + `, 'p {}'],
  styleUrls: ['./foo.css'],
  templateUrl: './foo.html',
  inputs: ['size', 'color: tint'],
  outputs: ['done: finished'],
  host: { '(window:resize)': 'onResize()', '[attr.role]': 'role', tabindex: '0' },
  encapsulation: ViewEncapsulation.Emulated
})
class FooComponent {}
`
	cls := parseClasses(t, src)
	require.Len(t, cls, 1)

	m, ok := Extract(cls[0])
	require.True(t, ok)
	assert.Equal(t, KindComponent, m.Kind)
	assert.Equal(t, "FooComponent", m.ClassName)
	assert.Equal(t, "app-foo", m.Selector)
	assert.Equal(t, "foo", m.ExportAs)

	assert.Equal(t, []Binding{
		{Name: "size", BindingName: "size", Span: m.Inputs[0].Span},
		{Name: "color", BindingName: "tint", Span: m.Inputs[1].Span},
	}, m.Inputs)
	require.Len(t, m.Outputs, 1)
	assert.Equal(t, "finished", m.Outputs[0].BindingName)

	assert.Equal(t, map[string]string{"window:resize": "onResize()"}, m.HostListeners)
	assert.Equal(t, map[string]string{"attr.role": "role"}, m.HostProperties)
	assert.Equal(t, map[string]string{"tabindex": "0"}, m.HostAttributes)

	require.NotNil(t, m.Template)
	assert.Equal(t, "<div></div>", m.Template.Code)
	assert.True(t, m.Template.Inline)
	assert.Equal(t, "<div></div>", src[m.Template.Base:m.Template.Base+len(m.Template.Code)])

	require.Len(t, m.Styles, 2)
	assert.Equal(t, "div { color: red; }", m.Styles[0].Code)
	assert.Equal(t, "div { color: red; }", src[m.Styles[0].Base:m.Styles[0].Base+len(m.Styles[0].Code)])

	require.NotNil(t, m.TemplateURL)
	assert.Equal(t, "./foo.html", m.TemplateURL.URL)
	require.Len(t, m.StyleURLs, 1)
	assert.Equal(t, "./foo.css", m.StyleURLs[0].URL)

	assert.Equal(t, EncapsulationEmulated, m.Encapsulation)
	assert.True(t, m.EncapsulationEnabled())
}

func TestExtract_Encapsulation(t *testing.T) {
	tests := []struct {
		expr    string
		want    Encapsulation
		enabled bool
	}{
		{"", EncapsulationDefault, true},
		{"encapsulation: ViewEncapsulation.None", EncapsulationNone, false},
		{"encapsulation: ViewEncapsulation.Native", EncapsulationNative, true},
		{"encapsulation: ViewEncapsulation.ShadowDom", EncapsulationShadowDom, true},
		{"encapsulation: prefix.foo.ViewEncapsulation.Emulated", EncapsulationEmulated, true},
		{"encapsulation: whatever", EncapsulationUnknown, true},
		{"encapsulation: pick()", EncapsulationUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			cls := parseClasses(t, "@Component({ selector: 'a', "+tt.expr+" }) class A {}")
			m, ok := Extract(cls[0])
			require.True(t, ok)
			assert.Equal(t, tt.want, m.Encapsulation)
			assert.Equal(t, tt.enabled, m.EncapsulationEnabled())
		})
	}
}

func TestExtract_Kinds(t *testing.T) {
	src := `
@Directive({ selector: '[appX]' }) class XDirective {}
@Pipe({ name: 'money' }) class MoneyPipe {}
@Injectable() class Service {}
@Component('bad') class Malformed {}
class Plain {}
`
	cls := parseClasses(t, src)
	require.Len(t, cls, 5)

	kinds := []Kind{KindDirective, KindPipe, KindInjectable, KindComponent}
	for i, want := range kinds {
		m, ok := Extract(cls[i])
		require.True(t, ok, cls[i].Name)
		assert.Equal(t, want, m.Kind)
	}

	pipe, _ := Extract(cls[1])
	assert.Equal(t, "money", pipe.Name)

	malformed, _ := Extract(cls[3])
	assert.Empty(t, malformed.Selector)
	assert.Empty(t, malformed.Inputs)
	assert.Nil(t, malformed.Template)

	_, ok := Extract(cls[4])
	assert.False(t, ok)
}

func TestPropertyBindings(t *testing.T) {
	src := `
@Directive({ selector: '[appX]', inputs: ['legacy'] })
class XDirective {
  @Input() plain: string;
  @Input('renamed') inner: string;
  @Input({ alias: 'objAlias' }) viaObject: string;
  @Output() changed = new EventEmitter();
  @Input()
  set value(v: string) {}
  untouched = 1;
}
`
	cls := parseClasses(t, src)
	bindings := PropertyBindings(cls[0])
	require.Len(t, bindings, 5)

	assert.Equal(t, "plain", bindings[0].BindingName)
	assert.False(t, bindings[0].HasAlias())
	assert.Equal(t, "renamed", bindings[1].BindingName)
	assert.True(t, bindings[1].HasAlias())
	assert.Equal(t, "objAlias", bindings[2].BindingName)
	assert.Equal(t, BindingOutput, bindings[3].Kind)
	assert.Equal(t, "value", bindings[4].Name)

	m, _ := Extract(cls[0])
	decl := m.Declaration()
	assert.Equal(t, "[appX]", decl.Selector)
	assert.ElementsMatch(t, []string{"legacy", "plain", "renamed", "objAlias", "value"}, decl.Inputs)
	assert.Equal(t, []string{"changed"}, decl.Outputs)
	assert.True(t, decl.HasInput("renamed"))
}

func TestRefIDs(t *testing.T) {
	var ids RefIDs
	assert.Equal(t, "1-ref", ids.Next())
	assert.Equal(t, "2-ref", ids.Next())
	ids.Reset()
	assert.Equal(t, "1-ref", ids.Next())
}

func TestDefaultDirectives(t *testing.T) {
	names := map[string]bool{}
	for _, d := range DefaultDirectives() {
		assert.NotEmpty(t, d.Selector)
		names[d.Name] = true
	}
	for _, n := range []string{"NgIf", "NgForOf", "NgClass", "NgStyle", "NgModel", "NgSwitchCase"} {
		assert.True(t, names[n], n)
	}
}
