package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rubylens/internal/pin"
)

func mapTest(t *testing.T, code string) *SourceMap {
	t.Helper()
	tree, err := Parse(context.Background(), []byte(code))
	require.NoError(t, err)
	return MapSource("test.rb", []byte(code), tree)
}

func findPin(sm *SourceMap, path string) *pin.Pin {
	for _, p := range sm.Pins {
		if p.Kind != pin.KindReference && p.Path() == path {
			return p
		}
	}
	return nil
}

func TestMapSource_ClassAndMethod(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\n  def bar\n  end\nend\n")

	ns := findPin(sm, "Foo")
	require.NotNil(t, ns)
	assert.Equal(t, pin.KindNamespace, ns.Kind)
	assert.Equal(t, pin.TypeClass, ns.NamespaceType)

	m := findPin(sm, "Foo#bar")
	require.NotNil(t, m)
	assert.Equal(t, pin.ScopeInstance, m.Scope)
	assert.Equal(t, pin.Public, m.Visibility)
}

func TestMapSource_NestedAndCompactNames(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "module A\n  class B\n  end\nend\nclass A::C\nend\n")
	require.NotNil(t, findPin(sm, "A"))
	require.NotNil(t, findPin(sm, "A::B"))
	c := findPin(sm, "A::C")
	require.NotNil(t, c)
	assert.Equal(t, "A", c.Namespace)
}

func TestMapSource_SuperclassReference(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Sub < Sup\nend\n")
	var ref *pin.Pin
	for _, p := range sm.Pins {
		if p.Kind == pin.KindReference && p.RefKind == pin.RefSuperclass {
			ref = p
		}
	}
	require.NotNil(t, ref)
	assert.Equal(t, "Sup", ref.Name)
	assert.Equal(t, "Sub", ref.Namespace)
}

func TestMapSource_MixinReferences(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\n  include Mixin\n  extend Helpers\nend\n")
	var include, extend *pin.Pin
	for _, p := range sm.Pins {
		if p.Kind != pin.KindReference {
			continue
		}
		switch p.RefKind {
		case pin.RefInclude:
			include = p
		case pin.RefExtend:
			extend = p
		}
	}
	require.NotNil(t, include)
	assert.Equal(t, "Mixin", include.Name)
	assert.Equal(t, "Foo", include.Namespace)
	require.NotNil(t, extend)
	assert.Equal(t, "Helpers", extend.Name)
}

func TestMapSource_BareVisibilityModifier(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\n  def pub\n  end\n  private\n  def hidden\n  end\nend\n")
	assert.Equal(t, pin.Public, findPin(sm, "Foo#pub").Visibility)
	assert.Equal(t, pin.Private, findPin(sm, "Foo#hidden").Visibility)
}

func TestMapSource_VisibilityWithSymbolArg(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\n  def bar\n  end\n  private :bar\nend\n")
	assert.Equal(t, pin.Private, findPin(sm, "Foo#bar").Visibility)
}

func TestMapSource_VisibilityWithDefArg(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\n  private def bar\n  end\nend\n")
	p := findPin(sm, "Foo#bar")
	require.NotNil(t, p)
	assert.Equal(t, pin.Private, p.Visibility)
}

func TestMapSource_AttrAccessor(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\n  # @return [String]\n  attr_accessor :name\n  attr_reader :id\nend\n")
	reader := findPin(sm, "Foo#name")
	require.NotNil(t, reader)
	assert.Equal(t, "String", reader.TypeName)
	writer := findPin(sm, "Foo#name=")
	require.NotNil(t, writer)
	assert.Equal(t, []string{"name"}, writer.Parameters)
	require.NotNil(t, findPin(sm, "Foo#id"))
	assert.Nil(t, findPin(sm, "Foo#id="))
}

func TestMapSource_ConstantAssignment(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\n  MAX = 10\n  NAME = \"foo\"\nend\n")
	max := findPin(sm, "Foo::MAX")
	require.NotNil(t, max)
	assert.Equal(t, pin.KindConstant, max.Kind)
	assert.Equal(t, "Integer", max.TypeName)
	assert.Equal(t, "String", findPin(sm, "Foo::NAME").TypeName)
}

func TestMapSource_PrivateConstant(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\n  SECRET = 1\n  private_constant :SECRET\nend\n")
	p := findPin(sm, "Foo::SECRET")
	require.NotNil(t, p)
	assert.Equal(t, pin.Private, p.Visibility)
}

func TestMapSource_InstanceVariable(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\n  def initialize\n    @name = \"x\"\n  end\nend\n")
	p := findPin(sm, "Foo#@name")
	require.NotNil(t, p)
	assert.Equal(t, pin.ScopeInstance, p.Scope)
	assert.Equal(t, "String", p.TypeName)
}

func TestMapSource_ConstructorCallInference(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\nend\n$f = Foo.new\n")
	p := findPin(sm, "$f")
	require.NotNil(t, p)
	assert.Equal(t, "Foo", p.TypeName)
}

func TestMapSource_MethodDocs(t *testing.T) {
	t.Parallel()
	code := "class Foo\n  # Greets the caller.\n  # @param name [String] who to greet\n  # @return [String]\n  def greet(name)\n  end\nend\n"
	sm := mapTest(t, code)
	p := findPin(sm, "Foo#greet")
	require.NotNil(t, p)
	assert.Equal(t, "String", p.TypeName)
	assert.Contains(t, p.Docs, "Greets the caller.")
	assert.NotContains(t, p.Docs, "@return")
	assert.Equal(t, []string{"name"}, p.Parameters)
}

func TestMapSource_RequireAndAlias(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "require 'set'\nclass Foo\n  def bar\n  end\n  alias baz bar\nend\n")
	reqs := sm.RequirePins()
	require.Len(t, reqs, 1)
	assert.Equal(t, "set", reqs[0].Name)

	al := findPin(sm, "Foo#baz")
	require.NotNil(t, al)
	assert.Equal(t, "bar", al.AliasOf)
}

func TestMapSource_SingletonMethod(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\n  def self.build\n  end\nend\n")
	p := findPin(sm, "Foo.build")
	require.NotNil(t, p)
	assert.Equal(t, pin.ScopeClass, p.Scope)
}

func TestContextAt(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "class Foo\n  def bar\n    x = 1\n  end\nend\n")
	ns, scope := sm.ContextAt(pin.Position{Line: 2, Column: 4})
	assert.Equal(t, "Foo", ns)
	assert.Equal(t, pin.ScopeInstance, scope)

	ns, scope = sm.ContextAt(pin.Position{Line: 0, Column: 0})
	assert.Equal(t, "Foo", ns)
	assert.Equal(t, pin.ScopeClass, scope)
}

func TestLocalsAt(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "def bar(arg)\n  x = 1\n  x\nend\n")
	locals := sm.LocalsAt(pin.Position{Line: 2, Column: 2})
	names := make([]string, 0, len(locals))
	for _, l := range locals {
		names = append(names, l.Pin.Name)
	}
	assert.Contains(t, names, "arg")
	assert.Contains(t, names, "x")

	// Before the assignment only the parameter is visible.
	locals = sm.LocalsAt(pin.Position{Line: 1, Column: 0})
	names = names[:0]
	for _, l := range locals {
		names = append(names, l.Pin.Name)
	}
	assert.Contains(t, names, "arg")
	assert.NotContains(t, names, "x")
}

func TestMapSource_Symbols(t *testing.T) {
	t.Parallel()
	sm := mapTest(t, "STATUS = :ready\n")
	var found bool
	for _, p := range sm.Pins {
		if p.Kind == pin.KindSymbol && p.Name == ":ready" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestMapSource_NilTree(t *testing.T) {
	t.Parallel()
	sm := MapSource("broken.rb", []byte("class"), nil)
	assert.Empty(t, sm.Pins)
	assert.Nil(t, sm.PinAt(pin.Position{Line: 0, Column: 0}))
}
