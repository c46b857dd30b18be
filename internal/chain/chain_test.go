package chain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rubylens/internal/pin"
)

// fakeResolver is a canned-answer Resolver for link resolution tests.
type fakeResolver struct {
	namespaces map[string]bool
	methods    map[string][]*pin.Pin // keyed by namespace
	constants  map[string][]*pin.Pin // keyed by path
	ivars      map[string][]*pin.Pin
	cvars      map[string][]*pin.Pin
	gvars      []*pin.Pin
}

func (f *fakeResolver) Qualify(name, context string) (string, bool) {
	if context != "" && f.namespaces[context+"::"+name] {
		return context + "::" + name, true
	}
	if f.namespaces[name] {
		return name, true
	}
	return name, false
}

func (f *fakeResolver) TypeMethods(t pin.ComplexType, context string, includePrivate bool) []*pin.Pin {
	if !t.Defined() {
		return nil
	}
	var out []*pin.Pin
	for _, p := range f.methods[t.First().Namespace()] {
		if p.Visibility == pin.Private && !includePrivate {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (f *fakeResolver) PathPins(path string) []*pin.Pin { return f.constants[path] }
func (f *fakeResolver) InstanceVariablePins(fqns string, scope pin.Scope) []*pin.Pin {
	return f.ivars[fqns]
}
func (f *fakeResolver) ClassVariablePins(fqns string) []*pin.Pin { return f.cvars[fqns] }
func (f *fakeResolver) GlobalVariablePins() []*pin.Pin           { return f.gvars }

func newTestResolver() *fakeResolver {
	return &fakeResolver{
		namespaces: map[string]bool{"Foo": true, "String": true},
		methods: map[string][]*pin.Pin{
			"Foo": {
				{Kind: pin.KindMethod, Name: "new", Namespace: "Foo", Scope: pin.ScopeClass, TypeName: "Foo"},
				{Kind: pin.KindMethod, Name: "bar", Namespace: "Foo", TypeName: "String"},
				{Kind: pin.KindMethod, Name: "hidden", Namespace: "Foo", TypeName: "Integer", Visibility: pin.Private},
				{Kind: pin.KindMethod, Name: "itself", Namespace: "Foo", TypeName: "self"},
			},
			"String": {
				{Kind: pin.KindMethod, Name: "upcase", Namespace: "String", TypeName: "String"},
			},
		},
		constants: map[string][]*pin.Pin{
			"Foo": {{Kind: pin.KindNamespace, Name: "Foo"}},
		},
	}
}

func TestNew_PrependsRoot(t *testing.T) {
	t.Parallel()
	c := New(Call{Name: "bar"})
	require.Len(t, c.Links, 2)
	assert.IsType(t, Root{}, c.Links[0])
	assert.Equal(t, 1, c.Length())
}

func TestResolve_EmptyChainIsSelf(t *testing.T) {
	t.Parallel()
	c := New()
	ctx := Context{Namespace: "Foo", Scope: pin.ScopeInstance}
	tp := c.Infer(newTestResolver(), ctx)
	assert.Equal(t, "Foo", tp.Name())
}

func TestResolve_ConstantThenCall(t *testing.T) {
	t.Parallel()
	r := newTestResolver()
	c := New(Constant{Name: "Foo"}, Call{Name: "new"}, Call{Name: "bar"})
	ctx := Context{Namespace: "", Scope: pin.ScopeInstance}

	pins := c.Resolve(r, ctx)
	require.Len(t, pins, 1)
	assert.Equal(t, "bar", pins[0].Name)

	tp := c.Infer(r, ctx)
	assert.Equal(t, "String", tp.Name())
}

func TestResolve_ConstantYieldsClassObject(t *testing.T) {
	t.Parallel()
	c := New(Constant{Name: "Foo"})
	tp := c.Infer(newTestResolver(), Context{})
	require.True(t, tp.Defined())
	assert.True(t, tp.First().ClassObject())
	assert.Equal(t, "Foo", tp.First().Namespace())
}

func TestResolve_SelfReturnType(t *testing.T) {
	t.Parallel()
	c := New(Constant{Name: "Foo"}, Call{Name: "new"}, Call{Name: "itself"})
	tp := c.Infer(newTestResolver(), Context{})
	assert.Equal(t, "Foo", tp.Name(), "self resolves to the receiver")
}

func TestResolve_ImplicitCallReachesPrivate(t *testing.T) {
	t.Parallel()
	r := newTestResolver()
	ctx := Context{Namespace: "Foo", Scope: pin.ScopeInstance}

	implicit := New(Call{Name: "hidden", Implicit: true})
	require.Len(t, implicit.Resolve(r, ctx), 1)

	explicit := New(Constant{Name: "Foo"}, Call{Name: "new"}, Call{Name: "hidden"})
	assert.Empty(t, explicit.Resolve(r, ctx))
}

func TestResolve_LocalShadowsMethod(t *testing.T) {
	t.Parallel()
	r := newTestResolver()
	ctx := Context{
		Namespace: "Foo",
		Scope:     pin.ScopeInstance,
		LocalType: func(name string) (pin.ComplexType, bool) {
			if name == "bar" {
				return pin.InstanceType("String"), true
			}
			return pin.Undefined(), false
		},
	}
	c := New(Call{Name: "bar", Implicit: true}, Call{Name: "upcase"})
	tp := c.Infer(r, ctx)
	assert.Equal(t, "String", tp.Name())
}

func TestResolve_VariableLastAssignmentWins(t *testing.T) {
	t.Parallel()
	r := newTestResolver()
	r.ivars = map[string][]*pin.Pin{"Foo": {
		{Kind: pin.KindInstanceVariable, Name: "@x", Namespace: "Foo", TypeName: "Integer"},
		{Kind: pin.KindInstanceVariable, Name: "@x", Namespace: "Foo", TypeName: "String"},
	}}
	c := New(InstanceVariable{Name: "@x"})
	tp := c.Infer(r, Context{Namespace: "Foo"})
	assert.Equal(t, "String", tp.Name())
}

func TestResolve_UnresolvedDegrades(t *testing.T) {
	t.Parallel()
	c := New(Unresolved{}, Call{Name: "anything"})
	assert.False(t, c.Infer(newTestResolver(), Context{}).Defined())
	assert.Empty(t, c.Resolve(newTestResolver(), Context{}))
}

func TestResolve_LiteralType(t *testing.T) {
	t.Parallel()
	c := New(Literal{TypeName: "String"}, Call{Name: "upcase"})
	tp := c.Infer(newTestResolver(), Context{})
	assert.Equal(t, "String", tp.Name())
}

func TestSelfType_RootIsObject(t *testing.T) {
	t.Parallel()
	ctx := Context{Namespace: "", Scope: pin.ScopeInstance}
	assert.Equal(t, "Object", ctx.SelfType().Name())

	classCtx := Context{Namespace: "Foo", Scope: pin.ScopeClass}
	assert.True(t, classCtx.SelfType().First().ClassObject())
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()
	r := newTestResolver()
	c := New(Constant{Name: "Foo"}, Call{Name: "new"}, Call{Name: "bar"})
	first := c.Infer(r, Context{})
	second := c.Infer(r, Context{})
	assert.Equal(t, first, second)
}
