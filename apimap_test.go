package rubylens

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rubylens/internal/pin"
	"rubylens/internal/source"
	"rubylens/internal/workspace"
)

// newTestAPI maps the given code as a single synchronized source.
func newTestAPI(t *testing.T, code string) *ApiMap {
	t.Helper()
	api := New()
	api.Map(source.New(code, "test.rb"))
	return api
}

func pinNames(pins []*pin.Pin) []string {
	out := make([]string, 0, len(pins))
	for _, p := range pins {
		out = append(out, p.Name)
	}
	return out
}

func pinPaths(pins []*pin.Pin) []string {
	out := make([]string, 0, len(pins))
	for _, p := range pins {
		out = append(out, p.Path())
	}
	return out
}

func TestIndex_IdenticalPinsNoRebuild(t *testing.T) {
	t.Parallel()
	pins := []*pin.Pin{
		{Kind: pin.KindNamespace, Name: "Foo"},
		{Kind: pin.KindMethod, Name: "bar", Namespace: "Foo"},
	}
	api := New()
	api.Index(pins)
	v := api.StoreVersion()
	api.Index(pins)
	assert.Equal(t, v, api.StoreVersion(), "identical pin sets must not rebuild")

	api.Index(append(pins, &pin.Pin{Kind: pin.KindMethod, Name: "baz", Namespace: "Foo"}))
	assert.NotEqual(t, v, api.StoreVersion())
}

func TestMap_UnsynchronizedSourceKeepsStore(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Foo\n  def bar\n  end\nend\n")
	v := api.StoreVersion()

	src := source.New("class Foo\n  def bar\n  end\nend\n", "test.rb")
	staged := src.Stage(source.Updater{Version: 2, Changes: []source.Change{{NewText: "class Baz\nend\n", Full: true}}})
	api.Map(staged)

	assert.Equal(t, v, api.StoreVersion())
	assert.NotEmpty(t, api.PathPins("Foo#bar"), "pins still come from the last synchronized text")
	assert.Empty(t, api.PathPins("Baz"))
}

func TestMap_IdenticalContentNoRebuild(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Foo\nend\n")
	v := api.StoreVersion()
	api.Map(source.New("class Foo\nend\n", "test.rb"))
	assert.Equal(t, v, api.StoreVersion())
}

func TestCatalog_ReplacesPinSet(t *testing.T) {
	t.Parallel()
	api := New()

	bundle, err := workspace.NewBundle(context.Background(), nil, source.New("class Foo\nend\n", "a.rb"))
	require.NoError(t, err)
	require.NoError(t, api.Catalog(bundle))
	assert.NotEmpty(t, api.PathPins("Foo"))

	bundle, err = workspace.NewBundle(context.Background(), nil, source.New("class Bar\nend\n", "b.rb"))
	require.NoError(t, err)
	require.NoError(t, api.Catalog(bundle))
	assert.Empty(t, api.PathPins("Foo"), "pins from dropped sources disappear")
	assert.NotEmpty(t, api.PathPins("Bar"))
}

func TestCatalog_UnresolvedRequires(t *testing.T) {
	t.Parallel()
	api := New()
	bundle, err := workspace.NewBundle(context.Background(), nil,
		source.New("require 'nonexistent'\nrequire 'alsomissing'\n", "a.rb"))
	require.NoError(t, err)
	require.NoError(t, api.Catalog(bundle))
	assert.Equal(t, []string{"alsomissing", "nonexistent"}, api.UnresolvedRequires())
}

func TestMethods_IncludedMixin(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "module Mixin\n  def mix_method\n  end\nend\nclass Foo\n  include Mixin\n  def bar\n  end\nend\n")
	names := pinNames(api.Methods("Foo", pin.ScopeInstance))
	assert.Contains(t, names, "bar")
	assert.Contains(t, names, "mix_method")
}

func TestMethods_InheritedFromSuperclass(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Sup\n  def sup_method\n  end\nend\nclass Sub < Sup\nend\n")
	names := pinNames(api.Methods("Sub", pin.ScopeInstance))
	assert.Contains(t, names, "sup_method")
}

func TestMethods_VisibilityFilter(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Foo\n  private\n  def bar\n  end\nend\n")
	assert.NotContains(t, pinNames(api.Methods("Foo", pin.ScopeInstance)), "bar")
	assert.Contains(t, pinNames(api.Methods("Foo", pin.ScopeInstance, pin.Private)), "bar")
}

func TestMethods_AncestorsDropPrivate(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Sup\n  private\n  def hidden\n  end\nend\nclass Sub < Sup\nend\n")
	assert.NotContains(t, pinNames(api.Methods("Sub", pin.ScopeInstance, pin.Public, pin.Protected, pin.Private)), "hidden")
}

func TestMethods_ShadowingDedup(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Sup\n  def hello\n  end\nend\nclass Sub < Sup\n  def hello\n  end\nend\n")
	var count int
	var owner string
	for _, p := range api.Methods("Sub", pin.ScopeInstance) {
		if p.Name == "hello" {
			count++
			owner = p.Namespace
		}
	}
	assert.Equal(t, 1, count, "exactly one pin per shadowed name")
	assert.Equal(t, "Sub", owner, "the first pin in MRO order wins")
}

func TestMethodStack_FullChain(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "module Mixin\n  def hello\n  end\nend\nclass Sup\n  def hello\n  end\nend\nclass Sub < Sup\n  include Mixin\n  def hello\n  end\nend\n")
	stack := api.MethodStack("Sub", pin.ScopeInstance, "hello")
	require.Len(t, stack, 3)
	assert.Equal(t, "Sub", stack[0].Namespace)
	assert.Equal(t, "Mixin", stack[1].Namespace)
	assert.Equal(t, "Sup", stack[2].Namespace)
}

func TestMethodStack_RootNamespace(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "def top_level\nend\n")
	stack := api.MethodStack("", pin.ScopeInstance, "top_level")
	require.Len(t, stack, 1, "root stack lists the pin exactly once")
	assert.Equal(t, "", stack[0].Namespace)
}

func TestMethods_UndefinedSuperclassNeverRaises(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Sub < Undefined\n  def own\n  end\nend\n")
	names := pinNames(api.Methods("Sub", pin.ScopeInstance))
	assert.Contains(t, names, "own", "ancestry resolution simply stops")
}

func TestMethods_ExtendGivesClassMethods(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "module Helpers\n  def helper\n  end\nend\nclass Foo\n  extend Helpers\nend\n")
	assert.Contains(t, pinNames(api.Methods("Foo", pin.ScopeClass)), "helper")
	assert.NotContains(t, pinNames(api.Methods("Foo", pin.ScopeInstance)), "helper")
}

func TestMethods_MostRecentIncludeFirst(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "module A\n  def hello\n  end\nend\nmodule B\n  def hello\n  end\nend\nclass Foo\n  include A\n  include B\nend\n")
	stack := api.MethodStack("Foo", pin.ScopeInstance, "hello")
	require.Len(t, stack, 2)
	assert.Equal(t, "B", stack[0].Namespace, "most recently included module wins")
	assert.Equal(t, "A", stack[1].Namespace)
}

func TestMethods_SynthesizedNew(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Foo\n  def initialize(name, age)\n  end\nend\n")
	var newPin *pin.Pin
	for _, p := range api.Methods("Foo", pin.ScopeClass) {
		if p.Name == "new" {
			newPin = p
			break
		}
	}
	require.NotNil(t, newPin)
	assert.Equal(t, "Foo", newPin.TypeName)
	assert.Equal(t, []string{"name", "age"}, newPin.Parameters)
}

func TestMethods_ModulesGetNoSynthesizedNew(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "module Helpers\n  def self.wrap\n  end\nend\n")
	names := pinNames(api.Methods("Helpers", pin.ScopeClass))
	assert.Contains(t, names, "wrap")
	assert.NotContains(t, names, "new", "modules cannot be instantiated")
	assert.Contains(t, names, "instance_methods", "module objects answer Module instance methods")
}

func TestMethods_UnknownNamespaceClassScope(t *testing.T) {
	t.Parallel()
	api := New()
	assert.Empty(t, api.Methods("TotallyUnknown", pin.ScopeClass), "undeclared names have no metaclass to answer for")
}

func TestMethods_AliasResolvesTargetType(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Foo\n  # @return [String]\n  def name\n  end\n  alias_method :title, :name\n  alias label title\nend\n")

	stack := api.MethodStack("Foo", pin.ScopeInstance, "title")
	require.Len(t, stack, 1)
	assert.Equal(t, "String", stack[0].ReturnType().Name())

	stack = api.MethodStack("Foo", pin.ScopeInstance, "label")
	require.Len(t, stack, 1)
	assert.Equal(t, "String", stack[0].ReturnType().Name(), "aliases of aliases follow the hops")
}

func TestMethods_CoreInheritance(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Foo\nend\n")
	names := pinNames(api.Methods("Foo", pin.ScopeInstance))
	assert.Contains(t, names, "to_s", "workspace classes inherit Object")
	assert.Contains(t, names, "puts", "Kernel is mixed into Object")
}

func TestQualify(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "module A\n  class B\n    class C\n    end\n  end\nend\nclass B\nend\n")

	fq, ok := api.Qualify("B", "A")
	require.True(t, ok)
	assert.Equal(t, "A::B", fq, "lexical scope wins over the root")

	fq, ok = api.Qualify("::B", "A")
	require.True(t, ok)
	assert.Equal(t, "B", fq, "a leading :: anchors at the root")

	fq, ok = api.Qualify("C", "A::B")
	require.True(t, ok)
	assert.Equal(t, "A::B::C", fq)

	fq, ok = api.Qualify("B::C", "A")
	require.True(t, ok)
	assert.Equal(t, "A::B::C", fq)

	fq, ok = api.Qualify("String", "A::B")
	require.True(t, ok)
	assert.Equal(t, "String", fq, "core names resolve from any context")

	fq, ok = api.Qualify("Missing", "A")
	assert.False(t, ok)
	assert.Equal(t, "Missing", fq, "unresolved names come back unchanged")
}

func TestQualify_ThroughAncestry(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Sup\n  class Nested\n  end\nend\nclass Sub < Sup\nend\n")
	fq, ok := api.Qualify("Nested", "Sub")
	require.True(t, ok)
	assert.Equal(t, "Sup::Nested", fq)
}

func TestQualify_LexicalScopeBeatsIncludedModule(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "module M\n  X = 1\nend\nmodule A\n  X = 2\n  module B\n    include M\n  end\nend\n")
	fq, ok := api.Qualify("X", "A::B")
	require.True(t, ok)
	assert.Equal(t, "A::X", fq, "every enclosing namespace is checked before any included module")
}

func TestConstants_SortedAndVisibilityFiltered(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Foo\n  ZETA = 1\n  ALPHA = 2\n  SECRET = 3\n  private_constant :SECRET\nend\n")

	outside := pinNames(api.Constants("Foo", ""))
	assert.Equal(t, []string{"ALPHA", "ZETA"}, outside)

	inside := pinNames(api.Constants("Foo", "Foo"))
	assert.Equal(t, []string{"ALPHA", "SECRET", "ZETA"}, inside)

	nested := pinNames(api.Constants("Foo", "Foo::Inner"))
	assert.Contains(t, nested, "SECRET", "descendants of the declaring namespace see private constants")
}

func TestConstants_Root(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Workspace\nend\n")
	names := pinNames(api.Constants("", ""))
	assert.Contains(t, names, "Workspace")
	assert.Contains(t, names, "Object")
}

func TestConstantReopenedAsNamespace(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Outer\n  Bar = String\n  class Bar\n    def reopened\n    end\n  end\nend\n")

	// The namespace declaration answers for methods.
	assert.Contains(t, pinNames(api.Methods("Outer::Bar", pin.ScopeInstance)), "reopened")

	// The constant pin stays independently queryable.
	kinds := make(map[pin.Kind]bool)
	for _, p := range api.PathPins("Outer::Bar") {
		kinds[p.Kind] = true
	}
	assert.True(t, kinds[pin.KindConstant])
	assert.True(t, kinds[pin.KindNamespace])
}

func TestTypeMethods_ClassObject(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Foo\n  def self.build\n  end\n  def inst\n  end\nend\n")

	classSide := pinNames(api.TypeMethods(pin.ClassType("Foo"), "", false))
	assert.Contains(t, classSide, "build")
	assert.Contains(t, classSide, "new")
	assert.NotContains(t, classSide, "inst")

	instSide := pinNames(api.TypeMethods(pin.InstanceType("Foo"), "", false))
	assert.Contains(t, instSide, "inst")
	assert.NotContains(t, instSide, "build")
}

func TestTypeMethods_Duck(t *testing.T) {
	t.Parallel()
	api := New()
	names := pinNames(api.TypeMethods(pin.ParseType("#quack"), "", false))
	assert.Contains(t, names, "quack")
	assert.Contains(t, names, "to_s", "duck types carry the universal object methods")
}

func TestTypeMethods_ProtectedWithinAncestry(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Sup\n  protected\n  def prot\n  end\nend\nclass Sub < Sup\nend\n")

	assert.NotContains(t, pinNames(api.TypeMethods(pin.InstanceType("Sup"), "", false)), "prot")
	assert.Contains(t, pinNames(api.TypeMethods(pin.InstanceType("Sup"), "Sub", false)), "prot")
	assert.Contains(t, pinNames(api.TypeMethods(pin.InstanceType("Sub"), "Sup", false)), "prot")
}

func TestTypeMethods_PrivateAccess(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Foo\n  private\n  def hidden\n  end\nend\n")

	assert.NotContains(t, pinNames(api.TypeMethods(pin.InstanceType("Foo"), "Elsewhere", false)), "hidden")
	assert.Contains(t, pinNames(api.TypeMethods(pin.InstanceType("Foo"), "Foo", false)), "hidden")
	assert.Contains(t, pinNames(api.TypeMethods(pin.InstanceType("Foo"), "Elsewhere", true)), "hidden")
}

func TestTypeMethods_Undefined(t *testing.T) {
	t.Parallel()
	api := New()
	assert.Nil(t, api.TypeMethods(pin.Undefined(), "", false))
}

func TestInstanceVariablePins_Inherited(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Sup\n  def initialize\n    @base = 1\n  end\nend\nclass Sub < Sup\n  def more\n    @extra = 2\n  end\nend\n")
	names := pinNames(api.InstanceVariablePins("Sub", pin.ScopeInstance))
	assert.Contains(t, names, "@extra")
	assert.Contains(t, names, "@base", "subclasses see superclass instance variables")
}

func TestGlobalAndClassVariables(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "$debug = true\nclass Foo\n  @@count = 0\nend\n")
	assert.Contains(t, pinNames(api.GlobalVariablePins()), "$debug")
	assert.Contains(t, pinNames(api.ClassVariablePins("Foo")), "@@count")
}

func TestSearchAndDocument(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class Widget\n  # Renders the widget.\n  def render\n  end\nend\n")

	paths := api.Search("Widget")
	assert.Contains(t, paths, "Widget")
	assert.Contains(t, paths, "Widget#render")

	docs := api.Document("Widget#render")
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Docs, "Renders the widget.")
	assert.Empty(t, api.Document("Widget"))
}

func TestPathPins_WorkspaceShadowsCore(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, "class String\n  def shout\n  end\nend\n")
	pins := api.PathPins("String")
	require.NotEmpty(t, pins)
	assert.Equal(t, "test.rb", pins[len(pins)-1].Location.Filename, "the last pin is the most recently indexed")
	assert.Contains(t, pinNames(api.Methods("String", pin.ScopeInstance)), "shout")
	assert.Contains(t, pinNames(api.Methods("String", pin.ScopeInstance)), "upcase")
}
