// Package pin defines the immutable declaration records the index is built
// from: one Pin per declared class, module, method, constant, or variable,
// plus reference pins carrying inheritance and mixin relationships.
package pin

import "strings"

// Kind tags a Pin with the sort of declaration it records.
type Kind int

const (
	KindNamespace Kind = iota + 1
	KindMethod
	KindConstant
	KindInstanceVariable
	KindClassVariable
	KindGlobalVariable
	KindSymbol
	KindLocalVariable
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindNamespace:
		return "namespace"
	case KindMethod:
		return "method"
	case KindConstant:
		return "constant"
	case KindInstanceVariable:
		return "ivar"
	case KindClassVariable:
		return "cvar"
	case KindGlobalVariable:
		return "gvar"
	case KindSymbol:
		return "symbol"
	case KindLocalVariable:
		return "local"
	case KindReference:
		return "reference"
	}
	return "unknown"
}

// Scope distinguishes instance-level from class-level methods and variables.
type Scope int

const (
	ScopeInstance Scope = iota
	ScopeClass
)

func (s Scope) String() string {
	if s == ScopeClass {
		return "class"
	}
	return "instance"
}

// Visibility is a method or constant's access level.
type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	}
	return "public"
}

// NamespaceType distinguishes class namespaces from module namespaces.
type NamespaceType int

const (
	TypeClass NamespaceType = iota
	TypeModule
)

// RefKind tags reference pins: relationships a namespace declares rather
// than members it owns.
type RefKind int

const (
	RefInclude RefKind = iota + 1
	RefExtend
	RefSuperclass
	RefRequire
)

// Pin is one declared symbol. Pins are immutable once constructed; an
// update to a declaration produces a new Pin, never a mutation.
type Pin struct {
	Kind       Kind
	Name       string
	Namespace  string // owning fully qualified namespace, "" for root
	Scope      Scope
	Visibility Visibility
	Location   Location
	Docs       string

	// TypeName is the declared or inferred type expression, e.g. "String"
	// or "Array<Integer>". Empty means undefined.
	TypeName string

	// NamespaceType is meaningful for KindNamespace pins only.
	NamespaceType NamespaceType

	// RefKind is meaningful for KindReference pins only; Name then holds
	// the referenced constant or require string.
	RefKind RefKind

	// AliasOf names the original method when this method pin was produced
	// by alias or alias_method. The alias resolves its type through the
	// target's method stack.
	AliasOf string

	// Parameters holds method parameter names in declaration order.
	Parameters []string

	rt *ComplexType // lazy parse cache for TypeName
}

// Path returns the pin's globally unique qualified identifier: Foo#bar for
// an instance method, Foo.bar for a class method, Foo::BAR for constants
// and nested namespaces.
func (p *Pin) Path() string {
	switch p.Kind {
	case KindMethod:
		if p.Scope == ScopeClass {
			return join(p.Namespace, ".", p.Name)
		}
		return join(p.Namespace, "#", p.Name)
	case KindNamespace, KindConstant:
		return join(p.Namespace, "::", p.Name)
	case KindInstanceVariable, KindClassVariable:
		return join(p.Namespace, "#", p.Name)
	default:
		return p.Name
	}
}

func join(ns, sep, name string) string {
	if ns == "" {
		return name
	}
	return ns + sep + name
}

// ReturnType parses TypeName once and caches the result. Safe because pins
// are confined to the single-threaded build before the store is published.
func (p *Pin) ReturnType() ComplexType {
	if p.rt == nil {
		t := ParseType(p.TypeName)
		p.rt = &t
	}
	return *p.rt
}

// WithType returns a copy of p carrying the given type expression. The
// parse cache is reset so the copy reflects the new type.
func (p *Pin) WithType(typeName string) *Pin {
	cp := *p
	cp.TypeName = typeName
	cp.rt = nil
	return &cp
}

// Identity returns the string hashed into the owning pin set's identity.
// Two pins with equal identities are interchangeable for cache purposes.
func (p *Pin) Identity() string {
	var b strings.Builder
	b.WriteString(p.Path())
	b.WriteByte('|')
	b.WriteString(p.Kind.String())
	b.WriteByte('|')
	b.WriteString(p.Scope.String())
	b.WriteByte('|')
	b.WriteString(p.Visibility.String())
	b.WriteByte('|')
	b.WriteString(p.TypeName)
	b.WriteByte('|')
	b.WriteString(p.Location.String())
	return b.String()
}

// TopLevel reports whether the pin lives directly in the root namespace.
func (p *Pin) TopLevel() bool {
	return p.Namespace == ""
}
