package rubylens

import (
	"strings"

	"rubylens/internal/pin"
	"rubylens/internal/store"
)

// Methods returns the deduplicated method pins visible on fqns at the
// given scope, in method resolution order: own methods, then included
// modules (most recently included first), then the superclass and its
// modules, recursively. For class scope, extended modules answer as
// class-level methods, a `new` pin is synthesized from `initialize`, and
// the chain ends with the methods of the class object itself. Shadowed
// definitions are dropped; MethodStack returns them.
//
// The visibility filter defaults to public only; pass an explicit set to
// override. Ancestors never contribute private methods regardless of the
// filter.
func (a *ApiMap) Methods(fqns string, scope pin.Scope, visibility ...pin.Visibility) []*pin.Pin {
	if len(visibility) == 0 {
		visibility = []pin.Visibility{pin.Public}
	}
	allowed := make(map[pin.Visibility]bool, len(visibility))
	for _, v := range visibility {
		allowed[v] = true
	}
	var out []*pin.Pin
	seen := make(map[string]bool)
	for _, p := range a.methodChain(fqns, scope) {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		if allowed[p.Visibility] {
			out = append(out, p)
		}
	}
	return out
}

// MethodStack returns the entire ordered shadowing chain for one method
// name: every pin reachable in MRO order, private included, with no
// deduplication beyond genuine multiple definitions.
func (a *ApiMap) MethodStack(fqns string, scope pin.Scope, name string) []*pin.Pin {
	var out []*pin.Pin
	for _, p := range a.methodChain(fqns, scope) {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// TypeMethods returns the methods answering for a complex type, deduped
// by name across the type's items. Protected methods are included when
// context shares an ancestry chain with the item's namespace; private
// methods when includePrivate is set or context is the exact declaring
// namespace.
func (a *ApiMap) TypeMethods(t pin.ComplexType, context string, includePrivate bool) []*pin.Pin {
	if !t.Defined() {
		return nil
	}
	var out []*pin.Pin
	seen := make(map[string]bool)
	for _, item := range t.Items {
		for _, p := range a.uniqueTypeMethods(item, context, includePrivate) {
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			out = append(out, p)
		}
	}
	return out
}

func (a *ApiMap) uniqueTypeMethods(u pin.UniqueType, context string, includePrivate bool) []*pin.Pin {
	if u.Duck() {
		// Every duck type is implicitly an object, so the synthesized
		// capability rides on top of the universal instance methods.
		out := []*pin.Pin{{
			Kind: pin.KindMethod,
			Name: strings.TrimPrefix(u.Name, "#"),
		}}
		return append(out, a.Methods("Object", pin.ScopeInstance)...)
	}
	ns := u.Namespace()
	scope := pin.ScopeInstance
	if u.ClassObject() {
		scope = pin.ScopeClass
	}
	vis := []pin.Visibility{pin.Public}
	if a.sharesAncestry(context, ns) {
		vis = append(vis, pin.Protected)
	}
	if includePrivate || context == ns {
		vis = append(vis, pin.Private)
	}
	return a.Methods(ns, scope, vis...)
}

// methodChain collects the raw MRO-ordered pin sequence for fqns.
func (a *ApiMap) methodChain(fqns string, scope pin.Scope) []*pin.Pin {
	var out []*pin.Pin
	seen := make(map[string]bool)
	a.appendMethods(fqns, scope, true, seen, &out)
	// Only declared namespaces have a metaclass to answer for; modules
	// cannot be instantiated, so they get no synthesized new.
	if scope == pin.ScopeClass {
		if nt, ok := a.namespaceTypeOf(fqns); ok {
			if nt == pin.TypeClass {
				out = append(out, a.synthesizedNew(fqns))
				a.appendMethods("Class", pin.ScopeInstance, false, seen, &out)
			} else {
				a.appendMethods("Module", pin.ScopeInstance, false, seen, &out)
			}
		}
	}
	return resolveAliases(out)
}

// appendMethods is the MRO walk. keepPrivate is true only for the
// starting namespace; ancestors drop their private methods. The seen set
// keeps reopened and diamond-shaped ancestries from contributing twice.
func (a *ApiMap) appendMethods(fqns string, scope pin.Scope, keepPrivate bool, seen map[string]bool, out *[]*pin.Pin) {
	key := fqns + "|" + scope.String()
	if seen[key] {
		return
	}
	seen[key] = true

	// Workspace declarations come first so a reopened core class sees its
	// own redefinitions win.
	for _, s := range [2]*store.Store{a.ws.Load(), a.core} {
		for _, p := range s.Methods(fqns, scope) {
			if !keepPrivate && p.Visibility == pin.Private {
				continue
			}
			*out = append(*out, p)
		}
	}
	if fqns == "" {
		return
	}

	if scope == pin.ScopeInstance {
		for _, inc := range reversed(a.includesOf(fqns)) {
			if fq, ok := a.Qualify(inc, fqns); ok {
				a.appendMethods(fq, pin.ScopeInstance, keepPrivate, seen, out)
			}
		}
	} else {
		for _, ext := range reversed(a.extendsOf(fqns)) {
			if fq, ok := a.Qualify(ext, fqns); ok {
				a.appendMethods(fq, pin.ScopeInstance, keepPrivate, seen, out)
			}
		}
	}

	// An unresolvable superclass just ends the walk. Classes with no
	// declared superclass implicitly inherit Object.
	if sc, ok := a.superclassOf(fqns); ok {
		if fq, ok := a.Qualify(sc, parentNamespace(fqns)); ok {
			a.appendMethods(fq, scope, false, seen, out)
		}
	} else if fqns != "BasicObject" && a.isClass(fqns) {
		a.appendMethods("Object", scope, false, seen, out)
	}

	// Top-level method definitions behave as if mixed into Object.
	if fqns == "Object" && scope == pin.ScopeInstance {
		a.appendMethods("", pin.ScopeInstance, keepPrivate, seen, out)
	}
}

// resolveAliases gives each untyped alias pin the type of its target,
// looked up in chain order so the most recent definition wins. Aliases
// of aliases follow the hops with a bound against cycles.
func resolveAliases(pins []*pin.Pin) []*pin.Pin {
	for i, p := range pins {
		if p.AliasOf == "" || p.TypeName != "" {
			continue
		}
		if t, ok := aliasType(pins, p.AliasOf, 0); ok {
			pins[i] = p.WithType(t)
		}
	}
	return pins
}

func aliasType(pins []*pin.Pin, name string, depth int) (string, bool) {
	if depth > 8 {
		return "", false
	}
	for _, p := range pins {
		if p.Name != name {
			continue
		}
		if p.TypeName != "" {
			return p.TypeName, true
		}
		if p.AliasOf != "" && p.AliasOf != name {
			return aliasType(pins, p.AliasOf, depth+1)
		}
		return "", false
	}
	return "", false
}

// synthesizedNew builds the class-level `new` pin: it takes initialize's
// parameters and returns an instance of the class.
func (a *ApiMap) synthesizedNew(fqns string) *pin.Pin {
	np := &pin.Pin{
		Kind:      pin.KindMethod,
		Name:      "new",
		Namespace: fqns,
		Scope:     pin.ScopeClass,
		TypeName:  fqns,
	}
	for _, p := range a.methodChainInstance(fqns) {
		if p.Name == "initialize" {
			np.Parameters = p.Parameters
			np.Docs = p.Docs
			np.Location = p.Location
			break
		}
	}
	return np
}

func (a *ApiMap) methodChainInstance(fqns string) []*pin.Pin {
	var out []*pin.Pin
	a.appendMethods(fqns, pin.ScopeInstance, true, make(map[string]bool), &out)
	return out
}

// namespaceTypeOf returns the declared namespace type for fqns, with
// ok=false when no namespace pin exists at all.
func (a *ApiMap) namespaceTypeOf(fqns string) (pin.NamespaceType, bool) {
	for _, s := range a.stores() {
		for _, p := range s.NamespacePins(fqns) {
			return p.NamespaceType, true
		}
	}
	return pin.TypeClass, false
}

// isClass reports whether fqns has a class declaration. Names with no
// namespace pin at all are not classes; they get no implicit ancestry.
func (a *ApiMap) isClass(fqns string) bool {
	nt, ok := a.namespaceTypeOf(fqns)
	return ok && nt == pin.TypeClass
}

// sharesAncestry reports whether two namespaces sit on one ancestry
// chain, in either direction.
func (a *ApiMap) sharesAncestry(context, ns string) bool {
	if context == "" || ns == "" {
		return false
	}
	if context == ns {
		return true
	}
	return a.inAncestry(context, ns) || a.inAncestry(ns, context)
}

func (a *ApiMap) inAncestry(fqns, ancestor string) bool {
	seen := make(map[string]bool)
	for cur := fqns; cur != "" && !seen[cur]; {
		seen[cur] = true
		if cur == ancestor {
			return true
		}
		sc, ok := a.superclassOf(cur)
		if !ok {
			return false
		}
		fq, ok := a.Qualify(sc, parentNamespace(cur))
		if !ok {
			return false
		}
		cur = fq
	}
	return false
}

func reversed(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
