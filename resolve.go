package rubylens

import (
	"strings"

	"rubylens/internal/pin"
)

// Qualify resolves a possibly relative constant or namespace reference
// to its fully qualified name using lexical constant lookup: the context
// namespace, each lexically enclosing namespace outward to the root,
// modules included into any of those, and finally the ancestry chain of
// the context. A leading :: anchors the lookup at the root. Unresolvable
// names come back unchanged with ok=false, never an error.
func (a *ApiMap) Qualify(name, context string) (string, bool) {
	if name == "" {
		return "", false
	}
	if strings.HasPrefix(name, "::") {
		rooted := name[2:]
		return rooted, a.definedName(rooted)
	}
	if fq, ok := a.innerQualify(name, context, make(map[string]bool)); ok {
		return fq, true
	}
	return name, false
}

func (a *ApiMap) innerQualify(name, context string, visited map[string]bool) (string, bool) {
	key := context + "|" + name
	if visited[key] {
		return "", false
	}
	visited[key] = true

	// Lexical scope, innermost first. Every enclosing level is checked
	// before any included module: a constant in an outer namespace beats
	// one mixed into the inner context.
	for ctx := context; ; ctx = parentNamespace(ctx) {
		if cand := joinNamespace(ctx, name); a.definedName(cand) {
			return cand, true
		}
		if ctx == "" {
			break
		}
	}
	for ctx := context; ; ctx = parentNamespace(ctx) {
		for _, inc := range a.includesOf(ctx) {
			incFq, ok := a.innerQualify(inc, parentNamespace(ctx), visited)
			if !ok {
				continue
			}
			if cand := joinNamespace(incFq, name); a.definedName(cand) {
				return cand, true
			}
		}
		if ctx == "" {
			break
		}
	}

	// Ancestry of the context namespace.
	seen := make(map[string]bool)
	for ctx := context; ctx != "" && !seen[ctx]; {
		seen[ctx] = true
		sc, ok := a.superclassOf(ctx)
		if !ok {
			break
		}
		scFq, ok := a.innerQualify(sc, parentNamespace(ctx), visited)
		if !ok {
			break
		}
		if cand := joinNamespace(scFq, name); a.definedName(cand) {
			return cand, true
		}
		for _, inc := range a.includesOf(scFq) {
			incFq, ok := a.innerQualify(inc, parentNamespace(scFq), visited)
			if !ok {
				continue
			}
			if cand := joinNamespace(incFq, name); a.definedName(cand) {
				return cand, true
			}
		}
		ctx = scFq
	}
	return "", false
}

// definedName reports whether fqns names a known namespace or constant.
func (a *ApiMap) definedName(fqns string) bool {
	if fqns == "" {
		return false
	}
	for _, s := range a.stores() {
		for _, p := range s.PathPins(fqns) {
			if p.Kind == pin.KindNamespace || p.Kind == pin.KindConstant {
				return true
			}
		}
	}
	return false
}

// includesOf merges the include lists from both stores in declaration
// order.
func (a *ApiMap) includesOf(fqns string) []string {
	var out []string
	for _, s := range a.stores() {
		out = append(out, s.Includes(fqns)...)
	}
	return out
}

// extendsOf merges the extend lists from both stores.
func (a *ApiMap) extendsOf(fqns string) []string {
	var out []string
	for _, s := range a.stores() {
		out = append(out, s.Extends(fqns)...)
	}
	return out
}

// superclassOf returns the textual superclass reference for fqns,
// preferring the workspace declaration over the core one.
func (a *ApiMap) superclassOf(fqns string) (string, bool) {
	if sc, ok := a.ws.Load().Superclass(fqns); ok {
		return sc, true
	}
	return a.core.Superclass(fqns)
}

// parentNamespace strips the last segment of a qualified name: the
// parent of "A::B::C" is "A::B", the parent of "A" is the root.
func parentNamespace(fqns string) string {
	if idx := strings.LastIndex(fqns, "::"); idx >= 0 {
		return fqns[:idx]
	}
	return ""
}

func joinNamespace(base, name string) string {
	if base == "" {
		return name
	}
	return base + "::" + name
}
