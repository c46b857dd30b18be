package rubylens

import (
	"sort"
	"strings"

	"rubylens/internal/pin"
)

// Constants returns constant and namespace pins directly nested under
// fqns (the root when empty), sorted by name in ordinal order. Private
// constants are visible only from their declaring namespace or anything
// nested within it.
func (a *ApiMap) Constants(fqns, context string) []*pin.Pin {
	var out []*pin.Pin
	for _, s := range a.stores() {
		for _, p := range s.Children(fqns) {
			if constantVisible(p, context) {
				out = append(out, p)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func constantVisible(p *pin.Pin, context string) bool {
	if p.Visibility != pin.Private {
		return true
	}
	if p.Namespace == "" {
		return true
	}
	return context == p.Namespace || strings.HasPrefix(context, p.Namespace+"::")
}

// PathPins returns all pins whose path matches exactly, core first and
// workspace last, so the last-indexed pin wins single-valued queries.
func (a *ApiMap) PathPins(path string) []*pin.Pin {
	var out []*pin.Pin
	for _, s := range a.stores() {
		out = append(out, s.PathPins(path)...)
	}
	return out
}

// Search returns the sorted, deduplicated pin paths containing query.
func (a *ApiMap) Search(query string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range a.stores() {
		for _, path := range s.Search(query) {
			if !seen[path] {
				seen[path] = true
				out = append(out, path)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Document returns the pins at path that carry documentation.
func (a *ApiMap) Document(path string) []*pin.Pin {
	var out []*pin.Pin
	for _, p := range a.PathPins(path) {
		if p.Docs != "" {
			out = append(out, p)
		}
	}
	return out
}

// InstanceVariablePins returns instance-variable pins declared in fqns
// at the given scope, including those inherited through the superclass
// chain: a subclass with no own assignments still sees its parent's.
func (a *ApiMap) InstanceVariablePins(fqns string, scope pin.Scope) []*pin.Pin {
	var out []*pin.Pin
	seen := make(map[string]bool)
	for cur := fqns; !seen[cur]; {
		seen[cur] = true
		for _, s := range a.stores() {
			for _, p := range s.InstanceVariables(cur) {
				if p.Scope == scope {
					out = append(out, p)
				}
			}
		}
		if cur == "" {
			break
		}
		sc, ok := a.superclassOf(cur)
		if !ok {
			break
		}
		fq, ok := a.Qualify(sc, parentNamespace(cur))
		if !ok {
			break
		}
		cur = fq
	}
	return out
}

// ClassVariablePins returns class-variable pins declared in fqns.
func (a *ApiMap) ClassVariablePins(fqns string) []*pin.Pin {
	var out []*pin.Pin
	for _, s := range a.stores() {
		out = append(out, s.ClassVariables(fqns)...)
	}
	return out
}

// GlobalVariablePins returns all global-variable pins.
func (a *ApiMap) GlobalVariablePins() []*pin.Pin {
	var out []*pin.Pin
	for _, s := range a.stores() {
		out = append(out, s.GlobalVariables()...)
	}
	return out
}

// Symbols returns all symbol-literal pins.
func (a *ApiMap) Symbols() []*pin.Pin {
	var out []*pin.Pin
	for _, s := range a.stores() {
		out = append(out, s.Symbols()...)
	}
	return out
}
