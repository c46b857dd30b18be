// Package store holds the flat, versioned pin collection and the derived
// lookup indexes resolution walks. A Store is immutable after construction;
// replacing the pin set replaces the whole Store.
package store

import (
	"sort"
	"strings"
	"sync/atomic"

	"rubylens/internal/pin"
)

var versionCounter atomic.Uint64

// methodKey indexes method pins by owning namespace and scope.
type methodKey struct {
	Namespace string
	Scope     pin.Scope
}

// Store indexes one pin set. All fields are write-once during New.
type Store struct {
	pins     []*pin.Pin
	version  uint64
	identity uint64

	byPath       map[string][]*pin.Pin
	namespaces   map[string]struct{}
	children     map[string][]*pin.Pin // constants and namespaces directly under a namespace
	methods      map[methodKey][]*pin.Pin
	ivars        map[string][]*pin.Pin
	cvars        map[string][]*pin.Pin
	gvars        []*pin.Pin
	symbols      []*pin.Pin
	includes     map[string][]string
	extends      map[string][]string
	superclasses map[string]string
	requires     []*pin.Pin
}

// New builds a Store and all derived indexes from the given pins. Index
// order is preserved everywhere so "last indexed wins" queries hold.
func New(pins []*pin.Pin) *Store {
	s := &Store{
		pins:         pins,
		version:      versionCounter.Add(1),
		identity:     Identity(pins),
		byPath:       make(map[string][]*pin.Pin),
		namespaces:   make(map[string]struct{}),
		children:     make(map[string][]*pin.Pin),
		methods:      make(map[methodKey][]*pin.Pin),
		ivars:        make(map[string][]*pin.Pin),
		cvars:        make(map[string][]*pin.Pin),
		includes:     make(map[string][]string),
		extends:      make(map[string][]string),
		superclasses: make(map[string]string),
	}
	for _, p := range pins {
		s.index(p)
	}
	return s
}

func (s *Store) index(p *pin.Pin) {
	switch p.Kind {
	case pin.KindReference:
		s.indexReference(p)
		return
	case pin.KindLocalVariable:
		// Locals are source-map state, not index state.
		return
	}

	s.byPath[p.Path()] = append(s.byPath[p.Path()], p)

	switch p.Kind {
	case pin.KindNamespace:
		s.namespaces[p.Path()] = struct{}{}
		s.children[p.Namespace] = append(s.children[p.Namespace], p)
	case pin.KindConstant:
		s.children[p.Namespace] = append(s.children[p.Namespace], p)
	case pin.KindMethod:
		k := methodKey{Namespace: p.Namespace, Scope: p.Scope}
		s.methods[k] = append(s.methods[k], p)
	case pin.KindInstanceVariable:
		s.ivars[p.Namespace] = append(s.ivars[p.Namespace], p)
	case pin.KindClassVariable:
		s.cvars[p.Namespace] = append(s.cvars[p.Namespace], p)
	case pin.KindGlobalVariable:
		s.gvars = append(s.gvars, p)
	case pin.KindSymbol:
		s.symbols = append(s.symbols, p)
	}
}

func (s *Store) indexReference(p *pin.Pin) {
	switch p.RefKind {
	case pin.RefInclude:
		s.includes[p.Namespace] = append(s.includes[p.Namespace], p.Name)
	case pin.RefExtend:
		s.extends[p.Namespace] = append(s.extends[p.Namespace], p.Name)
	case pin.RefSuperclass:
		// First declaration wins; reopening a class cannot change its parent.
		if _, ok := s.superclasses[p.Namespace]; !ok {
			s.superclasses[p.Namespace] = p.Name
		}
	case pin.RefRequire:
		s.requires = append(s.requires, p)
	}
}

// Pins returns the full pin set in index order.
func (s *Store) Pins() []*pin.Pin { return s.pins }

// Version is a process-unique, monotonically increasing store generation.
func (s *Store) Version() uint64 { return s.version }

// IdentityHash is the content hash of the pin set; equal hashes mean a
// rebuild would produce an equivalent store.
func (s *Store) IdentityHash() uint64 { return s.identity }

// PathPins returns all pins whose path matches exactly, in index order.
func (s *Store) PathPins(path string) []*pin.Pin { return s.byPath[path] }

// NamespaceExists reports whether fqns is a known class or module.
func (s *Store) NamespaceExists(fqns string) bool {
	if fqns == "" {
		return true
	}
	_, ok := s.namespaces[fqns]
	return ok
}

// NamespacePins returns namespace pins declared at fqns (several when the
// namespace was reopened).
func (s *Store) NamespacePins(fqns string) []*pin.Pin {
	var out []*pin.Pin
	for _, p := range s.byPath[fqns] {
		if p.Kind == pin.KindNamespace {
			out = append(out, p)
		}
	}
	return out
}

// Children returns constant and namespace pins directly nested under fqns.
func (s *Store) Children(fqns string) []*pin.Pin { return s.children[fqns] }

// Methods returns method pins owned by fqns at the given scope, in index
// order.
func (s *Store) Methods(fqns string, scope pin.Scope) []*pin.Pin {
	return s.methods[methodKey{Namespace: fqns, Scope: scope}]
}

// MethodsNamed returns fqns's own method pins with the given name.
func (s *Store) MethodsNamed(fqns string, scope pin.Scope, name string) []*pin.Pin {
	var out []*pin.Pin
	for _, p := range s.Methods(fqns, scope) {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

// InstanceVariables returns instance-variable pins declared in fqns.
func (s *Store) InstanceVariables(fqns string) []*pin.Pin { return s.ivars[fqns] }

// ClassVariables returns class-variable pins declared in fqns.
func (s *Store) ClassVariables(fqns string) []*pin.Pin { return s.cvars[fqns] }

// GlobalVariables returns all global-variable pins.
func (s *Store) GlobalVariables() []*pin.Pin { return s.gvars }

// Symbols returns all symbol-literal pins.
func (s *Store) Symbols() []*pin.Pin { return s.symbols }

// Includes returns the textual names of modules included into fqns, in
// declaration order.
func (s *Store) Includes(fqns string) []string { return s.includes[fqns] }

// Extends returns the textual names of modules extended into fqns.
func (s *Store) Extends(fqns string) []string { return s.extends[fqns] }

// Superclass returns fqns's textual superclass reference. ok is false for
// namespaces with no superclass declaration (incl. modules and the root).
func (s *Store) Superclass(fqns string) (string, bool) {
	sc, ok := s.superclasses[fqns]
	return sc, ok
}

// Requires returns require reference pins in index order.
func (s *Store) Requires() []*pin.Pin { return s.requires }

// Search returns paths containing the query string, sorted ascending.
func (s *Store) Search(query string) []string {
	var out []string
	for path := range s.byPath {
		if strings.Contains(path, query) {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}
